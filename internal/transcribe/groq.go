package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
)

// Error reports an upstream speech-to-text failure. A turn that hits one is
// aborted, but the connection stays open.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Groq transcribes audio buffers through Groq's whisper endpoint. Stateless;
// one call per utterance.
type Groq struct {
	client openai.Client
	model  string

	// optional decoding hints
	Temperature float64
	Language    string
}

func NewGroq(client openai.Client, model string) *Groq {
	return &Groq{client: client, model: model}
}

// Transcribe converts one utterance of audio bytes into text.
func (g *Groq) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &Error{Err: errors.New("empty audio buffer")}
	}

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(g.model),
		File:  openai.File(bytes.NewReader(audio), "utterance.wav", "audio/wav"),
	}
	if g.Temperature != 0 {
		params.Temperature = openai.Float(g.Temperature)
	}
	if g.Language != "" {
		params.Language = openai.String(g.Language)
	}

	resp, err := g.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", &Error{Err: err}
	}
	return strings.TrimSpace(resp.Text), nil
}
