package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go/v3"
)

// OpenAI synthesizes speech with OpenAI's speech endpoint, one request per
// speakable unit.
type OpenAI struct {
	client openai.Client
	model  string
	voice  string
}

func NewOpenAI(client openai.Client, model, voice string) *OpenAI {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAI{client: client, model: model, voice: voice}
}

// OpenSession starts a speech session for one turn.
func (o *OpenAI) OpenSession(_ context.Context) (Session, error) {
	return &unitSession{synth: o.synthesize}, nil
}

func (o *OpenAI) synthesize(ctx context.Context, text string) ([]byte, error) {
	res, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatAAC,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	return b, nil
}

// unitSession buffers fragments into speakable units and synthesizes one
// audio chunk per completed unit.
type unitSession struct {
	buf   unitBuffer
	synth func(ctx context.Context, text string) ([]byte, error)
}

func (s *unitSession) Feed(ctx context.Context, fragment string) ([][]byte, error) {
	var chunks [][]byte
	for _, unit := range s.buf.Write(fragment) {
		b, err := s.synth(ctx, unit)
		if err != nil {
			return chunks, err
		}
		if len(b) > 0 {
			chunks = append(chunks, b)
		}
	}
	return chunks, nil
}

func (s *unitSession) Flush(ctx context.Context) ([][]byte, error) {
	tail := s.buf.Drain()
	if tail == "" {
		return nil, nil
	}
	b, err := s.synth(ctx, tail)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	return [][]byte{b}, nil
}

func (s *unitSession) Close() error {
	s.buf.Drain()
	return nil
}
