package tts

import (
	"context"
	"fmt"
	"log"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
)

// Deepgram synthesizes speech over the Deepgram speak WebSocket. One socket
// per turn; text is sent per speakable unit and audio is collected in arrival
// order, so chunk ordering follows feed ordering.
type Deepgram struct {
	apiKey     string
	model      string
	sampleRate int
	encoding   string
}

func NewDeepgram(apiKey, model string) *Deepgram {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &Deepgram{apiKey: apiKey, model: model, sampleRate: 48000, encoding: "linear16"}
}

// OpenSession connects a speak socket for one turn.
func (d *Deepgram) OpenSession(ctx context.Context) (Session, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("deepgram: API key missing")
	}

	chunkCh := make(chan []byte, 4096)
	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		b := make([]byte, len(data))
		copy(b, data)
		select {
		case chunkCh <- b:
		default:
		}
		return nil
	}}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}
	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return nil, fmt.Errorf("deepgram: create ws client: %w", err)
	}
	if ok := dg.Connect(); !ok {
		return nil, fmt.Errorf("deepgram: connect failed")
	}
	return &deepgramSession{dg: dg, chunks: chunkCh}, nil
}

// speakSocket is the slice of the Deepgram speak client the session drives.
type speakSocket interface {
	SpeakWithText(text string) error
	Flush() error
	Stop()
}

type deepgramSession struct {
	dg     speakSocket
	buf    unitBuffer
	chunks chan []byte
	closed bool
}

func (s *deepgramSession) Feed(ctx context.Context, fragment string) ([][]byte, error) {
	var out [][]byte
	for _, unit := range s.buf.Write(fragment) {
		chunks, err := s.speakUnit(ctx, unit)
		out = append(out, chunks...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *deepgramSession) Flush(ctx context.Context) ([][]byte, error) {
	tail := s.buf.Drain()
	if tail == "" {
		return nil, nil
	}
	return s.speakUnit(ctx, tail)
}

func (s *deepgramSession) Close() error {
	if !s.closed {
		s.closed = true
		s.dg.Stop()
	}
	return nil
}

// speakUnit sends one unit of text and collects the audio it produces. The
// socket delivers audio asynchronously; an idle window past the flush marks
// the unit complete.
func (s *deepgramSession) speakUnit(ctx context.Context, text string) ([][]byte, error) {
	if err := s.dg.SpeakWithText(text); err != nil {
		return nil, fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := s.dg.Flush(); err != nil {
		log.Printf("deepgram: flush error: %v", err)
	}

	const idleWindow = 400 * time.Millisecond
	var chunks [][]byte
	idle := time.NewTimer(idleWindow)
	defer idle.Stop()
	deadline := time.After(12 * time.Second)
	for {
		select {
		case b := <-s.chunks:
			chunks = append(chunks, b)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(idleWindow)
		case <-idle.C:
			return chunks, nil
		case <-deadline:
			return chunks, nil
		case <-ctx.Done():
			return chunks, ctx.Err()
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
