package session

import (
	"context"

	"github.com/divakaivan/voice2voice-banking-assistant/internal/agent"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/history"
)

// Transport is one bidirectional client connection. Inbound deliveries are
// opaque audio buffers, one utterance each; outbound is an order-significant
// interleaving of status lines and audio chunks.
type Transport interface {
	// ReadAudio blocks until the next utterance arrives. Any error means the
	// connection is gone.
	ReadAudio() ([]byte, error)
	SendText(text string) error
	SendAudio(chunk []byte) error
}

// Transcriber converts one utterance of audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// HistoryStore persists and replays conversation messages in insertion order.
type HistoryStore interface {
	Append(ctx context.Context, conversationID, sender, content string) error
	ReadAll(ctx context.Context, conversationID string) ([]history.Message, error)
}

// Agent produces a streamed reply for a prompt given prior turn units.
type Agent interface {
	Generate(ctx context.Context, prompt string, units []agent.TurnUnit) (<-chan string, <-chan error)
}
