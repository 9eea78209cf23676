package tts

import "context"

// Synthesizer opens one speech session per conversation turn.
type Synthesizer interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Session converts a stream of text fragments into ordered audio chunks.
// Chunk emission order is the playback order the transport relies on.
type Session interface {
	// Feed accepts one text fragment and returns audio chunks for any
	// speakable units the fragment completed, in order. A fragment that
	// completes no unit returns no chunks.
	Feed(ctx context.Context, fragment string) ([][]byte, error)
	// Flush drains any partial unit left when the text stream ends.
	Flush(ctx context.Context) ([][]byte, error)
	// Close releases the session on every exit path, including early
	// termination.
	Close() error
}
