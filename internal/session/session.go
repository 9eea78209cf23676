package session

import (
	"context"
	"log"
	"strings"

	"github.com/divakaivan/voice2voice-banking-assistant/internal/agent"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/history"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/tts"
)

// Session orchestrates one conversation's turns: audio in -> transcription ->
// agent generation -> incremental synthesis -> audio out, with the exchange
// persisted around generation. Everything in a turn runs on one flow of
// control, so messages are always persisted in causal order without locking.
type Session struct {
	conversationID string
	transport      Transport
	transcriber    Transcriber
	store          HistoryStore
	agent          Agent
	synth          tts.Synthesizer
}

func New(conversationID string, transport Transport, transcriber Transcriber, store HistoryStore, ag Agent, synth tts.Synthesizer) *Session {
	return &Session{
		conversationID: conversationID,
		transport:      transport,
		transcriber:    transcriber,
		store:          store,
		agent:          ag,
		synth:          synth,
	}
}

// Run loops over inbound utterances until the transport disconnects or ctx is
// canceled. Turn-level failures are reported and the session keeps awaiting
// audio; only transport failures end the session.
func (s *Session) Run(ctx context.Context) error {
	log.Printf("[%s] session started", s.conversationID)
	for {
		audio, err := s.transport.ReadAudio()
		if err != nil {
			log.Printf("[%s] session closed: %v", s.conversationID, err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			log.Printf("[%s] session canceled", s.conversationID)
			return err
		}
		if err := s.runTurn(ctx, audio); err != nil {
			log.Printf("[%s] session closed mid-turn: %v", s.conversationID, err)
			return err
		}
	}
}

// runTurn executes one full audio-in to audio-out cycle. A nil return means
// the session should await the next utterance, whether or not the turn
// succeeded; a non-nil return means the transport is unusable.
func (s *Session) runTurn(ctx context.Context, audio []byte) error {
	transcription, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.Printf("[%s] transcription error: %v", s.conversationID, err)
		return s.transport.SendText("Error: could not transcribe audio, please try again.")
	}
	if transcription == "" {
		return nil
	}
	log.Printf("[%s] heard: %s", s.conversationID, transcription)
	if err := s.transport.SendText("Human: " + transcription); err != nil {
		return err
	}

	// The user's utterance is durably recorded before generation begins; if
	// this fails the turn stops here rather than proceed on an unrecorded
	// premise.
	if err := s.store.Append(ctx, s.conversationID, agent.SenderUser, transcription); err != nil {
		log.Printf("[%s] persist user message: %v", s.conversationID, err)
		return s.transport.SendText("Error: could not record your message, please try again.")
	}

	stored, err := s.store.ReadAll(ctx, s.conversationID)
	if err != nil {
		log.Printf("[%s] read history: %v", s.conversationID, err)
		return s.transport.SendText("Error: could not load the conversation, please try again.")
	}
	units := agent.BuildTurnInput(toExchanges(stored))

	speech, err := s.synth.OpenSession(ctx)
	if err != nil {
		log.Printf("[%s] open speech session: %v", s.conversationID, err)
		return s.transport.SendText("Error: speech synthesis is unavailable.")
	}
	defer speech.Close()

	// cancel releases the generation goroutine if the turn exits early
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("[%s] generating reply", s.conversationID)
	fragments, errs := s.agent.Generate(genCtx, transcription, units)

	var reply strings.Builder
	for fragment := range fragments {
		reply.WriteString(fragment)
		chunks, ferr := speech.Feed(ctx, fragment)
		if serr := s.sendChunks(chunks); serr != nil {
			return serr
		}
		if ferr != nil {
			log.Printf("[%s] synthesis error: %v", s.conversationID, ferr)
			return s.transport.SendText("Error: speech synthesis failed.")
		}
	}
	if err := <-errs; err != nil {
		// audio already streamed stays streamed; the reply is not persisted
		log.Printf("[%s] generation error: %v", s.conversationID, err)
		return s.transport.SendText("Error: could not generate a reply, please try again.")
	}

	chunks, err := speech.Flush(ctx)
	if serr := s.sendChunks(chunks); serr != nil {
		return serr
	}
	if err != nil {
		log.Printf("[%s] synthesis flush error: %v", s.conversationID, err)
	}

	if err := s.transport.SendText("Agent: " + reply.String()); err != nil {
		return err
	}
	if err := s.store.Append(ctx, s.conversationID, agent.SenderAgent, reply.String()); err != nil {
		log.Printf("[%s] persist agent message: %v", s.conversationID, err)
	}
	return nil
}

func (s *Session) sendChunks(chunks [][]byte) error {
	for _, chunk := range chunks {
		if err := s.transport.SendAudio(chunk); err != nil {
			return err
		}
	}
	return nil
}

func toExchanges(stored []history.Message) []agent.Exchange {
	exchanges := make([]agent.Exchange, 0, len(stored))
	for _, m := range stored {
		exchanges = append(exchanges, agent.Exchange{Sender: m.Sender, Content: m.Content})
	}
	return exchanges
}
