package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/divakaivan/voice2voice-banking-assistant/internal/agent"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/config"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/history"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/httpserver"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/tools"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/transactions"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/transcribe"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	historyStore, err := history.NewStore(cfg.HistoryDBPath)
	if err != nil {
		log.Fatalf("history store: %v", err)
	}
	defer historyStore.Close()

	txnStore, err := transactions.NewStore(cfg.TransactionDBPath)
	if err != nil {
		log.Fatalf("transaction store: %v", err)
	}
	defer txnStore.Close()

	groqClient := openai.NewClient(
		option.WithAPIKey(cfg.GroqAPIKey),
		option.WithBaseURL(cfg.GroqBaseURL),
	)

	var synth tts.Synthesizer
	if cfg.TTSProvider == "deepgram" {
		synth = tts.NewDeepgram(cfg.DeepgramKey, cfg.DeepgramModel)
	} else {
		openaiClient := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		synth = tts.NewOpenAI(openaiClient, cfg.TTSModel, cfg.TTSVoice)
	}

	srv := httpserver.New(httpserver.Deps{
		History:     historyStore,
		Transcriber: transcribe.NewGroq(groqClient, cfg.TranscriptionModel),
		Agent:       agent.New(groqClient, cfg.GenerationModel, tools.New(txnStore)),
		Synth:       synth,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
