package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`

	GroqAPIKey   string `env:"GROQ_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// Speech-to-text (Groq whisper endpoint).
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-large-v3-turbo"`

	// Chat generation (Groq, OpenAI-compatible API).
	GenerationModel string `env:"GENERATION_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GroqBaseURL     string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`

	// Text-to-speech provider: "openai" or "deepgram".
	TTSProvider   string `env:"TTS_PROVIDER" envDefault:"openai"`
	TTSModel      string `env:"TTS_MODEL" envDefault:"tts-1"`
	TTSVoice      string `env:"TTS_VOICE" envDefault:"alloy"`
	DeepgramKey   string `env:"DEEPGRAM_API_KEY"`
	DeepgramModel string `env:"DEEPGRAM_TTS_MODEL" envDefault:"aura-2-thalia-en"`

	HistoryDBPath     string `env:"HISTORY_DB_PATH" envDefault:"data/history.db"`
	TransactionDBPath string `env:"TRANSACTION_DB_PATH" envDefault:"data/transactions.db"`
}

// Load reads .env plus environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: parse environment: %v", err)
	}

	if cfg.GroqAPIKey == "" {
		log.Println("Warning: GROQ_API_KEY not set - transcription and generation will not work")
	}
	if cfg.TTSProvider == "openai" && cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - speech synthesis will not work")
	}
	if cfg.TTSProvider == "deepgram" && cfg.DeepgramKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - speech synthesis will not work")
	}

	log.Printf("config: HTTP_ADDRESS=%s TTS_PROVIDER=%s", cfg.HTTPAddress, cfg.TTSProvider)
	return cfg
}
