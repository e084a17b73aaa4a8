package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	godigest "github.com/soundprediction/go-digest"
	"github.com/soundprediction/go-digest/extract"
	"github.com/soundprediction/go-digest/handler"
	"github.com/soundprediction/go-digest/llm"
)

type config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	DocPath      string `env:"DOC_PATH" envDefault:"book.txt"`
	ChunkMaxSize int    `env:"CHUNK_MAX_SIZE" envDefault:"8000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	data, err := os.ReadFile(cfg.DocPath)
	if err != nil {
		logger.Error("Failed to read document", "path", cfg.DocPath, "error", err)
		os.Exit(1)
	}

	content, err := extract.Text(data, cfg.DocPath)
	if err != nil {
		logger.Error("Failed to extract text", "path", cfg.DocPath, "error", err)
		os.Exit(1)
	}

	docHandler := handler.Default{
		ChunkMaxSize: cfg.ChunkMaxSize,
		Config: handler.DocumentConfig{
			MaxRetries:       3,
			ConcurrencyCount: 4,
			BackoffDuration:  2 * time.Second,
		},
	}

	model := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, llm.Parameters{}, logger)

	doc := godigest.Document{
		ID:      uuid.NewString(),
		Content: content,
	}

	summary, err := godigest.Summarize(context.Background(), doc, docHandler, model, logger)
	if err != nil {
		logger.Error("Summarization failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Summary produced",
		"chars", summary.Length, "chunks", summary.ChunkCount, "compressed", summary.Compressed)

	fmt.Println(summary.Content)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
