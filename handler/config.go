package handler

import "time"

// DocumentConfig contains configuration parameters shared by document
// handlers: retry behavior and model-call concurrency.
type DocumentConfig struct {
	MaxRetries       int
	ConcurrencyCount int
	BackoffDuration  time.Duration
}

const (
	defaultMaxRetries       = 3
	defaultConcurrencyCount = 4
	defaultBackoffDuration  = time.Second
)
