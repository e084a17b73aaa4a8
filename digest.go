package godigest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// LLM defines the interface for language model operations.
// It provides a single chat interaction used for summarizing, merging,
// and compressing text.
type LLM interface {
	// Chat sends messages to the LLM and returns the response.
	// A message with an even index is guaranteed to be sent by the user, while the odd index is
	// sent by the assistant. The call must honor ctx cancellation.
	Chat(ctx context.Context, messages []string) (string, error)
}

// DocumentHandler provides the chunking strategy and the tuning knobs for one
// summarization run. Implementations are expected to return sensible defaults
// for zero-valued configuration.
type DocumentHandler interface {
	// ChunksDocument splits a document's content into smaller, manageable chunks.
	// Chunks are returned in document order with OrderIndex assigned 0..N-1.
	ChunksDocument(content string) ([]Chunk, error)
	// SingleCallThreshold returns the content length (in characters) at or
	// below which the whole document is summarized with one model call,
	// skipping chunking entirely.
	SingleCallThreshold() int
	// TargetRatio returns the desired summary-to-document size ratio.
	// Values <= 0 fall back to the planner default.
	TargetRatio() float64
	// CeilingRatio returns the hard upper bound ratio for the final summary,
	// stricter than the document length but looser than the target.
	// Values <= 0 fall back to the planner default.
	CeilingRatio() float64
	// MaxRetries determines how many times a failed model call is retried
	// after the initial attempt. Only transient failures are retried.
	MaxRetries() int
	// ConcurrencyCount determines the number of concurrent requests to the LLM.
	ConcurrencyCount() int
	// BackoffDuration determines the base backoff duration between retries.
	BackoffDuration() time.Duration
}

// Document represents a text document to be summarized.
// Its content is owned by the caller for the duration of one request and is
// never stored beyond it.
type Document struct {
	ID      string
	Content string
}

// Chunk is a bounded, contiguous, non-overlapping piece of a document's text.
type Chunk struct {
	Content    string
	Size       int
	OrderIndex int
}

// Summary is the final result of one summarization request.
type Summary struct {
	Content    string
	Length     int
	ChunkCount int
	Compressed bool
}

// ErrEmptyContent is returned when a document has no summarizable text.
var ErrEmptyContent = errors.New("no content to summarize")

// TransientError marks a model failure as retryable (overload, rate limit,
// server busy). Errors without this marker are treated as permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient model error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err carries a TransientError anywhere in its chain.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// SummarizationError wraps a failure that aborted the whole pipeline, which
// only happens when no fallback content exists.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed: %v", e.Err)
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

func cleanContent(content string) string {
	// Removes spaces and null characters.
	str := strings.TrimSpace(content)
	return strings.ReplaceAll(str, "\x00", "")
}

func promptTemplate(name, templ string, data any) (string, error) {
	buf := strings.Builder{}
	tmpl := template.Must(template.New(name).Parse(templ))
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
