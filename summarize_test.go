package godigest_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	godigest "github.com/soundprediction/go-digest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarize_EmptyDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "Empty content", content: ""},
		{name: "Whitespace only", content: "  \n\n \t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := &MockLLM{}
			handler := MockHandler{threshold: 30000}

			_, err := godigest.Summarize(context.Background(),
				godigest.Document{Content: tt.content}, handler, mockLLM, testLogger())
			if !errors.Is(err, godigest.ErrEmptyContent) {
				t.Fatalf("Expected ErrEmptyContent, got %v", err)
			}
			if mockLLM.CallCount() != 0 {
				t.Errorf("Expected no LLM calls, got %d", mockLLM.CallCount())
			}
		})
	}
}

func TestSummarize_SingleCallPath(t *testing.T) {
	content := strings.Repeat("abcdefghij", 10) // 100 characters, one paragraph

	mockLLM := &MockLLM{}
	handler := MockHandler{threshold: 30000}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Length < 1 || summary.Length > len(content) {
		t.Errorf("Expected summary length in [1, %d], got %d", len(content), summary.Length)
	}
	if summary.ChunkCount != 1 {
		t.Errorf("Expected chunk count 1, got %d", summary.ChunkCount)
	}
	if mockLLM.CallCount() != 1 {
		t.Errorf("Expected exactly 1 LLM call, got %d", mockLLM.CallCount())
	}
	if !strings.Contains(mockLLM.Calls()[0], content) {
		t.Error("Expected the prompt to carry the document text")
	}
}

func TestSummarize_SingleCallPermanentError(t *testing.T) {
	mockLLM := &MockLLM{
		respond: func(string) (string, error) {
			return "", errors.New("bad request")
		},
	}
	handler := MockHandler{threshold: 30000}

	_, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: "Some short document."}, handler, mockLLM, testLogger())

	var sErr *godigest.SummarizationError
	if !errors.As(err, &sErr) {
		t.Fatalf("Expected SummarizationError, got %v", err)
	}
	// Permanent failures are not retried.
	if mockLLM.CallCount() != 1 {
		t.Errorf("Expected exactly 1 LLM call, got %d", mockLLM.CallCount())
	}
}

func TestSummarize_TransientRetries(t *testing.T) {
	mockLLM := &MockLLM{
		respond: func(string) (string, error) {
			return "", &godigest.TransientError{Err: errors.New("overloaded")}
		},
	}
	handler := MockHandler{threshold: 30000, maxRetries: 2}

	_, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: "Some short document."}, handler, mockLLM, testLogger())
	if err == nil {
		t.Fatal("Expected error after exhausted retries, got nil")
	}

	// Initial attempt plus two retries.
	if mockLLM.CallCount() != 3 {
		t.Errorf("Expected exactly 3 LLM calls, got %d", mockLLM.CallCount())
	}
}

func chunkedFixture() (string, []godigest.Chunk) {
	paragraphs := []string{
		"alpha " + strings.Repeat("a", 400),
		"beta " + strings.Repeat("b", 400),
		"gamma " + strings.Repeat("c", 400),
	}

	chunks := make([]godigest.Chunk, len(paragraphs))
	for i, p := range paragraphs {
		chunks[i] = godigest.Chunk{Content: p, Size: len(p), OrderIndex: i}
	}

	return strings.Join(paragraphs, "\n\n"), chunks
}

func TestSummarize_ChunkedPath(t *testing.T) {
	content, chunks := chunkedFixture()

	mockLLM := &MockLLM{
		respond: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Merge the following"):
				return "merged summary covering all three sections.", nil
			case strings.Contains(prompt, "alpha"):
				return "S0", nil
			case strings.Contains(prompt, "beta"):
				return "S1", nil
			case strings.Contains(prompt, "gamma"):
				return "S2", nil
			}
			return "", fmt.Errorf("unexpected prompt: %s", prompt)
		},
	}
	handler := MockHandler{chunks: chunks, threshold: 1000, concurrency: 3}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Content != "merged summary covering all three sections." {
		t.Errorf("Unexpected summary content: %q", summary.Content)
	}
	if summary.ChunkCount != 3 {
		t.Errorf("Expected chunk count 3, got %d", summary.ChunkCount)
	}
	if mockLLM.CallCount() != 4 {
		t.Errorf("Expected 4 LLM calls (3 chunks + 1 merge), got %d", mockLLM.CallCount())
	}

	// Partials must appear in original chunk order inside the merge prompt,
	// regardless of completion order.
	var mergePrompt string
	for _, call := range mockLLM.Calls() {
		if strings.Contains(call, "Merge the following") {
			mergePrompt = call
		}
	}
	if !strings.Contains(mergePrompt, "S0\n\nS1\n\nS2") {
		t.Errorf("Expected merge prompt to carry partials in order, got %q", mergePrompt)
	}
}

func TestSummarize_ChunkFailureDegradesToPlaceholder(t *testing.T) {
	content, chunks := chunkedFixture()

	mockLLM := &MockLLM{
		respond: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Merge the following"):
				return "merged summary.", nil
			case strings.Contains(prompt, "beta"):
				return "", errors.New("model rejected input")
			}
			return "a partial summary.", nil
		},
	}
	handler := MockHandler{chunks: chunks, threshold: 1000, concurrency: 3}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error despite chunk failure, got %v", err)
	}
	if summary.Content == "" {
		t.Error("Expected non-empty summary")
	}

	var mergePrompt string
	for _, call := range mockLLM.Calls() {
		if strings.Contains(call, "Merge the following") {
			mergePrompt = call
		}
	}
	if !strings.Contains(mergePrompt, "[summary unavailable for section 2") {
		t.Errorf("Expected tagged placeholder for failed chunk in merge prompt, got %q", mergePrompt)
	}
}

func TestSummarize_ChunkTransientExhaustionDegradesToPlaceholder(t *testing.T) {
	content, chunks := chunkedFixture()

	mockLLM := &MockLLM{
		respond: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Merge the following"):
				return "merged summary.", nil
			case strings.Contains(prompt, "beta"):
				return "", &godigest.TransientError{Err: errors.New("overloaded")}
			}
			return "a partial summary.", nil
		},
	}
	handler := MockHandler{chunks: chunks, threshold: 1000, concurrency: 3, maxRetries: 2}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error after exhausted retries on one chunk, got %v", err)
	}
	if summary.Content == "" {
		t.Error("Expected non-empty summary")
	}

	// Initial attempt plus two retries on the failing chunk only.
	var betaAttempts int
	var mergePrompt string
	for _, call := range mockLLM.Calls() {
		if strings.Contains(call, "beta") {
			betaAttempts++
		}
		if strings.Contains(call, "Merge the following") {
			mergePrompt = call
		}
	}
	if betaAttempts != 3 {
		t.Errorf("Expected exactly 3 attempts on the failing chunk, got %d", betaAttempts)
	}
	if mockLLM.CallCount() != 6 {
		t.Errorf("Expected 6 LLM calls (2 chunks + 3 attempts + 1 merge), got %d", mockLLM.CallCount())
	}
	if !strings.Contains(mergePrompt, "[summary unavailable for section 2") {
		t.Errorf("Expected tagged placeholder for exhausted chunk in merge prompt, got %q", mergePrompt)
	}
}

func TestSummarize_MergeFallsBackToConcatenation(t *testing.T) {
	content, chunks := chunkedFixture()

	mockLLM := &MockLLM{
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Merge the following") {
				return "", errors.New("model rejected input")
			}
			switch {
			case strings.Contains(prompt, "alpha"):
				return "S0", nil
			case strings.Contains(prompt, "beta"):
				return "S1", nil
			}
			return "S2", nil
		},
	}
	handler := MockHandler{chunks: chunks, threshold: 1000, concurrency: 2}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, partial := range []string{"S0", "S1", "S2"} {
		if !strings.Contains(summary.Content, partial) {
			t.Errorf("Expected fallback concatenation to contain %q, got %q", partial, summary.Content)
		}
	}
}

func TestSummarize_SinglePartialSkipsMerge(t *testing.T) {
	content := strings.Repeat("only one chunk here. ", 60)
	chunks := []godigest.Chunk{{Content: strings.TrimSpace(content), Size: len(content), OrderIndex: 0}}

	mockLLM := &MockLLM{
		respond: func(string) (string, error) {
			return "the only partial summary.", nil
		},
	}
	handler := MockHandler{chunks: chunks, threshold: 100}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Content != "the only partial summary." {
		t.Errorf("Expected single partial returned unchanged, got %q", summary.Content)
	}
	if mockLLM.CallCount() != 1 {
		t.Errorf("Expected no merge call for a single partial, got %d calls", mockLLM.CallCount())
	}
}

func TestSummarize_CeilingTriggersCompression(t *testing.T) {
	content := strings.Repeat("a", 1000) // ceiling = 550

	mockLLM := &MockLLM{
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Shorten the following") {
				return strings.Repeat("c", 300), nil
			}
			return strings.Repeat("b", 600), nil
		},
	}
	handler := MockHandler{threshold: 30000}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Length > 550 {
		t.Errorf("Expected summary within ceiling of 550, got %d", summary.Length)
	}
	if !summary.Compressed {
		t.Error("Expected summary to be marked compressed")
	}
	if mockLLM.CallCount() != 2 {
		t.Errorf("Expected 2 LLM calls (summarize + compress), got %d", mockLLM.CallCount())
	}
}

func TestSummarize_CompressionFailureTruncates(t *testing.T) {
	content := strings.Repeat("a", 1000)

	mockLLM := &MockLLM{
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Shorten the following") {
				return "", errors.New("model rejected input")
			}
			return strings.Repeat("b", 600), nil
		},
	}
	handler := MockHandler{threshold: 30000}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Length > 550 {
		t.Errorf("Expected truncated summary within ceiling of 550, got %d", summary.Length)
	}
	if !strings.HasSuffix(summary.Content, "...") {
		t.Errorf("Expected truncation marker, got %q", summary.Content)
	}
}

func TestSummarize_NeverLongerThanDocument(t *testing.T) {
	content := strings.Repeat("z", 100)

	// A misbehaving model that always answers with four times the document.
	mockLLM := &MockLLM{
		respond: func(string) (string, error) {
			return strings.Repeat("y", 400), nil
		},
	}
	handler := MockHandler{threshold: 30000}

	summary, err := godigest.Summarize(context.Background(),
		godigest.Document{Content: content}, handler, mockLLM, testLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Length > len(content) {
		t.Errorf("Summary length %d exceeds document length %d", summary.Length, len(content))
	}
	if summary.Length == 0 {
		t.Error("Expected non-empty summary")
	}
}

func TestSummarize_CancellationWrapped(t *testing.T) {
	content, chunks := chunkedFixture()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockLLM := &MockLLM{
		respond: func(string) (string, error) {
			cancel()
			return "", &godigest.TransientError{Err: errors.New("overloaded")}
		},
	}
	handler := MockHandler{chunks: chunks, threshold: 1000, concurrency: 1, maxRetries: 1}

	_, err := godigest.Summarize(ctx,
		godigest.Document{Content: content}, handler, mockLLM, testLogger())

	var sErr *godigest.SummarizationError
	if !errors.As(err, &sErr) {
		t.Fatalf("Expected SummarizationError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected wrapped cancellation, got %v", err)
	}
}

func TestSummarize_ChunkingFailures(t *testing.T) {
	content := strings.Repeat("some document text ", 20)

	t.Run("Chunker error", func(t *testing.T) {
		handler := MockHandler{chunkErr: errors.New("boom"), threshold: 10}

		_, err := godigest.Summarize(context.Background(),
			godigest.Document{Content: content}, handler, &MockLLM{}, testLogger())

		var sErr *godigest.SummarizationError
		if !errors.As(err, &sErr) {
			t.Fatalf("Expected SummarizationError, got %v", err)
		}
	})

	t.Run("Zero chunks from non-empty input", func(t *testing.T) {
		handler := MockHandler{threshold: 10}

		_, err := godigest.Summarize(context.Background(),
			godigest.Document{Content: content}, handler, &MockLLM{}, testLogger())
		if !errors.Is(err, godigest.ErrEmptyContent) {
			t.Fatalf("Expected ErrEmptyContent, got %v", err)
		}
	})
}
