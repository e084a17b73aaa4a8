package godigest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

const defaultBackoffDuration = time.Second

// partialSeparator joins partial summaries for the merge prompt and for the
// concatenation fallback.
const partialSeparator = "\n\n"

// truncationMarker is appended when a summary has to be cut mechanically.
const truncationMarker = "..."

// Summarize turns a document of arbitrary length into a bounded-length summary.
// Documents at or below the handler's single-call threshold are summarized with
// one model call; longer documents are chunked, summarized chunk by chunk with
// bounded concurrency, and merged. The returned summary never exceeds the
// document's length, regardless of model behavior.
//
// Failures inside per-chunk or merge stages are recovered locally, so a single
// bad chunk cannot fail the whole document. Only an empty document, a failure
// on the unchunked single-call path, or cancellation is returned as an error;
// every fatal error except ErrEmptyContent is wrapped in SummarizationError.
func Summarize(ctx context.Context, doc Document, handler DocumentHandler, llm LLM, logger *slog.Logger) (Summary, error) {
	content := cleanContent(doc.Content)

	logger = logger.With(
		slog.String("package", "godigest"),
		slog.String("function", "Summarize"),
	)

	if content == "" {
		return Summary{}, ErrEmptyContent
	}

	budget := PlanBudget(len(content), handler.TargetRatio(), handler.CeilingRatio(), 0)

	var draft string
	chunkCount := 1

	if len(content) <= handler.SingleCallThreshold() {
		logger.Info("Summarizing document with a single call", "chars", len(content))

		out, err := summarizeText(ctx, llm, content, budget.TotalTarget, handler, logger)
		if err != nil {
			// No partial content exists to degrade to on this path.
			return Summary{}, &SummarizationError{Err: err}
		}
		draft = out
	} else {
		chunks, err := handler.ChunksDocument(content)
		if err != nil {
			return Summary{}, &SummarizationError{Err: fmt.Errorf("failed to chunk document: %w", err)}
		}
		if len(chunks) == 0 {
			return Summary{}, ErrEmptyContent
		}
		chunkCount = len(chunks)
		budget = PlanBudget(len(content), handler.TargetRatio(), handler.CeilingRatio(), len(chunks))

		logger.Info("Summarizing document in chunks",
			"chars", len(content), "chunks", len(chunks), "perChunkTarget", budget.PerChunkTarget)

		partials, err := summarizeChunks(ctx, llm, chunks, budget.PerChunkTarget, handler, logger)
		if err != nil {
			// Only cancellation escapes the per-chunk fallbacks.
			return Summary{}, &SummarizationError{Err: err}
		}

		draft, err = combine(ctx, llm, partials, budget.TotalTarget, handler, logger)
		if err != nil {
			return Summary{}, &SummarizationError{Err: err}
		}
	}

	final, compressed := enforceBounds(ctx, llm, draft, content, budget, handler, logger)

	return Summary{
		Content:    final,
		Length:     len(final),
		ChunkCount: chunkCount,
		Compressed: compressed,
	}, nil
}

// summarizeChunks fans out one summarization call per chunk, bounded by the
// handler's concurrency count. Partial summaries are reassembled in original
// chunk index order regardless of completion order; a failed chunk degrades to
// a tagged placeholder instead of failing the run.
func summarizeChunks(
	ctx context.Context,
	llm LLM,
	chunks []Chunk,
	perChunkTarget int,
	handler DocumentHandler,
	logger *slog.Logger,
) ([]string, error) {
	concurrency := handler.ConcurrencyCount()
	if concurrency <= 0 {
		concurrency = 1
	}

	partials := make([]string, len(chunks))

	eg, ctx := errgroup.WithContext(ctx)
	// Semaphore to limit concurrent LLM calls
	sem := make(chan struct{}, concurrency)

	for _, chunk := range chunks {
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			out, err := summarizeText(ctx, llm, chunk.Content, perChunkTarget, handler, logger)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Chunk summarization failed, using placeholder",
					"index", chunk.OrderIndex, "error", err)
				out = chunkFailurePlaceholder(chunk.OrderIndex, err)
			}

			partials[chunk.OrderIndex] = out

			logger.Debug("Summarized chunk", "index", chunk.OrderIndex, "chars", len(out))

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return partials, nil
}

func chunkFailurePlaceholder(orderIndex int, err error) string {
	return fmt.Sprintf("[summary unavailable for section %d: %v]", orderIndex+1, err)
}

func summarizeText(
	ctx context.Context,
	llm LLM,
	text string,
	targetChars int,
	handler DocumentHandler,
	logger *slog.Logger,
) (string, error) {
	prompt, err := promptTemplate("summarize-text", summarizeTextPrompt, summarizeTextPromptData{
		MaxWords: wordBudget(targetChars),
		Text:     text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate summarize prompt: %w", err)
	}

	return completeWithRetry(ctx, llm, prompt, handler, logger)
}

// combine merges partial summaries into one draft. A single partial is
// returned unchanged without a model call; a failed merge call falls back to
// plain concatenation rather than an error.
func combine(
	ctx context.Context,
	llm LLM,
	partials []string,
	totalTarget int,
	handler DocumentHandler,
	logger *slog.Logger,
) (string, error) {
	if len(partials) == 1 {
		return partials[0], nil
	}

	joined := strings.Join(partials, partialSeparator)

	prompt, err := promptTemplate("merge-summaries", mergeSummariesPrompt, mergeSummariesPromptData{
		MaxWords:  wordBudget(totalTarget),
		Count:     len(partials),
		Summaries: joined,
	})
	if err != nil {
		logger.Warn("Failed to generate merge prompt, falling back to concatenation", "error", err)
		return joined, nil
	}

	out, err := completeWithRetry(ctx, llm, prompt, handler, logger)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("Merge call failed, falling back to concatenation", "error", err)
		return joined, nil
	}

	return out, nil
}

// enforceBounds applies the two size checks on a draft summary: the ceiling
// from the budget plan, and the absolute bound that a summary is never longer
// than the document it summarizes. The second check must hold unconditionally
// before returning to the caller.
func enforceBounds(
	ctx context.Context,
	llm LLM,
	draft, original string,
	budget Budget,
	handler DocumentHandler,
	logger *slog.Logger,
) (string, bool) {
	final := draft
	compressed := false

	if len(final) > budget.Ceiling {
		logger.Info("Summary exceeds ceiling, compressing", "chars", len(final), "ceiling", budget.Ceiling)
		final = compress(ctx, llm, final, budget.Ceiling, handler, logger)
		compressed = true
	}

	if len(final) > len(original) {
		logger.Warn("Summary longer than document, compressing again", "chars", len(final))
		final = compress(ctx, llm, final, len(original)/2, handler, logger)
		if len(final) > len(original) {
			final = truncate(final, len(original))
		}
		compressed = true
	}

	return final, compressed
}

// compress asks the model to shorten text to at most maxChars. Any failure,
// or a result still over the limit, degrades to mechanical truncation.
func compress(
	ctx context.Context,
	llm LLM,
	text string,
	maxChars int,
	handler DocumentHandler,
	logger *slog.Logger,
) string {
	prompt, err := promptTemplate("compress-summary", compressSummaryPrompt, compressSummaryPromptData{
		MaxWords: wordBudget(maxChars),
		Text:     text,
	})
	if err != nil {
		logger.Warn("Failed to generate compress prompt, truncating", "error", err)
		return truncate(text, maxChars)
	}

	out, err := completeWithRetry(ctx, llm, prompt, handler, logger)
	if err != nil {
		logger.Warn("Compression call failed, truncating", "maxChars", maxChars, "error", err)
		return truncate(text, maxChars)
	}
	if len(out) > maxChars {
		logger.Warn("Compressed summary still over limit, truncating", "chars", len(out), "maxChars", maxChars)
		return truncate(out, maxChars)
	}

	return out
}

// completeWithRetry issues one model call, retrying transient failures with
// exponential backoff up to the handler's retry count. Permanent failures and
// exhausted retries are returned to the caller, which applies its own fallback.
func completeWithRetry(
	ctx context.Context,
	llm LLM,
	prompt string,
	handler DocumentHandler,
	logger *slog.Logger,
) (string, error) {
	maxRetries := handler.MaxRetries()
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoffBase := handler.BackoffDuration()
	if backoffBase <= 0 {
		backoffBase = defaultBackoffDuration
	}

	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(backoffBase))

	var out string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := llm.Chat(ctx, []string{prompt})
		if err != nil {
			if IsTransient(err) {
				logger.Warn("Retrying transient model failure", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = strings.TrimSpace(resp)
		if resp == "" {
			return errors.New("empty model response")
		}
		out = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to call LLM: %w", err)
	}

	return out, nil
}

// truncate cuts text to at most maxChars bytes on a rune boundary, appending
// a marker when anything was removed.
func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	if maxChars <= len(truncationMarker) {
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut]
	}

	cut := maxChars - len(truncationMarker)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationMarker
}
