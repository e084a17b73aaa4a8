package handler

import (
	"strings"
	"time"
	"unicode"

	godigest "github.com/soundprediction/go-digest"
)

// Default implements the godigest.DocumentHandler interface for plain text.
// It splits documents on paragraph boundaries first, falls back to sentence
// boundaries when a single paragraph exceeds the chunk limit, and hard-splits
// as a last resort, so no emitted chunk ever exceeds the configured size.
//
// All fields have sensible zero-value defaults. Sizes are measured by
// SizeEstimator; the default estimator counts plain characters, so ChunkMaxSize
// and SingleCallMaxSize are character counts unless a token estimator is set.
type Default struct {
	ChunkMaxSize       int
	ParagraphSeparator string
	SizeEstimator      godigest.Estimator

	SingleCallMaxSize   int
	SummaryTargetRatio  float64
	SummaryCeilingRatio float64

	Config DocumentConfig
}

const (
	defaultChunkMaxSize       = 8000
	defaultSingleCallMaxSize  = 30000
	defaultParagraphSeparator = "\n\n"
)

// ChunksDocument splits a document's content into an ordered sequence of
// bounded-size chunks. Paragraphs are accumulated greedily while the tentative
// chunk stays within the limit. Every chunk is trimmed; chunks that are empty
// after trimming are dropped. An empty or whitespace-only document yields an
// empty chunk sequence.
func (d Default) ChunksDocument(content string) ([]godigest.Chunk, error) {
	est := d.estimator()
	maxSize := d.chunkMaxSize()
	sep := d.separator()

	var parts []string
	var current string

	flush := func() {
		if strings.TrimSpace(current) != "" {
			parts = append(parts, current)
		}
		current = ""
	}

	for _, paragraph := range strings.Split(content, sep) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		tentative := paragraph
		if current != "" {
			tentative = current + sep + paragraph
		}
		if est.Estimate(tentative) <= maxSize {
			current = tentative
			continue
		}

		flush()

		if est.Estimate(paragraph) <= maxSize {
			current = paragraph
			continue
		}

		// The paragraph alone exceeds the limit.
		parts = append(parts, splitOversizeParagraph(paragraph, maxSize, est)...)
	}
	flush()

	chunks := make([]godigest.Chunk, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, godigest.Chunk{
			Content:    trimmed,
			Size:       est.Estimate(trimmed),
			OrderIndex: len(chunks),
		})
	}

	return chunks, nil
}

// SingleCallThreshold returns the content length at or below which the
// document is summarized with a single model call.
func (d Default) SingleCallThreshold() int {
	if d.SingleCallMaxSize > 0 {
		return d.SingleCallMaxSize
	}
	return defaultSingleCallMaxSize
}

// TargetRatio returns the configured summary-to-document size ratio.
func (d Default) TargetRatio() float64 {
	return d.SummaryTargetRatio
}

// CeilingRatio returns the configured hard upper bound ratio.
func (d Default) CeilingRatio() float64 {
	return d.SummaryCeilingRatio
}

// MaxRetries determines how many times a failed model call is retried.
func (d Default) MaxRetries() int {
	if d.Config.MaxRetries > 0 {
		return d.Config.MaxRetries
	}
	return defaultMaxRetries
}

// ConcurrencyCount determines the number of concurrent requests to the LLM.
func (d Default) ConcurrencyCount() int {
	if d.Config.ConcurrencyCount > 0 {
		return d.Config.ConcurrencyCount
	}
	return defaultConcurrencyCount
}

// BackoffDuration determines the base backoff duration between retries.
func (d Default) BackoffDuration() time.Duration {
	if d.Config.BackoffDuration > 0 {
		return d.Config.BackoffDuration
	}
	return defaultBackoffDuration
}

func (d Default) estimator() godigest.Estimator {
	if d.SizeEstimator != nil {
		return d.SizeEstimator
	}
	return godigest.HeuristicEstimator{CharsPerUnit: 1}
}

func (d Default) chunkMaxSize() int {
	if d.ChunkMaxSize > 0 {
		return d.ChunkMaxSize
	}
	return defaultChunkMaxSize
}

func (d Default) separator() string {
	if d.ParagraphSeparator != "" {
		return d.ParagraphSeparator
	}
	return defaultParagraphSeparator
}

// splitOversizeParagraph applies the same greedy accumulation to the
// paragraph's sentences, hard-splitting any sentence that alone exceeds
// the limit.
func splitOversizeParagraph(paragraph string, maxSize int, est godigest.Estimator) []string {
	var parts []string
	var current string

	flush := func() {
		if strings.TrimSpace(current) != "" {
			parts = append(parts, current)
		}
		current = ""
	}

	for _, sentence := range splitSentences(paragraph) {
		tentative := sentence
		if current != "" {
			tentative = current + " " + sentence
		}
		if est.Estimate(tentative) <= maxSize {
			current = tentative
			continue
		}

		flush()

		if est.Estimate(sentence) <= maxSize {
			current = sentence
			continue
		}

		parts = append(parts, hardSplit(sentence, maxSize, est)...)
	}
	flush()

	return parts
}

// splitSentences breaks text after runs of sentence punctuation followed by
// whitespace. This is an approximate boundary heuristic, not a sentence
// detector; abbreviations like "e.g." will split.
func splitSentences(text string) []string {
	runes := []rune(text)

	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isSentencePunct(runes[i]) {
			continue
		}
		// Consume punctuation runs such as "?!" or "...".
		j := i
		for j+1 < len(runes) && isSentencePunct(runes[j+1]) {
			j++
		}
		if j+1 >= len(runes) || !unicode.IsSpace(runes[j+1]) {
			i = j
			continue
		}

		sentences = append(sentences, string(runes[start:j+1]))

		k := j + 1
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		start = k
		i = k - 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	return sentences
}

func isSentencePunct(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// hardSplit cuts text at fixed rune offsets as a last resort, shrinking each
// window until its estimate fits. A window never shrinks below one rune, so a
// pathological estimator cannot loop forever.
func hardSplit(text string, maxSize int, est godigest.Estimator) []string {
	runes := []rune(text)

	var parts []string
	for len(runes) > 0 {
		window := maxSize
		if window < 1 {
			window = 1
		}
		if window > len(runes) {
			window = len(runes)
		}
		for window > 1 && est.Estimate(string(runes[:window])) > maxSize {
			window = window * 3 / 4
			if window < 1 {
				window = 1
			}
		}
		parts = append(parts, string(runes[:window]))
		runes = runes[window:]
	}

	return parts
}
