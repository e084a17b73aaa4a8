package godigest

import "github.com/soundprediction/go-digest/internal"

// Estimator approximates the size of a text span in model units without
// invoking the model. Implementations must be deterministic: the same input
// always yields the same estimate.
type Estimator interface {
	Estimate(text string) int
}

// HeuristicEstimator estimates size using a characters-per-unit ratio.
// This is a rough approximation, good enough for chunk sizing thresholds.
// It never fails.
type HeuristicEstimator struct {
	CharsPerUnit int // defaults to 4 if zero
}

func (e HeuristicEstimator) ratio() int {
	if e.CharsPerUnit <= 0 {
		return 4
	}
	return e.CharsPerUnit
}

// Estimate returns the estimated unit count for text.
func (e HeuristicEstimator) Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	units := len(text) / e.ratio()
	if units == 0 {
		units = 1
	}
	return units
}

// TokenEstimator counts tokens precisely with the GPT-4o tiktoken encoding.
// When encoding fails it degrades silently to the heuristic fallback.
type TokenEstimator struct {
	Fallback HeuristicEstimator
}

// Estimate returns the token count for text, or the heuristic estimate when
// the tokenizer is unavailable.
func (e TokenEstimator) Estimate(text string) int {
	count, err := internal.CountTokens(text)
	if err != nil {
		return e.Fallback.Estimate(text)
	}
	return count
}
