package llm

import (
	"net/http"
	"regexp"
	"strings"

	godigest "github.com/soundprediction/go-digest"
)

// RemoveThinkTags removes <think> tags and everything in between them from a string.
func RemoveThinkTags(input string) string {
	re := regexp.MustCompile(`(?s)<think>.*?</think>`)
	return re.ReplaceAllString(input, "")
}

// transientMarkers are error message fragments providers use to signal
// retryable overload conditions.
var transientMarkers = []string{
	"429",
	"rate limit",
	"rate_limit",
	"overloaded",
	"server busy",
	"temporarily unavailable",
	"timeout",
	"deadline exceeded",
}

// classifyErr wraps err in godigest.TransientError when it carries a retryable
// signal, either an HTTP status providers use for overload or a matching
// message fragment. Every other error is returned unchanged and treated as
// permanent by the pipeline.
func classifyErr(err error, statusCode int) error {
	if err == nil {
		return nil
	}
	if transientStatus(statusCode) {
		return &godigest.TransientError{Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return &godigest.TransientError{Err: err}
		}
	}

	return err
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // anthropic overloaded_error
		return true
	}
	return false
}
