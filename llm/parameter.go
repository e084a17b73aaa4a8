package llm

// Parameters contains the optional sampling parameters for LLM services.
//
// Not all parameters are supported by all providers; each client maps the
// fields its API understands and ignores the rest. Nil fields are omitted
// from requests so provider defaults apply.
type Parameters struct {
	Temperature       *float32
	TopP              *float32
	TopK              *int
	FrequencyPenalty  *float32
	PresencePenalty   *float32
	RepetitionPenalty *float32
	MinP              *float32
	TopA              *float32
	Seed              *int
	MaxTokens         *int
	LogitBias         map[string]int
	Logprobs          *bool
	TopLogprobs       *int
	Stop              []string
	IncludeReasoning  *bool
}
