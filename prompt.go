package godigest

// avgCharsPerWord converts character budgets into the word budgets the model
// is prompted with. Six covers an average English word plus the separating space.
const avgCharsPerWord = 6

// minWordBudget keeps prompts from asking for absurdly short summaries.
const minWordBudget = 20

func wordBudget(chars int) int {
	words := chars / avgCharsPerWord
	if words < minWordBudget {
		words = minWordBudget
	}
	return words
}

type summarizeTextPromptData struct {
	MaxWords int
	Text     string
}

type mergeSummariesPromptData struct {
	MaxWords  int
	Count     int
	Summaries string
}

type compressSummaryPromptData struct {
	MaxWords int
	Text     string
}

const summarizeTextPrompt = `---Role---

You are a careful summarizer of long documents.

---Goal---

Summarize the following text in at most {{.MaxWords}} words. Extract only the
high-value content: key facts, arguments, decisions, and conclusions. Do not
add commentary, do not invent information, and do not exceed the word budget.
Respond with the summary text only.

---Text---

{{.Text}}`

const mergeSummariesPrompt = `---Role---

You are a careful summarizer of long documents.

---Goal---

Merge the following {{.Count}} partial summaries of consecutive sections of one
document into a single coherent summary of at most {{.MaxWords}} words. Preserve
the original section order, remove redundancy across sections, and keep only
the high-value content. Respond with the merged summary text only.

---Partial summaries---

{{.Summaries}}`

const compressSummaryPrompt = `---Role---

You are a careful summarizer of long documents.

---Goal---

Shorten the following summary to at most {{.MaxWords}} words while keeping the
most important content. Respond with the shortened summary text only.

---Summary---

{{.Text}}`
