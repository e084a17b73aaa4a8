package handler

import (
	"fmt"
	"strings"

	godigest "github.com/soundprediction/go-digest"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown implements the godigest.DocumentHandler interface for markdown
// documents. It flattens the document's block structure (headings, paragraphs,
// list items, code blocks) into plain paragraphs with goldmark's AST, then
// delegates chunking and all tuning knobs to the embedded Default handler.
type Markdown struct {
	Default
}

// ChunksDocument flattens markdown into paragraph-separated plain text and
// chunks the result.
func (m Markdown) ChunksDocument(content string) ([]godigest.Chunk, error) {
	flattened, err := flattenMarkdown(content)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten markdown: %w", err)
	}

	return m.Default.ChunksDocument(flattened)
}

// flattenMarkdown walks the markdown AST and emits every block-level text
// element as one paragraph, in document order.
func flattenMarkdown(content string) (string, error) {
	source := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []string

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock, *ast.FencedCodeBlock, *ast.CodeBlock:
			if block := blockText(node, source); block != "" {
				blocks = append(blocks, block)
			}
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown ast: %w", err)
	}

	return strings.Join(blocks, "\n\n"), nil
}

func blockText(node ast.Node, source []byte) string {
	lines := node.Lines()

	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}

	return strings.TrimSpace(sb.String())
}
