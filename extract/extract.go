// Package extract turns raw file bytes into plain text suitable for
// summarization. It supports UTF-8 text files, markdown, and PDF documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned when the file's extension is not recognized.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Text extracts plain text from raw file bytes. The format is chosen by the
// extension of name. Decode and parse failures are wrapped, unrecognized
// extensions return ErrUnsupportedFormat.
func Text(data []byte, name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".md", ".markdown":
		return plainText(data)
	case ".pdf":
		return pdfText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("failed to decode text: invalid UTF-8")
	}
	return string(data), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from pdf page %d: %w", pageNum, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}
