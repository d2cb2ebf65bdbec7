package services

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"resumeats/analyzer/internal/models"
)

type PDFExtractor interface {
	Extract(data []byte) (*models.Document, error)
}

type pdfExtractor struct{}

func NewPDFExtractor() PDFExtractor {
	return &pdfExtractor{}
}

// Extract implements PDFExtractor. The byte stream is consumed in memory and
// never written to disk; the returned Document is owned by the request.
func (p *pdfExtractor) Extract(data []byte) (*models.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newPipelineError(StageExtracting, KindExtraction, "failed to open PDF", err)
	}

	var textBuilder strings.Builder
	totalPage := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is tolerable; an empty document is not.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := CleanText(textBuilder.String())
	if text == "" {
		return nil, newPipelineError(StageExtracting, KindExtraction, "no text content found in PDF", nil)
	}

	return &models.Document{
		RawText:   text,
		Pages:     totalPage,
		WordCount: len(strings.Fields(text)),
		CharCount: utf8.RuneCountInString(text),
	}, nil
}

// CleanText normalizes extracted text: trims each line and collapses blank
// lines so chunk boundaries are stable across extractions.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
