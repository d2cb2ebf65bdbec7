package services

import (
	"strings"

	"resumeats/analyzer/internal/models"
)

type TextChunker interface {
	Chunk(doc *models.Document, chunkSize int, overlap int) []models.Chunk
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// Chunk implements TextChunker. It slides a fixed window of chunkSize runes
// with step chunkSize-overlap over the document text, left to right. Offsets
// are rune offsets. Each rune of the document is covered by at least one
// chunk; consecutive chunks share exactly overlap runes. The same document
// and parameters always yield identical boundaries.
func (tc *textChunker) Chunk(doc *models.Document, chunkSize int, overlap int) []models.Chunk {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	runes := []rune(doc.RawText)
	sections := detectSections(doc.RawText)

	if len(runes) <= chunkSize {
		return []models.Chunk{{
			ID:          0,
			Text:        doc.RawText,
			Section:     sections.at(0),
			StartOffset: 0,
			EndOffset:   len(runes),
		}}
	}

	step := chunkSize - overlap

	var chunks []models.Chunk
	for start := 0; ; start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, models.Chunk{
			ID:          len(chunks),
			Text:        string(runes[start:end]),
			Section:     sections.at(start),
			StartOffset: start,
			EndOffset:   end,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// sectionSpan marks where a detected resume section starts, in rune offsets.
type sectionSpan struct {
	name  string
	start int
}

type sectionSpans []sectionSpan

func (s sectionSpans) at(offset int) string {
	name := "summary"
	for _, span := range s {
		if span.start > offset {
			break
		}
		name = span.name
	}
	return name
}

// Ordered so header matching is deterministic when a line mentions several
// section keywords.
var sectionKeywords = []struct {
	name     string
	keywords []string
}{
	{"summary", []string{"summary", "objective", "profile", "about"}},
	{"experience", []string{"experience", "work history", "employment", "professional experience"}},
	{"education", []string{"education", "academic", "degree"}},
	{"skills", []string{"skills", "technical skills", "competencies", "expertise"}},
	{"projects", []string{"projects", "portfolio"}},
	{"certifications", []string{"certifications", "certificates", "licenses"}},
}

// detectSections scans the document line by line for short header lines that
// name a common resume section. Text before the first header counts as the
// summary.
func detectSections(text string) sectionSpans {
	spans := sectionSpans{{name: "summary", start: 0}}

	offset := 0
	for _, line := range strings.Split(text, "\n") {
		lineLower := strings.ToLower(strings.TrimSpace(line))
		lineRunes := len([]rune(line))

		if lineLower != "" && len(strings.Fields(line)) < 5 {
			for _, section := range sectionKeywords {
				matched := false
				for _, keyword := range section.keywords {
					if strings.Contains(lineLower, keyword) {
						matched = true
						break
					}
				}
				if matched {
					spans = append(spans, sectionSpan{name: section.name, start: offset})
					break
				}
			}
		}

		offset += lineRunes + 1 // include the newline
	}

	return spans
}
