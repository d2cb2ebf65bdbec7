package models

// Document is the plain-text view of an uploaded resume, produced once by the
// extractor and immutable afterwards. It lives only for the duration of the
// request that uploaded it.
type Document struct {
	RawText   string `json:"raw_text"`
	Pages     int    `json:"pages"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
}

// BasicMetrics is the metrics block returned alongside every result.
type BasicMetrics struct {
	WordCount      int `json:"word_count"`
	PageCount      int `json:"page_count"`
	CharacterCount int `json:"character_count"`
}

func (d *Document) Metrics() BasicMetrics {
	return BasicMetrics{
		WordCount:      d.WordCount,
		PageCount:      d.Pages,
		CharacterCount: d.CharCount,
	}
}

// Chunk is a bounded, offset-tracked substring of a document. IDs are 0-based
// and follow document order. Offsets are rune offsets into Document.RawText.
type Chunk struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	Section     string `json:"section"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// ScoredChunk pairs a chunk with its similarity score for one query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is an ordered top-K retrieval outcome, sorted by descending
// score with ties broken by lower chunk id.
type RetrievalResult []ScoredChunk
