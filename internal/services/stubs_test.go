package services

import (
	"context"
	"strings"
	"sync"

	"resumeats/analyzer/internal/models"
)

// stubAI is a deterministic in-process stand-in for the model provider.
type stubAI struct {
	mu            sync.Mutex
	embedFn       func(text string) ([]float32, error)
	generateFn    func(prompt string, call int) (string, error)
	embedCalls    int
	generateCalls int
}

func (s *stubAI) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.embedCalls++
	s.mu.Unlock()

	if s.embedFn != nil {
		return s.embedFn(text)
	}
	return stubEmbedding(text), nil
}

func (s *stubAI) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	s.mu.Lock()
	s.generateCalls++
	call := s.generateCalls
	s.mu.Unlock()

	if s.generateFn != nil {
		return s.generateFn(prompt, call)
	}
	return "{}", nil
}

// stubEmbedding maps text to a fixed 8-dimension vector. Identical texts get
// identical vectors, so cosine similarity of a text with itself is 1.
func stubEmbedding(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(int(r)%31) * float32((i%7)+1)
	}
	return v
}

// stubExtractor bypasses PDF parsing and serves fixed plain text.
type stubExtractor struct {
	text string
}

func (s *stubExtractor) Extract(data []byte) (*models.Document, error) {
	text := CleanText(s.text)
	return &models.Document{
		RawText:   text,
		Pages:     1,
		WordCount: len(strings.Fields(text)),
		CharCount: len([]rune(text)),
	}, nil
}

const validAnalysisJSON = `{
  "ats_score": 78,
  "ats_score_breakdown": {
    "keywords": 80,
    "formatting": 70,
    "content_quality": 75,
    "experience_relevance": 80,
    "skills_match": 72
  },
  "pros": ["Clear structure", "Strong action verbs", "Quantified results", "Relevant skills listed", "Consistent dates"],
  "cons": ["No summary section", "Missing certifications", "Dense paragraphs", "Few keywords", "No portfolio link"],
  "suggestions": ["Add a summary", "List certifications", "Shorten bullets", "Add keywords", "Link portfolio", "Tighten formatting"],
  "top_skills": ["Go", "PostgreSQL", "Docker"],
  "missing_keywords": ["Kubernetes", "Terraform"],
  "industry_match": "Backend Engineering",
  "candidate_level": "Mid-Level",
  "summary": "A solid mid-level backend resume with room for keyword optimization."
}`

const validComparisonJSON = `{
  "overall_match_score": 64,
  "skill_match_percentage": 58,
  "matched_skills": ["Go", "PostgreSQL"],
  "missing_skills": ["Kubernetes"],
  "matched_keywords": ["microservices"],
  "missing_keywords": ["Kubernetes", "Helm"],
  "good_to_have_keywords": ["gRPC"],
  "strengths_for_role": ["Strong backend fundamentals"],
  "gaps_for_role": ["No container orchestration experience"],
  "recommendations": ["Gain hands-on Kubernetes experience"],
  "experience_match": "Experience level fits the mid-level requirement.",
  "education_match": "Degree requirement satisfied.",
  "ats_compatibility": "Resume parses cleanly for this role.",
  "role_fit_summary": "Decent fit with a clear orchestration gap."
}`
