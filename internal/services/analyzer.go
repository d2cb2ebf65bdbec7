package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"resumeats/analyzer/internal/config"
	"resumeats/analyzer/internal/models"
	"resumeats/analyzer/internal/repositories"
)

// Completion temperatures: deterministic for scoring, looser for writing.
const (
	scoringTemperature  float32 = 0.3
	creativeTemperature float32 = 0.7
)

// Analysis is the outcome of one pipeline run: the request identity, the
// extracted document, the typed result, and the validator's repair report.
type Analysis struct {
	Context  models.RequestContext
	Document *models.Document
	Result   any
	Report   *NormalizationReport
}

// PipelineService wires extractor, chunker, indexer, retriever, prompt
// builder, completion client and validator into the operation modes. Every
// operation runs a single forward pass through the stage machine; a failure
// at any stage aborts the rest and surfaces the stage and error kind.
type PipelineService interface {
	Analyze(ctx context.Context, pdfData []byte, filename string, grounded bool) (*Analysis, error)
	Compare(ctx context.Context, pdfData []byte, filename, jobDescription string, grounded bool) (*Analysis, error)
	RewriteSuggestions(ctx context.Context, pdfData []byte, filename string) (*Analysis, error)
	ConvertFormat(ctx context.Context, pdfData []byte, filename string, format models.FormatType) (*Analysis, error)
}

type pipelineService struct {
	extractor PDFExtractor
	chunker   TextChunker
	indexer   EmbeddingIndexer
	retriever Retriever
	prompts   *PromptBuilder
	ai        AIClient
	validator *ResponseValidator
	repo      repositories.AnalysisRepository
	cfg       config.PipelineConfig
	retryCfg  config.RetryConfig
	logger    *zap.Logger
}

func NewPipelineService(
	extractor PDFExtractor,
	chunker TextChunker,
	indexer EmbeddingIndexer,
	retriever Retriever,
	ai AIClient,
	validator *ResponseValidator,
	repo repositories.AnalysisRepository,
	cfg config.PipelineConfig,
	retryCfg config.RetryConfig,
	logger *zap.Logger,
) PipelineService {
	return &pipelineService{
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		retriever: retriever,
		prompts:   NewPromptBuilder(),
		ai:        ai,
		validator: validator,
		repo:      repo,
		cfg:       cfg,
		retryCfg:  retryCfg,
		logger:    logger,
	}
}

// Analyze implements PipelineService.
func (s *pipelineService) Analyze(ctx context.Context, pdfData []byte, filename string, grounded bool) (*Analysis, error) {
	mode := models.ModeAnalyze
	if grounded {
		mode = models.ModeAnalyzeRAG
	}
	rctx := models.NewRequestContext(mode)
	log := s.requestLogger(rctx)
	s.begin(rctx, filename, log)

	doc, evidence, err := s.prepareEvidence(ctx, rctx, pdfData, RubricQueries(), log)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	prompt := s.prompts.BuildAnalysisPrompt(evidence, grounded)

	raw, err := s.complete(ctx, prompt, scoringTemperature)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	result, report, err := s.validator.ValidateAnalysis(raw)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	return s.done(rctx, doc, result, report, log)
}

// Compare implements PipelineService.
func (s *pipelineService) Compare(ctx context.Context, pdfData []byte, filename, jobDescription string, grounded bool) (*Analysis, error) {
	mode := models.ModeCompare
	if grounded {
		mode = models.ModeCompareRAG
	}
	rctx := models.NewRequestContext(mode)
	log := s.requestLogger(rctx)
	s.begin(rctx, filename, log)

	doc, evidence, err := s.prepareEvidence(ctx, rctx, pdfData, []string{jobDescription}, log)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	prompt := s.prompts.BuildComparisonPrompt(evidence, jobDescription, grounded)

	raw, err := s.complete(ctx, prompt, scoringTemperature)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	result, report, err := s.validator.ValidateComparison(raw)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	return s.done(rctx, doc, result, report, log)
}

// RewriteSuggestions implements PipelineService.
func (s *pipelineService) RewriteSuggestions(ctx context.Context, pdfData []byte, filename string) (*Analysis, error) {
	rctx := models.NewRequestContext(models.ModeRewrite)
	log := s.requestLogger(rctx)
	s.begin(rctx, filename, log)

	doc, err := s.extractor.Extract(pdfData)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}
	log.Info("extracted resume text", zap.Int("pages", doc.Pages), zap.Int("words", doc.WordCount))

	prompt := s.prompts.BuildRewritePrompt(doc.RawText)

	raw, err := s.complete(ctx, prompt, creativeTemperature)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	result, report, err := s.validator.ValidateRewrite(raw)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	return s.done(rctx, doc, result, report, log)
}

// ConvertFormat implements PipelineService.
func (s *pipelineService) ConvertFormat(ctx context.Context, pdfData []byte, filename string, format models.FormatType) (*Analysis, error) {
	rctx := models.NewRequestContext(models.ModeConvert)
	log := s.requestLogger(rctx)
	s.begin(rctx, filename, log)

	doc, err := s.extractor.Extract(pdfData)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}
	log.Info("extracted resume text", zap.Int("pages", doc.Pages), zap.Int("words", doc.WordCount))

	prompt := s.prompts.BuildConvertPrompt(doc.RawText, format)

	raw, err := s.complete(ctx, prompt, creativeTemperature)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	result, report, err := s.validator.ValidateConvert(raw)
	if err != nil {
		return nil, s.fail(rctx, err, log)
	}

	return s.done(rctx, doc, result, report, log)
}

// prepareEvidence runs the front of the pipeline: extract, and in grounded
// modes chunk, index and retrieve. In non-grounded modes the full document
// text is the evidence and the retrieval branch is skipped entirely.
func (s *pipelineService) prepareEvidence(ctx context.Context, rctx models.RequestContext, pdfData []byte, queries []string, log *zap.Logger) (*models.Document, string, error) {
	doc, err := s.extractor.Extract(pdfData)
	if err != nil {
		return nil, "", err
	}
	log.Info("extracted resume text",
		zap.Int("pages", doc.Pages),
		zap.Int("words", doc.WordCount),
		zap.Int("chars", doc.CharCount),
	)

	if !rctx.Mode.Grounded() {
		return doc, doc.RawText, nil
	}

	chunks := s.chunker.Chunk(doc, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	log.Info("chunked document", zap.Int("chunks", len(chunks)))

	docHash := contentHash(pdfData)
	index, err := s.indexer.BuildIndex(ctx, docHash, chunks)
	if err != nil {
		return doc, "", err
	}
	defer index.Destroy(ctx)
	log.Info("built vector index", zap.Int("indexed_chunks", index.Size()))

	evidence, err := s.retrieveEvidence(ctx, index, queries)
	if err != nil {
		return doc, "", err
	}
	log.Info("retrieved evidence", zap.Int("evidence_chunks", len(evidence)))

	return doc, FormatEvidence(evidence), nil
}

// retrieveEvidence runs one top-K retrieval per query and merges the results,
// deduplicating by chunk id and keeping the best score for each.
func (s *pipelineService) retrieveEvidence(ctx context.Context, index VectorIndex, queries []string) (models.RetrievalResult, error) {
	best := make(map[int]models.ScoredChunk)

	for _, query := range queries {
		results, err := s.retriever.Retrieve(ctx, index, query, s.cfg.TopK)
		if err != nil {
			return nil, err
		}
		for _, scored := range results {
			if prev, ok := best[scored.Chunk.ID]; !ok || scored.Score > prev.Score {
				best[scored.Chunk.ID] = scored
			}
		}
	}

	merged := make(models.RetrievalResult, 0, len(best))
	for _, scored := range best {
		merged = append(merged, scored)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Chunk.ID < merged[j].Chunk.ID
	})

	return merged, nil
}

// complete sends the composed prompt upstream with retry over transient
// failures. Each attempt carries the full prompt and its own timeout.
func (s *pipelineService) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return callWithRetry(ctx, s.retryCfg, func() (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
		defer cancel()
		return s.ai.GenerateText(attemptCtx, prompt, temperature)
	})
}

func (s *pipelineService) requestLogger(rctx models.RequestContext) *zap.Logger {
	return s.logger.With(
		zap.String("request_id", rctx.RequestID),
		zap.String("mode", string(rctx.Mode)),
	)
}

// begin records the request in the processing state before the pipeline
// starts, so GET /result can see in-flight requests. Persistence failures are
// logged but never fail the request itself.
func (s *pipelineService) begin(rctx models.RequestContext, filename string, log *zap.Logger) {
	if s.repo == nil {
		return
	}

	record := &models.AnalysisRecord{
		ID:       uuid.MustParse(rctx.RequestID),
		Mode:     rctx.Mode,
		Status:   models.StatusProcessing,
		Filename: filename,
	}
	if err := s.repo.Create(record); err != nil {
		log.Warn("failed to persist analysis record", zap.Error(err))
	}
}

// done marks the record completed and assembles the outcome.
func (s *pipelineService) done(rctx models.RequestContext, doc *models.Document, result any, report *NormalizationReport, log *zap.Logger) (*Analysis, error) {
	if s.repo != nil {
		data, err := json.Marshal(result)
		if err != nil {
			log.Warn("failed to encode result for persistence", zap.Error(err))
		} else if err := s.repo.UpdateResult(uuid.MustParse(rctx.RequestID), datatypes.JSON(data), doc.Pages, doc.WordCount); err != nil {
			log.Warn("failed to update analysis record", zap.Error(err))
		}
	}

	log.Info("pipeline completed")
	return &Analysis{
		Context:  rctx,
		Document: doc,
		Result:   result,
		Report:   report,
	}, nil
}

// fail maps any stage error into the failed state: record it, log it, and
// hand the pipeline error to the caller verbatim.
func (s *pipelineService) fail(rctx models.RequestContext, err error, log *zap.Logger) error {
	pe := AsPipelineError(StageCompleting, err)

	if s.repo != nil {
		if updateErr := s.repo.UpdateError(uuid.MustParse(rctx.RequestID), string(pe.Stage), pe.Error()); updateErr != nil {
			log.Warn("failed to update failed analysis record", zap.Error(updateErr))
		}
	}

	log.Error("pipeline failed",
		zap.String("stage", string(pe.Stage)),
		zap.String("kind", string(pe.Kind)),
		zap.Error(pe),
	)
	return pe
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
