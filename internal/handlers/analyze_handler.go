package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"resumeats/analyzer/internal/models"
	"resumeats/analyzer/internal/services"
)

type AnalyzeHandler struct {
	pipeline    services.PipelineService
	validate    *validator.Validate
	maxFileSize int64
}

func NewAnalyzeHandler(pipeline services.PipelineService, maxFileSize int64) *AnalyzeHandler {
	return &AnalyzeHandler{
		pipeline:    pipeline,
		validate:    validator.New(),
		maxFileSize: maxFileSize,
	}
}

type compareRequest struct {
	JobDescription string `validate:"required,min=20"`
}

// HandleAnalyze handles POST /analyze. ?grounded=true selects the
// retrieval-augmented path.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	data, filename, err := h.readResume(c)
	if err != nil {
		return err
	}

	grounded := c.QueryBool("grounded")

	analysis, err := h.pipeline.Analyze(c.Context(), data, filename, grounded)
	if err != nil {
		return mapPipelineError(c, err)
	}

	return c.JSON(buildResponse(analysis, filename))
}

// HandleCompare handles POST /compare with a job_description form field.
func (h *AnalyzeHandler) HandleCompare(c *fiber.Ctx) error {
	data, filename, err := h.readResume(c)
	if err != nil {
		return err
	}

	req := compareRequest{JobDescription: c.FormValue("job_description")}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description is required (min 20 characters)",
		})
	}

	grounded := c.QueryBool("grounded")

	analysis, err := h.pipeline.Compare(c.Context(), data, filename, req.JobDescription, grounded)
	if err != nil {
		return mapPipelineError(c, err)
	}

	return c.JSON(buildResponse(analysis, filename))
}

// HandleRewrite handles POST /rewrite.
func (h *AnalyzeHandler) HandleRewrite(c *fiber.Ctx) error {
	data, filename, err := h.readResume(c)
	if err != nil {
		return err
	}

	analysis, err := h.pipeline.RewriteSuggestions(c.Context(), data, filename)
	if err != nil {
		return mapPipelineError(c, err)
	}

	return c.JSON(buildResponse(analysis, filename))
}

// HandleConvert handles POST /convert with a format_type form field.
func (h *AnalyzeHandler) HandleConvert(c *fiber.Ctx) error {
	data, filename, err := h.readResume(c)
	if err != nil {
		return err
	}

	format := models.FormatType(c.FormValue("format_type"))
	if !format.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("format_type must be one of %v", models.FormatTypes),
		})
	}

	analysis, err := h.pipeline.ConvertFormat(c.Context(), data, filename, format)
	if err != nil {
		return mapPipelineError(c, err)
	}

	return c.JSON(buildResponse(analysis, filename))
}

// readResume pulls the uploaded PDF into memory. The bytes live only for
// this request; nothing is written to disk.
func (h *AnalyzeHandler) readResume(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("resume")
	if err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume file is required (multipart field 'resume')",
		})
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "only PDF files are accepted",
		})
	}

	if fileHeader.Size > h.maxFileSize {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	return data, fileHeader.Filename, nil
}

func buildResponse(analysis *services.Analysis, filename string) models.AnalyzeResponse {
	preview := analysis.Document.RawText
	if len(preview) > 500 {
		preview = preview[:500]
	}

	return models.AnalyzeResponse{
		RequestID:    analysis.Context.RequestID,
		Mode:         analysis.Context.Mode,
		Filename:     filename,
		BasicMetrics: analysis.Document.Metrics(),
		TextPreview:  preview,
		Result:       analysis.Result,
	}
}

// mapPipelineError translates the pipeline's error taxonomy to HTTP statuses.
// The (stage, kind, detail) triple is passed through so the caller can see
// where the request died.
func mapPipelineError(c *fiber.Ctx, err error) error {
	var pe *services.PipelineError
	if !errors.As(err, &pe) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status := fiber.StatusInternalServerError
	switch pe.Kind {
	case services.KindExtraction:
		status = fiber.StatusBadRequest
	case services.KindUnavailable, services.KindRateLimited, services.KindIndexBuild:
		status = fiber.StatusServiceUnavailable
	case services.KindInvalidResponse, services.KindValidation:
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{
		"error":  pe.Detail,
		"stage":  string(pe.Stage),
		"kind":   string(pe.Kind),
		"detail": pe.Error(),
	})
}
