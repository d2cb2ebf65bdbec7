package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeats/analyzer/internal/models"
	"resumeats/analyzer/internal/services"
)

// stubPipeline returns a canned analysis or error for every operation.
type stubPipeline struct {
	analysis *services.Analysis
	err      error
}

func (s *stubPipeline) Analyze(ctx context.Context, pdfData []byte, filename string, grounded bool) (*services.Analysis, error) {
	return s.analysis, s.err
}

func (s *stubPipeline) Compare(ctx context.Context, pdfData []byte, filename, jobDescription string, grounded bool) (*services.Analysis, error) {
	return s.analysis, s.err
}

func (s *stubPipeline) RewriteSuggestions(ctx context.Context, pdfData []byte, filename string) (*services.Analysis, error) {
	return s.analysis, s.err
}

func (s *stubPipeline) ConvertFormat(ctx context.Context, pdfData []byte, filename string, format models.FormatType) (*services.Analysis, error) {
	return s.analysis, s.err
}

func completedAnalysis(mode models.Mode) *services.Analysis {
	return &services.Analysis{
		Context: models.RequestContext{RequestID: "11111111-2222-3333-4444-555555555555", Mode: mode},
		Document: &models.Document{
			RawText:   "Summary\nBackend engineer with Go experience.",
			Pages:     1,
			WordCount: 6,
			CharCount: 44,
		},
		Result: &models.AnalysisResult{ATSScore: 78},
		Report: &services.NormalizationReport{},
	}
}

func newTestApp(pipeline services.PipelineService) *fiber.App {
	app := fiber.New()
	handler := NewAnalyzeHandler(pipeline, 1024*1024)

	app.Post("/analyze", handler.HandleAnalyze)
	app.Post("/compare", handler.HandleCompare)
	app.Post("/rewrite", handler.HandleRewrite)
	app.Post("/convert", handler.HandleConvert)
	return app
}

// multipartRequest builds a request with a resume file plus extra form fields.
func multipartRequest(t *testing.T, target string, withFile bool, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if withFile {
		part, err := writer.CreateFormFile("resume", "resume.pdf")
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-stub-bytes"))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestHandleAnalyze(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		app := newTestApp(&stubPipeline{analysis: completedAnalysis(models.ModeAnalyze)})

		resp, err := app.Test(multipartRequest(t, "/analyze", true, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "11111111-2222-3333-4444-555555555555", body["request_id"])
		assert.Equal(t, "resume.pdf", body["filename"])
		assert.NotEmpty(t, body["text_preview"])
		assert.NotNil(t, body["result"])
	})

	t.Run("missing resume file", func(t *testing.T) {
		app := newTestApp(&stubPipeline{analysis: completedAnalysis(models.ModeAnalyze)})

		resp, err := app.Test(multipartRequest(t, "/analyze", false, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-pdf upload", func(t *testing.T) {
		app := newTestApp(&stubPipeline{analysis: completedAnalysis(models.ModeAnalyze)})

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("resume", "resume.docx")
		require.NoError(t, err)
		_, err = part.Write([]byte("not a pdf"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleCompareRequiresJobDescription(t *testing.T) {
	app := newTestApp(&stubPipeline{analysis: completedAnalysis(models.ModeCompare)})

	tests := []struct {
		name       string
		fields     map[string]string
		wantStatus int
	}{
		{"missing", nil, http.StatusBadRequest},
		{"too short", map[string]string{"job_description": "short"}, http.StatusBadRequest},
		{"valid", map[string]string{"job_description": "Senior Go engineer with Kubernetes experience required."}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(multipartRequest(t, "/compare", true, tt.fields))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandleConvertValidatesFormatType(t *testing.T) {
	app := newTestApp(&stubPipeline{analysis: completedAnalysis(models.ModeConvert)})

	tests := []struct {
		name       string
		format     string
		wantStatus int
	}{
		{"missing", "", http.StatusBadRequest},
		{"unknown", "pirate-speak", http.StatusBadRequest},
		{"valid", "hr-friendly", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{}
			if tt.format != "" {
				fields["format_type"] = tt.format
			}

			resp, err := app.Test(multipartRequest(t, "/convert", true, fields))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestPipelineErrorsMapToStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        *services.PipelineError
		wantStatus int
	}{
		{
			"extraction failure is a client error",
			&services.PipelineError{Stage: services.StageExtracting, Kind: services.KindExtraction, Detail: "no text content found in PDF"},
			http.StatusBadRequest,
		},
		{
			"upstream unavailable",
			&services.PipelineError{Stage: services.StageCompleting, Kind: services.KindUnavailable, Detail: "backend down"},
			http.StatusServiceUnavailable,
		},
		{
			"rate limited",
			&services.PipelineError{Stage: services.StageCompleting, Kind: services.KindRateLimited, Detail: "quota exceeded"},
			http.StatusServiceUnavailable,
		},
		{
			"index build failure",
			&services.PipelineError{Stage: services.StageIndexing, Kind: services.KindIndexBuild, Detail: "chunk embedding failed"},
			http.StatusServiceUnavailable,
		},
		{
			"malformed model output",
			&services.PipelineError{Stage: services.StageValidating, Kind: services.KindValidation, Detail: "missing required fields: summary"},
			http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubPipeline{err: tt.err})

			resp, err := app.Test(multipartRequest(t, "/analyze", true, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, string(tt.err.Stage), body["stage"])
			assert.Equal(t, string(tt.err.Kind), body["kind"])
			assert.Equal(t, tt.err.Detail, body["error"])
		})
	}
}
