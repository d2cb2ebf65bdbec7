package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resumeats/analyzer/internal/models"
	"resumeats/analyzer/internal/repositories"
)

type ResultHandler struct {
	repo repositories.AnalysisRepository
}

func NewResultHandler(repo repositories.AnalysisRepository) *ResultHandler {
	return &ResultHandler{repo: repo}
}

// HandleGetResult handles GET /result/:id for previously completed requests.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	idParam := c.Params("id")
	recordID, err := uuid.Parse(idParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
		})
	}

	record, err := h.repo.FindByID(recordID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Analysis not found",
		})
	}

	response := models.ResultResponse{
		ID:     record.ID.String(),
		Mode:   record.Mode,
		Status: record.Status,
	}

	if record.Status == models.StatusCompleted && len(record.Result) > 0 {
		var result any
		if err := json.Unmarshal(record.Result, &result); err == nil {
			response.Result = result
		}
	}

	if record.Status == models.StatusFailed {
		response.FailedStage = record.FailedStage
		response.ErrorMessage = record.ErrorMessage
	}

	return c.JSON(response)
}
