package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/procurehub/internal/pipeline"
	"github.com/abgdnv/procurehub/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Pipeline interface {
	Board() []pipeline.Column
	MoveDealStage(ctx context.Context, dealID string, stage pipeline.Stage) (pipeline.Deal, error)
}

type PipelineHandler struct {
	pipeline Pipeline
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPipelineHandler(p Pipeline, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipeline: p,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "rest"),
	}
}

type moveStageRequest struct {
	Stage string `json:"stage" validate:"required,oneof=lead qualified proposal negotiation closed-won closed-lost"`
}

func (h *PipelineHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/deals/pipeline", h.Board)
	r.Put("/api/v1/deals/{id}/stage", h.MoveStage)
}

func (h *PipelineHandler) Board(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.pipeline.Board())
}

// MoveStage moves a deal to the stage named in the body.
func (h *PipelineHandler) MoveStage(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req moveStageRequest
	if !web.DecodeJSON(w, r, h.logger, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := web.ValidationFields(validationErrors)
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", fields)
			web.RespondValidationErrors(w, h.logger, fields)
			return
		}
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	moved, err := h.pipeline.MoveDealStage(r.Context(), id, pipeline.Stage(req.Stage))
	switch {
	case errors.Is(err, pipeline.ErrDealNotFound):
		web.RespondError(w, h.logger, http.StatusNotFound, "Deal with ID "+id+" not found")
	case errors.Is(err, pipeline.ErrInvalidStage):
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.ErrorContext(r.Context(), "Error moving deal", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to move deal")
	default:
		web.RespondJSON(w, h.logger, http.StatusOK, moved)
	}
}
