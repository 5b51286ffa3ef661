package handlers

import (
	"context"
	"net/http"
	"strconv"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WorkStatusHandler struct {
	service WorkStatusService
	logger  *logging.ZapLogger
}

type WorkStatusService interface {
	UpdateStatus(ctx context.Context, actor service.Actor, workID int, next data.WorkStatus) (data.WorkUnit, error)
}

type WorkStatusInput struct {
	Status string `json:"status"`
}

func NewWorkStatusHandler(service WorkStatusService, logger *logging.ZapLogger) *WorkStatusHandler {
	return &WorkStatusHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WorkStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}
	if actor.Role != data.RoleJunior {
		respondError(w, http.StatusForbidden, codeForbidden, "only the owning operator changes work status")
		return
	}

	workID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || workID <= 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "invalid work id")
		return
	}

	input, err := decodeJSON[WorkStatusInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "input decoding error", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}
	status, err := data.ParseWorkStatus(input.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidationError, "unknown work status")
		return
	}

	work, err := h.service.UpdateStatus(r.Context(), actor, workID, status)
	if err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, struct {
		Work    workResponse `json:"work"`
		Success bool         `json:"success"`
	}{Success: true, Work: toWorkResponse(work)})
}
