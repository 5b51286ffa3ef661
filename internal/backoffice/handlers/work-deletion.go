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

type WorkDeletionHandler struct {
	service WorkDeletionService
	logger  *logging.ZapLogger
}

type WorkDeletionService interface {
	Delete(ctx context.Context, actor service.Actor, workID int) error
}

func NewWorkDeletionHandler(service WorkDeletionService, logger *logging.ZapLogger) *WorkDeletionHandler {
	return &WorkDeletionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WorkDeletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}
	if actor.Role != data.RoleJunior {
		respondError(w, http.StatusForbidden, codeForbidden, "only the owning operator deletes work units")
		return
	}

	workID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || workID <= 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "invalid work id")
		return
	}

	if err := h.service.Delete(r.Context(), actor, workID); err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
