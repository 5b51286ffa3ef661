package handlers

import (
	"context"
	"net/http"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WorkCreationHandler struct {
	service WorkCreationService
	logger  *logging.ZapLogger
}

type WorkCreationService interface {
	Create(ctx context.Context, actor service.Actor, req service.CreateWorkRequest) (data.WorkUnit, error)
}

type WorkCreationInput struct {
	Casino     string          `json:"casino"`
	CardNumber string          `json:"card_number"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
}

func NewWorkCreationHandler(service WorkCreationService, logger *logging.ZapLogger) *WorkCreationHandler {
	return &WorkCreationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WorkCreationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}
	if actor.Role != data.RoleJunior {
		respondError(w, http.StatusForbidden, codeForbidden, "only operators create work units")
		return
	}

	input, err := decodeJSON[WorkCreationInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "input decoding error", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}

	work, err := h.service.Create(r.Context(), actor, service.CreateWorkRequest{
		Casino:     input.Casino,
		CardNumber: input.CardNumber,
		Amount:     input.Amount,
		Currency:   input.Currency,
	})
	if err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	_ = writeJSON(w, http.StatusCreated, struct {
		Work    workResponse `json:"work"`
		Success bool         `json:"success"`
	}{Success: true, Work: toWorkResponse(work)})
}
