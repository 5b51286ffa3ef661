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

type WithdrawalCreationHandler struct {
	service WithdrawalCreationService
	logger  *logging.ZapLogger
}

type WithdrawalCreationService interface {
	Create(
		ctx context.Context,
		actor service.Actor,
		workID int,
		family data.Family,
		amount decimal.Decimal,
		currency string,
	) (data.Withdrawal, error)
}

type WithdrawalCreationInput struct {
	SourceType string          `json:"source_type,omitempty"`
	Currency   string          `json:"currency,omitempty"`
	Amount     decimal.Decimal `json:"withdrawal_amount"`
	WorkID     int             `json:"work_id"`
}

func NewWithdrawalCreationHandler(
	service WithdrawalCreationService,
	logger *logging.ZapLogger,
) *WithdrawalCreationHandler {
	return &WithdrawalCreationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WithdrawalCreationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}
	if actor.Role != data.RoleJunior {
		respondError(w, http.StatusForbidden, codeForbidden, "only operators create withdrawals")
		return
	}

	input, err := decodeJSON[WithdrawalCreationInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "input decoding error", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}
	if input.SourceType == "" {
		input.SourceType = string(data.FamilyRegular)
	}
	family, err := data.ParseFamily(input.SourceType)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidationError, "unknown source type")
		return
	}

	withdrawal, err := h.service.Create(r.Context(), actor, input.WorkID, family, input.Amount, input.Currency)
	if err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	_ = writeJSON(w, http.StatusCreated, struct {
		Withdrawal withdrawalResponse `json:"withdrawal"`
		Success    bool               `json:"success"`
	}{Success: true, Withdrawal: toWithdrawalResponse(withdrawal, nil)})
}
