package handlers

import (
	"context"
	"net/http"
	"strconv"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"go.uber.org/zap"
)

type WithdrawalsGettingHandler struct {
	service WithdrawalsGettingService
	logger  *logging.ZapLogger
}

type WithdrawalsGettingService interface {
	List(ctx context.Context, actor service.Actor, query service.ListQuery) ([]service.WithdrawalView, error)
}

func NewWithdrawalsGettingHandler(
	service WithdrawalsGettingService,
	logger *logging.ZapLogger,
) *WithdrawalsGettingHandler {
	return &WithdrawalsGettingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WithdrawalsGettingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}

	query := service.ListQuery{}
	params := r.URL.Query()
	if raw := params.Get("source_type"); raw != "" {
		family, err := data.ParseFamily(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeValidationError, "unknown source type")
			return
		}
		query.Families = []data.Family{family}
	}
	if raw := params.Get("status"); raw != "" {
		status := data.Status(raw)
		query.Status = &status
	}
	if raw := params.Get("operator_id"); raw != "" {
		operatorID, err := strconv.Atoi(raw)
		if err != nil || operatorID <= 0 {
			respondError(w, http.StatusBadRequest, codeValidationError, "invalid operator id")
			return
		}
		query.OperatorID = &operatorID
	}

	views, err := h.service.List(r.Context(), actor, query)
	if err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	withdrawals := make([]withdrawalResponse, len(views))
	for i, view := range views {
		withdrawals[i] = toWithdrawalResponse(view.Withdrawal, view.Reviews)
	}
	_ = writeJSON(w, http.StatusOK, struct {
		Withdrawals []withdrawalResponse `json:"withdrawals"`
		Success     bool                 `json:"success"`
	}{Success: true, Withdrawals: withdrawals})
}
