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

type DecisionService interface {
	Decide(
		ctx context.Context,
		actor service.Actor,
		ref service.WithdrawalRef,
		req service.DecisionRequest,
	) (data.Withdrawal, error)
}

// WithdrawalDecisionHandler is the approve/reject shorthand for the regular
// family: PATCH /withdrawals/{id}.
type WithdrawalDecisionHandler struct {
	service DecisionService
	logger  *logging.ZapLogger
}

type WithdrawalDecisionInput struct {
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

func NewWithdrawalDecisionHandler(service DecisionService, logger *logging.ZapLogger) *WithdrawalDecisionHandler {
	return &WithdrawalDecisionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WithdrawalDecisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}

	withdrawalID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || withdrawalID <= 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "invalid withdrawal id")
		return
	}

	input, err := decodeJSON[WithdrawalDecisionInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "input decoding error", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}
	action := data.Action(input.Action)
	if action != data.ActionApprove && action != data.ActionReject {
		respondError(w, http.StatusBadRequest, codeValidationError, "action must be approve or reject")
		return
	}

	withdrawal, err := h.service.Decide(
		r.Context(),
		actor,
		service.WithdrawalRef{ID: withdrawalID, Family: data.FamilyRegular},
		service.DecisionRequest{Action: action, Comment: input.Comment},
	)
	if err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, struct {
		Withdrawal withdrawalResponse `json:"withdrawal"`
		Success    bool               `json:"success"`
	}{Success: true, Withdrawal: toWithdrawalResponse(withdrawal, nil)})
}
