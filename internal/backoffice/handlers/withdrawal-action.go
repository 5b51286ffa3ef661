package handlers

import (
	"net/http"
	"strconv"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WithdrawalActionHandler is the unified decision endpoint across all three
// families: POST /withdrawals/{id}/action.
type WithdrawalActionHandler struct {
	service DecisionService
	logger  *logging.ZapLogger
}

type WithdrawalActionInput struct {
	Action     string `json:"action"`
	SourceType string `json:"source_type"`
	Comment    string `json:"comment,omitempty"`
	TaskTitle  string `json:"task_title,omitempty"`
	CreateTask bool   `json:"create_task,omitempty"`
}

func NewWithdrawalActionHandler(service DecisionService, logger *logging.ZapLogger) *WithdrawalActionHandler {
	return &WithdrawalActionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WithdrawalActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	input, err := decodeJSON[WithdrawalActionInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "input decoding error", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}
	family, err := data.ParseFamily(input.SourceType)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidationError, "unknown source type")
		return
	}
	action := data.Action(input.Action)
	switch action {
	case data.ActionApprove, data.ActionReject, data.ActionBlock, data.ActionComment, data.ActionCreateTask:
	default:
		respondError(w, http.StatusBadRequest, codeValidationError, "unrecognized action")
		return
	}

	withdrawal, err := h.service.Decide(
		r.Context(),
		actor,
		service.WithdrawalRef{ID: withdrawalID, Family: family},
		service.DecisionRequest{
			Action:     action,
			Comment:    input.Comment,
			CreateTask: input.CreateTask,
			TaskTitle:  input.TaskTitle,
		},
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
