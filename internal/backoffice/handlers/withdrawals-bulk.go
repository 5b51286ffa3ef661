package handlers

import (
	"context"
	"net/http"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"go.uber.org/zap"
)

type WithdrawalsBulkHandler struct {
	service WithdrawalsBulkService
	logger  *logging.ZapLogger
}

type WithdrawalsBulkService interface {
	BulkDecide(
		ctx context.Context,
		actor service.Actor,
		items []service.WithdrawalRef,
		action data.Action,
		comment string,
	) (service.BatchResult, error)
}

type BulkItemInput struct {
	SourceType string `json:"source_type"`
	ID         int    `json:"id"`
}

type WithdrawalsBulkInput struct {
	Action  string          `json:"action"`
	Comment string          `json:"comment,omitempty"`
	Items   []BulkItemInput `json:"items"`
}

var bulkActions = map[string]data.Action{
	"bulk_approve": data.ActionApprove,
	"bulk_reject":  data.ActionReject,
}

func NewWithdrawalsBulkHandler(service WithdrawalsBulkService, logger *logging.ZapLogger) *WithdrawalsBulkHandler {
	return &WithdrawalsBulkHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WithdrawalsBulkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	actor, err := actorFromCtx(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to recover actor", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
		return
	}
	if actor.Role != data.RoleManager && actor.Role != data.RoleAdmin {
		respondError(w, http.StatusForbidden, codeForbidden, "bulk review is manager-only")
		return
	}

	input, err := decodeJSON[WithdrawalsBulkInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "input decoding error", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}
	action, ok := bulkActions[input.Action]
	if !ok {
		respondError(w, http.StatusBadRequest, codeValidationError, "action must be bulk_approve or bulk_reject")
		return
	}
	if len(input.Items) == 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "items are required")
		return
	}

	items := make([]service.WithdrawalRef, len(input.Items))
	for i, item := range input.Items {
		family, err := data.ParseFamily(item.SourceType)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeValidationError, "unknown source type")
			return
		}
		items[i] = service.WithdrawalRef{ID: item.ID, Family: family}
	}

	result, err := h.service.BulkDecide(r.Context(), actor, items, action, input.Comment)
	if err != nil {
		respondServiceError(r.Context(), w, h.logger, err)
		return
	}

	updatedByFamily := make(map[string]int, len(result.Updated))
	for family, count := range result.Updated {
		updatedByFamily[string(family)] = count
	}
	skipped := make([]BulkItemInput, len(result.Skipped))
	for i, ref := range result.Skipped {
		skipped[i] = BulkItemInput{ID: ref.ID, SourceType: string(ref.Family)}
	}
	_ = writeJSON(w, http.StatusOK, struct {
		UpdatedByFamily map[string]int  `json:"updated_by_family"`
		Skipped         []BulkItemInput `json:"skipped"`
		UpdatedCount    int             `json:"updated_count"`
		Success         bool            `json:"success"`
	}{
		Success:         true,
		UpdatedCount:    result.UpdatedTotal(),
		UpdatedByFamily: updatedByFamily,
		Skipped:         skipped,
	})
}
