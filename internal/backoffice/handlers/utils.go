package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/jwtfactory"
	"backoffice/pkg/logging"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

const (
	codeValidationError = "validation_error"
	codeInvalidState    = "invalid_state"
	codeConflict        = "conflict"
	codeForbidden       = "forbidden"
	codeNotFound        = "not_found"
	codeUnexpected      = "unexpected"
)

func closeBody(ctx context.Context, body io.ReadCloser, logger *logging.ZapLogger) {
	err := body.Close()
	if err != nil {
		logger.ErrorCtx(ctx, "failed to close body", zap.Error(err))
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&out)
	return out, err
}

var errInvalidClaims = errors.New("invalid token claims")

func actorFromCtx(ctx context.Context) (service.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return service.Actor{}, err //nolint:wrapcheck // unnecessary
	}
	idStr, ok := claims[jwtfactory.UserIDClaimName].(string)
	if !ok {
		return service.Actor{}, errInvalidClaims
	}
	userID, err := strconv.Atoi(idStr)
	if err != nil {
		return service.Actor{}, errInvalidClaims
	}
	roleStr, ok := claims[jwtfactory.RoleClaimName].(string)
	if !ok {
		return service.Actor{}, errInvalidClaims
	}
	role, err := data.ParseRole(roleStr)
	if err != nil {
		return service.Actor{}, errInvalidClaims
	}
	return service.Actor{ID: userID, Role: role}, nil
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	res, err := json.Marshal(v)
	if err != nil {
		return err //nolint:wrapcheck // unnecessary
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(res)
	return err //nolint:wrapcheck // unnecessary
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	_ = writeJSON(w, status, errorResponse{Error: code, Details: details})
}

// respondServiceError maps engine sentinels onto stable machine-checkable
// codes; callers never have to parse message text.
func respondServiceError(
	ctx context.Context,
	w http.ResponseWriter,
	logger *logging.ZapLogger,
	err error,
) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, codeValidationError, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		respondError(w, http.StatusBadRequest, codeInvalidState, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(w, http.StatusBadRequest, codeConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, err.Error())
	default:
		logger.ErrorCtx(ctx, "unexpected service error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
	}
}

type reviewResponse struct {
	Role      string    `json:"role"`
	Status    string    `json:"status,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CheckedBy int       `json:"checked_by"`
	CheckedAt time.Time `json:"checked_at"`
}

type withdrawalResponse struct {
	CreatedAt  time.Time        `json:"created_at"`
	CheckedAt  *time.Time       `json:"checked_at,omitempty"`
	CheckedBy  *int             `json:"checked_by,omitempty"`
	SourceType string           `json:"source_type"`
	Status     string           `json:"status"`
	Amount     string           `json:"withdrawal_amount"`
	Currency   string           `json:"currency"`
	Reviews    []reviewResponse `json:"reviews,omitempty"`
	ID         int              `json:"id"`
	WorkID     int              `json:"work_id"`
	OperatorID int              `json:"operator_id"`
}

func toWithdrawalResponse(withdrawal data.Withdrawal, reviews []data.Review) withdrawalResponse {
	res := withdrawalResponse{
		ID:         withdrawal.ID,
		SourceType: string(withdrawal.Family),
		WorkID:     withdrawal.WorkID,
		Amount:     withdrawal.Amount.String(),
		Currency:   withdrawal.Currency,
		Status:     string(withdrawal.Status),
		CheckedBy:  withdrawal.CheckedBy,
		CheckedAt:  withdrawal.CheckedAt,
		CreatedAt:  withdrawal.CreatedAt,
		OperatorID: withdrawal.OperatorID,
	}
	for _, review := range reviews {
		converted := reviewResponse{
			Role:      string(review.Role),
			Comment:   review.Comment,
			CheckedBy: review.CheckedBy,
			CheckedAt: review.CheckedAt,
		}
		if review.Status != nil {
			converted.Status = string(*review.Status)
		}
		res.Reviews = append(res.Reviews, converted)
	}
	return res
}

type workResponse struct {
	CreatedAt  time.Time `json:"created_at"`
	Casino     string    `json:"casino"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	ID         int       `json:"id"`
	OperatorID int       `json:"operator_id"`
}

func toWorkResponse(work data.WorkUnit) workResponse {
	return workResponse{
		ID:         work.ID,
		OperatorID: work.OperatorID,
		Casino:     work.Casino,
		Amount:     work.Amount.String(),
		Currency:   work.Currency,
		Status:     string(work.Status),
		CreatedAt:  work.CreatedAt,
	}
}
