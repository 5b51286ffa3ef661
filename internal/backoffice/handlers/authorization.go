package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"go.uber.org/zap"
)

type AuthorizationHandler struct {
	service AuthorizationService
	logger  *logging.ZapLogger
}

type AuthorizationInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthorizationService interface {
	Login(ctx context.Context, login string, password string) (string, error)
}

func NewAuthorizationHandler(service AuthorizationService, logger *logging.ZapLogger) *AuthorizationHandler {
	return &AuthorizationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *AuthorizationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[AuthorizationInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}

	tkn, err := h.service.Login(r.Context(), input.Login, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.logger.DebugCtx(r.Context(), "invalid credentials", zap.String("login", input.Login))
			respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
			return
		default:
			h.logger.ErrorCtx(r.Context(), "authorization handler error", zap.Error(err))
			respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
			return
		}
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", tkn))
	_ = writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
