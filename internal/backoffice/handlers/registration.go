package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/logging"

	"go.uber.org/zap"
)

type RegisterHandler struct {
	service RegistrationService
	logger  *logging.ZapLogger
}

type RegistrationInput struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	TeamleadID *int   `json:"teamlead_id,omitempty"`
}

type RegistrationService interface {
	Register(ctx context.Context, login, password string, role data.Role, teamleadID *int) (string, error)
}

func NewRegisterHandler(service RegistrationService, logger *logging.ZapLogger) *RegisterHandler {
	return &RegisterHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[RegistrationInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		respondError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return
	}
	if input.Role == "" {
		input.Role = string(data.RoleJunior)
	}
	role, err := data.ParseRole(input.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidationError, "unknown role")
		return
	}

	tkn, err := h.service.Register(r.Context(), input.Login, input.Password, role, input.TeamleadID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLoginTaken):
			h.logger.DebugCtx(r.Context(), "login is already taken", zap.String("login", input.Login))
			respondError(w, http.StatusConflict, codeConflict, "login is already taken")
			return
		case errors.Is(err, service.ErrValidation):
			respondError(w, http.StatusBadRequest, codeValidationError, err.Error())
			return
		default:
			h.logger.ErrorCtx(r.Context(), "registration handler error", zap.Error(err))
			respondError(w, http.StatusInternalServerError, codeUnexpected, "internal error")
			return
		}
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", tkn))
	_ = writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
