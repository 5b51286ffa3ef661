package service

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/backoffice/data"
)

type Login struct {
	repository   UsersRepository
	tokenFactory TokenFactory
}

func NewLogin(repository UsersRepository, tokenFactory TokenFactory) *Login {
	return &Login{
		repository:   repository,
		tokenFactory: tokenFactory,
	}
}

func (l *Login) Login(ctx context.Context, login, password string) (string, error) {
	userID, role, err := l.repository.ValidateUser(ctx, login, password)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrInvalidPassword), errors.Is(err, data.ErrInvalidLogin):
			return "", ErrInvalidCredentials
		default:
			return "", fmt.Errorf("error validating user: %w", err)
		}
	}

	token, err := l.tokenFactory.Generate(userID, string(role))
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	return token, nil
}
