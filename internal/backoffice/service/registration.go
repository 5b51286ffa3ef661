package service

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/backoffice/data"
)

type UsersRepository interface {
	InsertUser(ctx context.Context, login, password string, role data.Role, teamleadID *int) (int, error)
	ValidateUser(ctx context.Context, login, password string) (int, data.Role, error)
}

type Registration struct {
	repository         UsersRepository
	transactionManager TransactionManager
	tokenFactory       TokenFactory
}

func NewRegistration(
	repository UsersRepository,
	transactionManager TransactionManager,
	tokenFactory TokenFactory,
) *Registration {
	return &Registration{
		repository:         repository,
		transactionManager: transactionManager,
		tokenFactory:       tokenFactory,
	}
}

func (r *Registration) Register(
	ctx context.Context,
	login, password string,
	role data.Role,
	teamleadID *int,
) (string, error) {
	if login == "" || password == "" {
		return "", fmt.Errorf("%w: login and password are required", ErrValidation)
	}
	var userID int
	err := r.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		id, err := r.repository.InsertUser(ctx, login, password, role, teamleadID)
		if err != nil {
			return err
		}
		userID = id
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, data.ErrUniqueConstraintViolation), errors.Is(err, data.ErrUserAlreadyExists):
			return "", ErrLoginTaken
		default:
			return "", fmt.Errorf("error inserting user: %w", err)
		}
	}

	token, err := r.tokenFactory.Generate(userID, string(role))
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	return token, nil
}
