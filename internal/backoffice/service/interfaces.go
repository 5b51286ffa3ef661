package service

import (
	"context"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/common/notifyprotocol"
)

type TransactionManager interface {
	DoWithTransaction(ctx context.Context, f func(ctx context.Context) error) error
}

type TokenFactory interface {
	Generate(userID int, role string) (string, error)
}

// Notifier fans decision events out to the notification sink. Publishing
// never blocks the request path and never fails it.
type Notifier interface {
	Publish(event notifyprotocol.Event)
}

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	Role data.Role
	ID   int
}
