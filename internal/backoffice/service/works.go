package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/common/notifyprotocol"
	"backoffice/pkg/lunh"

	"github.com/shopspring/decimal"
)

type WorksRepository interface {
	InsertWork(ctx context.Context, work data.WorkUnit) (data.WorkUnit, error)
	GetWorkForUpdate(ctx context.Context, workID int) (data.WorkUnit, error)
	UpdateWorkStatus(ctx context.Context, workID int, status data.WorkStatus) error
	DeleteWork(ctx context.Context, workID int) error
	CountSettledWithdrawals(ctx context.Context, workID int) (int, error)
	InsertAction(ctx context.Context, record data.ActionRecord) error
}

type CreateWorkRequest struct {
	Casino     string
	CardNumber string
	Currency   string
	Amount     decimal.Decimal
}

type Works struct {
	transactionManager TransactionManager
	repository         WorksRepository
	notifier           Notifier
}

func NewWorks(
	transactionManager TransactionManager,
	repository WorksRepository,
	notifier Notifier,
) *Works {
	return &Works{
		transactionManager: transactionManager,
		repository:         repository,
		notifier:           notifier,
	}
}

func (s *Works) Create(ctx context.Context, actor Actor, req CreateWorkRequest) (data.WorkUnit, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return data.WorkUnit{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.Casino == "" || req.Currency == "" {
		return data.WorkUnit{}, fmt.Errorf("%w: casino and currency are required", ErrValidation)
	}
	if !lunh.Validate(req.CardNumber) {
		return data.WorkUnit{}, fmt.Errorf("%w: invalid card number", ErrValidation)
	}

	var created data.WorkUnit
	err := s.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repository.InsertWork(ctx, data.WorkUnit{
			OperatorID: actor.ID,
			Casino:     req.Casino,
			CardNumber: req.CardNumber,
			Amount:     req.Amount,
			Currency:   req.Currency,
			Status:     data.WorkActive,
		})
		if err != nil {
			return fmt.Errorf("inserting work unit failed: %w", err)
		}
		return s.repository.InsertAction(ctx, data.ActionRecord{
			Action:     "work_create",
			EntityType: data.EntityWork,
			EntityID:   created.ID,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			NewValues:  map[string]any{"status": string(data.WorkActive), "amount": req.Amount.String()},
		})
	})
	if err != nil {
		return data.WorkUnit{}, err //nolint:wrapcheck // unnecessary
	}
	return created, nil
}

// UpdateStatus moves an owned work unit out of active. Completion demands at
// least one settled withdrawal; completed is terminal.
func (s *Works) UpdateStatus(
	ctx context.Context,
	actor Actor,
	workID int,
	next data.WorkStatus,
) (data.WorkUnit, error) {
	if next == data.WorkActive {
		return data.WorkUnit{}, fmt.Errorf("%w: cannot transition back to active", ErrValidation)
	}

	var result data.WorkUnit
	var oldStatus data.WorkStatus
	err := s.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		work, err := s.ownedWorkForUpdate(ctx, actor, workID)
		if err != nil {
			return err
		}
		if work.Status != data.WorkActive {
			return fmt.Errorf("%w: work unit is %s", ErrInvalidState, work.Status)
		}
		oldStatus = work.Status

		if next == data.WorkCompleted {
			settled, err := s.repository.CountSettledWithdrawals(ctx, workID)
			if err != nil {
				return fmt.Errorf("counting settled withdrawals failed: %w", err)
			}
			if settled == 0 {
				return fmt.Errorf("%w: completion requires a settled withdrawal", ErrInvalidState)
			}
		}

		if err := s.repository.UpdateWorkStatus(ctx, workID, next); err != nil {
			return fmt.Errorf("updating work status failed: %w", err)
		}
		err = s.repository.InsertAction(ctx, data.ActionRecord{
			Action:     "work_status_change",
			EntityType: data.EntityWork,
			EntityID:   workID,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			OldValues:  map[string]any{"status": string(work.Status)},
			NewValues:  map[string]any{"status": string(next)},
		})
		if err != nil {
			return fmt.Errorf("writing action history failed: %w", err)
		}
		result = work
		result.Status = next
		return nil
	})
	if err != nil {
		return data.WorkUnit{}, err //nolint:wrapcheck // unnecessary
	}

	s.notifier.Publish(notifyprotocol.Event{
		Type:       notifyprotocol.EventWorkStatusChanged,
		EntityType: data.EntityWork,
		EntityID:   workID,
		OldStatus:  string(oldStatus),
		NewStatus:  string(next),
		ActorID:    actor.ID,
		OccurredAt: time.Now(),
	})
	return result, nil
}

// Delete removes an active, unsettled work unit. Pending withdrawals go with
// it; settled financial history refuses to be erased.
func (s *Works) Delete(ctx context.Context, actor Actor, workID int) error {
	err := s.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		work, err := s.ownedWorkForUpdate(ctx, actor, workID)
		if err != nil {
			return err
		}
		if work.Status != data.WorkActive {
			return fmt.Errorf("%w: only active work units can be deleted", ErrInvalidState)
		}
		settled, err := s.repository.CountSettledWithdrawals(ctx, workID)
		if err != nil {
			return fmt.Errorf("counting settled withdrawals failed: %w", err)
		}
		if settled > 0 {
			return fmt.Errorf("%w: work unit has settled withdrawals", ErrInvalidState)
		}

		if err := s.repository.DeleteWork(ctx, workID); err != nil {
			return fmt.Errorf("deleting work unit failed: %w", err)
		}
		return s.repository.InsertAction(ctx, data.ActionRecord{
			Action:     "work_delete",
			EntityType: data.EntityWork,
			EntityID:   workID,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			OldValues:  map[string]any{"status": string(work.Status)},
		})
	})
	if err != nil {
		return err //nolint:wrapcheck // unnecessary
	}
	return nil
}

func (s *Works) ownedWorkForUpdate(ctx context.Context, actor Actor, workID int) (data.WorkUnit, error) {
	work, err := s.repository.GetWorkForUpdate(ctx, workID)
	if err != nil {
		if errors.Is(err, data.ErrNoRecord) {
			return data.WorkUnit{}, ErrNotFound
		}
		return data.WorkUnit{}, fmt.Errorf("getting work unit failed: %w", err)
	}
	if work.OperatorID != actor.ID {
		return data.WorkUnit{}, ErrNotFound
	}
	return work, nil
}
