package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/metrics"
	"backoffice/internal/common/notifyprotocol"
	"backoffice/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	outcomeApplied = "applied"
	outcomeSkipped = "skipped"
)

type WithdrawalsRepository interface {
	GetWorkForUpdate(ctx context.Context, workID int) (data.WorkUnit, error)
	UpdateWorkStatus(ctx context.Context, workID int, status data.WorkStatus) error
	InsertWithdrawal(ctx context.Context, withdrawal data.Withdrawal) (data.Withdrawal, error)
	GetWithdrawalForUpdate(ctx context.Context, withdrawalID int) (data.Withdrawal, error)
	UpdateWithdrawalStatus(
		ctx context.Context,
		withdrawalID int,
		expected []data.Status,
		next data.Status,
		checkedBy int,
		checkedAt time.Time,
	) (bool, error)
	UpsertReview(ctx context.Context, review data.Review) error
	InsertTask(ctx context.Context, task data.Task) (data.Task, error)
	InsertAction(ctx context.Context, record data.ActionRecord) error
	ListWithdrawals(ctx context.Context, filter data.WithdrawalFilter) ([]data.Withdrawal, error)
	GetReviews(ctx context.Context, withdrawalIDs []int) ([]data.Review, error)
}

// WithdrawalRef names one withdrawal together with its family, so a decision
// against the wrong family cannot land by id collision.
type WithdrawalRef struct {
	Family data.Family
	ID     int
}

type DecisionRequest struct {
	Action     data.Action
	Comment    string
	TaskTitle  string
	CreateTask bool
}

type Withdrawals struct {
	transactionManager TransactionManager
	repository         WithdrawalsRepository
	notifier           Notifier
	permissions        Permissions
	logger             *logging.ZapLogger
}

func NewWithdrawals(
	transactionManager TransactionManager,
	repository WithdrawalsRepository,
	permissions Permissions,
	notifier Notifier,
	logger *logging.ZapLogger,
) *Withdrawals {
	return &Withdrawals{
		transactionManager: transactionManager,
		repository:         repository,
		permissions:        permissions,
		notifier:           notifier,
		logger:             logger,
	}
}

// Create raises a withdrawal against an active work unit owned by the caller.
// The check for a competing non-terminal withdrawal is backed by a partial
// unique index, so two concurrent creations cannot both commit.
func (s *Withdrawals) Create(
	ctx context.Context,
	actor Actor,
	workID int,
	family data.Family,
	amount decimal.Decimal,
	currency string,
) (data.Withdrawal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return data.Withdrawal{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var created data.Withdrawal
	err := s.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		work, err := s.repository.GetWorkForUpdate(ctx, workID)
		if err != nil {
			if errors.Is(err, data.ErrNoRecord) {
				return ErrNotFound
			}
			return fmt.Errorf("getting work unit failed: %w", err)
		}
		if work.OperatorID != actor.ID {
			return ErrNotFound
		}
		if work.Status != data.WorkActive {
			return fmt.Errorf("%w: work unit is %s", ErrInvalidState, work.Status)
		}
		if currency == "" {
			currency = work.Currency
		}

		created, err = s.repository.InsertWithdrawal(ctx, data.Withdrawal{
			Family:     family,
			WorkID:     workID,
			Amount:     amount,
			Currency:   currency,
			Status:     family.InitialStatus(),
			OperatorID: actor.ID,
		})
		if err != nil {
			if errors.Is(err, data.ErrUniqueConstraintViolation) {
				return ErrConflict
			}
			return fmt.Errorf("inserting withdrawal failed: %w", err)
		}

		return s.repository.InsertAction(ctx, data.ActionRecord{
			Action:     "withdrawal_create",
			EntityType: data.EntityWithdrawal,
			EntityID:   created.ID,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			OldValues:  nil,
			NewValues:  map[string]any{"status": string(created.Status), "amount": amount.String()},
		})
	})
	if err != nil {
		return data.Withdrawal{}, err //nolint:wrapcheck // unnecessary
	}

	metrics.RecordWithdrawalCreated(string(family))
	s.notifier.Publish(notifyprotocol.Event{
		Type:       notifyprotocol.EventWithdrawalCreated,
		EntityType: data.EntityWithdrawal,
		EntityID:   created.ID,
		Family:     string(family),
		NewStatus:  string(created.Status),
		ActorID:    actor.ID,
		OccurredAt: created.CreatedAt,
	})
	return created, nil
}

// Decide applies a single reviewing action. Status transitions are
// compare-and-swapped against the family pending set inside one transaction;
// a withdrawal that is already terminal fails with ErrInvalidState rather
// than silently no-opping (double settlement must be loud).
func (s *Withdrawals) Decide(
	ctx context.Context,
	actor Actor,
	ref WithdrawalRef,
	req DecisionRequest,
) (data.Withdrawal, error) {
	if req.Action == data.ActionCreateTask {
		// task-only call: treat as a comment-less decision carrier
		req.CreateTask = true
		req.Action = data.ActionComment
	}
	if !s.permissions.Allows(actor.Role, req.Action) {
		return data.Withdrawal{}, ErrForbidden
	}
	if req.CreateTask && !s.permissions.Allows(actor.Role, data.ActionCreateTask) {
		return data.Withdrawal{}, ErrForbidden
	}

	var result data.Withdrawal
	var oldStatus data.Status
	err := s.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		withdrawal, err := s.repository.GetWithdrawalForUpdate(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, data.ErrNoRecord) {
				return ErrNotFound
			}
			return fmt.Errorf("getting withdrawal failed: %w", err)
		}
		if withdrawal.Family != ref.Family {
			return ErrNotFound
		}
		oldStatus = withdrawal.Status

		if req.Action == data.ActionComment {
			result = withdrawal
			return s.applyComment(ctx, actor, withdrawal, req)
		}

		next, err := data.Transition(ref.Family, req.Action)
		if err != nil {
			return fmt.Errorf("%w: action %q is not defined for family %q", ErrValidation, req.Action, ref.Family)
		}
		if !ref.Family.IsPending(withdrawal.Status) {
			return fmt.Errorf("%w: withdrawal is already %s", ErrInvalidState, withdrawal.Status)
		}

		now := time.Now()
		updated, err := s.repository.UpdateWithdrawalStatus(
			ctx,
			withdrawal.ID,
			ref.Family.PendingStatuses(),
			next,
			actor.ID,
			now,
		)
		if err != nil {
			return fmt.Errorf("updating withdrawal status failed: %w", err)
		}
		if !updated {
			return fmt.Errorf("%w: withdrawal left the pending state concurrently", ErrInvalidState)
		}

		// PayPal reviewers check independently: every decision also lands
		// in the actor role's own review record.
		if ref.Family == data.FamilyPayPal || req.Comment != "" {
			review := data.Review{
				WithdrawalID: withdrawal.ID,
				Role:         actor.Role,
				Comment:      req.Comment,
				CheckedBy:    actor.ID,
				CheckedAt:    now,
			}
			if ref.Family == data.FamilyPayPal {
				review.Status = &next
			}
			if err := s.repository.UpsertReview(ctx, review); err != nil {
				return fmt.Errorf("writing review failed: %w", err)
			}
		}

		if ref.Family == data.FamilyTester && req.Action == data.ActionApprove {
			if err := s.completeTestedWork(ctx, actor, withdrawal.WorkID); err != nil {
				return err
			}
		}

		if req.CreateTask {
			if err := s.createFollowUpTask(ctx, actor, withdrawal, req.TaskTitle); err != nil {
				return err
			}
		}

		err = s.repository.InsertAction(ctx, data.ActionRecord{
			Action:     "withdrawal_" + string(req.Action),
			EntityType: data.EntityWithdrawal,
			EntityID:   withdrawal.ID,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			OldValues:  map[string]any{"status": string(withdrawal.Status)},
			NewValues:  map[string]any{"status": string(next)},
		})
		if err != nil {
			return fmt.Errorf("writing action history failed: %w", err)
		}

		result = withdrawal
		result.Status = next
		result.CheckedBy = &actor.ID
		result.CheckedAt = &now
		return nil
	})
	if err != nil {
		metrics.RecordDecision(string(ref.Family), string(req.Action), outcomeSkipped)
		return data.Withdrawal{}, err //nolint:wrapcheck // unnecessary
	}

	metrics.RecordDecision(string(ref.Family), string(req.Action), outcomeApplied)
	if req.Action != data.ActionComment {
		s.notifier.Publish(notifyprotocol.Event{
			Type:       notifyprotocol.EventWithdrawalDecided,
			EntityType: data.EntityWithdrawal,
			EntityID:   result.ID,
			Family:     string(ref.Family),
			OldStatus:  string(oldStatus),
			NewStatus:  string(result.Status),
			ActorID:    actor.ID,
			OccurredAt: time.Now(),
		})
	}
	return result, nil
}

func (s *Withdrawals) applyComment(
	ctx context.Context,
	actor Actor,
	withdrawal data.Withdrawal,
	req DecisionRequest,
) error {
	now := time.Now()
	if req.Comment != "" {
		err := s.repository.UpsertReview(ctx, data.Review{
			WithdrawalID: withdrawal.ID,
			Role:         actor.Role,
			Comment:      req.Comment,
			CheckedBy:    actor.ID,
			CheckedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("writing review comment failed: %w", err)
		}
	}
	if req.CreateTask {
		if err := s.createFollowUpTask(ctx, actor, withdrawal, req.TaskTitle); err != nil {
			return err
		}
	}
	err := s.repository.InsertAction(ctx, data.ActionRecord{
		Action:     "withdrawal_comment",
		EntityType: data.EntityWithdrawal,
		EntityID:   withdrawal.ID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OldValues:  map[string]any{"status": string(withdrawal.Status)},
		NewValues:  map[string]any{"status": string(withdrawal.Status), "comment": req.Comment},
	})
	if err != nil {
		return fmt.Errorf("writing action history failed: %w", err)
	}
	return nil
}

func (s *Withdrawals) completeTestedWork(ctx context.Context, actor Actor, workID int) error {
	work, err := s.repository.GetWorkForUpdate(ctx, workID)
	if err != nil {
		return fmt.Errorf("getting tested work unit failed: %w", err)
	}
	if work.Status == data.WorkCompleted {
		return nil
	}
	if err := s.repository.UpdateWorkStatus(ctx, workID, data.WorkCompleted); err != nil {
		return fmt.Errorf("completing tested work unit failed: %w", err)
	}
	return s.repository.InsertAction(ctx, data.ActionRecord{
		Action:     "work_complete",
		EntityType: data.EntityWork,
		EntityID:   workID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OldValues:  map[string]any{"status": string(work.Status)},
		NewValues:  map[string]any{"status": string(data.WorkCompleted)},
	})
}

func (s *Withdrawals) createFollowUpTask(
	ctx context.Context,
	actor Actor,
	withdrawal data.Withdrawal,
	title string,
) error {
	if title == "" {
		title = fmt.Sprintf("follow up on withdrawal %d", withdrawal.ID)
	}
	task, err := s.repository.InsertTask(ctx, data.Task{
		WithdrawalID: withdrawal.ID,
		Family:       withdrawal.Family,
		Title:        title,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		return fmt.Errorf("creating follow-up task failed: %w", err)
	}
	s.logger.DebugCtx(ctx, "follow-up task created",
		zap.Int("task_id", task.ID),
		zap.Int("withdrawal_id", withdrawal.ID),
	)
	return nil
}
