package service

import (
	"context"
	"fmt"

	"backoffice/internal/backoffice/data"
)

type ListQuery struct {
	Status     *data.Status
	OperatorID *int
	Families   []data.Family
}

// WithdrawalView is a withdrawal together with its per-role review records.
type WithdrawalView struct {
	Withdrawal data.Withdrawal
	Reviews    []data.Review
}

// List returns the withdrawals visible to the caller's role: operators see
// their own, teamleads their supervised operators', everyone else all. The
// scope applies identically to single-family and cross-family views.
func (s *Withdrawals) List(ctx context.Context, actor Actor, query ListQuery) ([]WithdrawalView, error) {
	filter := data.WithdrawalFilter{
		Families:   query.Families,
		OperatorID: query.OperatorID,
	}
	if query.Status != nil {
		filter.Statuses = []data.Status{*query.Status}
	}

	switch actor.Role {
	case data.RoleJunior:
		filter.OwnerOperatorID = &actor.ID
		filter.OperatorID = nil
	case data.RoleTeamlead:
		filter.TeamleadID = &actor.ID
	case data.RoleManager, data.RoleHR, data.RoleCFO, data.RoleAdmin:
		// unrestricted
	default:
		return nil, ErrForbidden
	}

	withdrawals, err := s.repository.ListWithdrawals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing withdrawals failed: %w", err)
	}
	if len(withdrawals) == 0 {
		return []WithdrawalView{}, nil
	}

	ids := make([]int, len(withdrawals))
	for i, withdrawal := range withdrawals {
		ids[i] = withdrawal.ID
	}
	reviews, err := s.repository.GetReviews(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing reviews failed: %w", err)
	}
	reviewsByWithdrawal := make(map[int][]data.Review, len(withdrawals))
	for _, review := range reviews {
		reviewsByWithdrawal[review.WithdrawalID] = append(reviewsByWithdrawal[review.WithdrawalID], review)
	}

	result := make([]WithdrawalView, len(withdrawals))
	for i, withdrawal := range withdrawals {
		result[i] = WithdrawalView{
			Withdrawal: withdrawal,
			Reviews:    reviewsByWithdrawal[withdrawal.ID],
		}
	}
	return result, nil
}
