package service

import (
	"context"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/backoffice/metrics"

	"go.uber.org/zap"
)

// BatchResult reports a best-effort bulk review: per-family applied counts
// plus the refs that were skipped. Skipping is not an error here; the batch
// semantic deliberately differs from the strict single-item decision.
type BatchResult struct {
	Updated map[data.Family]int
	Skipped []WithdrawalRef
}

func (r BatchResult) UpdatedTotal() int {
	total := 0
	for _, count := range r.Updated {
		total += count
	}
	return total
}

// BulkDecide applies one approve/reject action to every listed withdrawal
// whose status is still in its family's pending set. Items already terminal,
// missing, or failing are excluded from the count, never errored.
func (s *Withdrawals) BulkDecide(
	ctx context.Context,
	actor Actor,
	items []WithdrawalRef,
	action data.Action,
	comment string,
) (BatchResult, error) {
	if action != data.ActionApprove && action != data.ActionReject {
		return BatchResult{}, ErrValidation
	}
	if !s.permissions.Allows(actor.Role, action) {
		return BatchResult{}, ErrForbidden
	}

	result := BatchResult{
		Updated: make(map[data.Family]int),
		Skipped: make([]WithdrawalRef, 0),
	}
	for _, item := range items {
		_, err := s.Decide(ctx, actor, item, DecisionRequest{
			Action:  action,
			Comment: comment,
		})
		if err != nil {
			s.logger.DebugCtx(ctx, "bulk item skipped",
				zap.Int("withdrawal_id", item.ID),
				zap.String("family", string(item.Family)),
				zap.Error(err),
			)
			result.Skipped = append(result.Skipped, item)
			continue
		}
		result.Updated[item.Family]++
	}

	metrics.RecordDecision("bulk", string(action), outcomeApplied)
	return result, nil
}
