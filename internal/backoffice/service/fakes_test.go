package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/common/notifyprotocol"
	"backoffice/pkg/logging"

	"go.uber.org/zap/zapcore"
)

// fakeRepository is an in-memory stand-in for dbrepository. It models the
// partial unique index on non-terminal withdrawals, so the conflict path
// behaves like the real datastore.
type fakeRepository struct {
	works       map[int]data.WorkUnit
	withdrawals map[int]data.Withdrawal
	reviews     map[string]data.Review
	tasks       []data.Task
	actions     []data.ActionRecord
	listFilter  data.WithdrawalFilter
	nextID      int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		works:       make(map[int]data.WorkUnit),
		withdrawals: make(map[int]data.Withdrawal),
		reviews:     make(map[string]data.Review),
		nextID:      1,
	}
}

func (f *fakeRepository) allocateID() int {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepository) addWork(operatorID int, status data.WorkStatus) data.WorkUnit {
	work := data.WorkUnit{
		ID:         f.allocateID(),
		OperatorID: operatorID,
		Casino:     "lucky-spin",
		CardNumber: "4539148803436467",
		Currency:   "EUR",
		Status:     status,
		CreatedAt:  time.Now(),
	}
	f.works[work.ID] = work
	return work
}

func (f *fakeRepository) addWithdrawal(workID int, family data.Family, status data.Status) data.Withdrawal {
	work := f.works[workID]
	withdrawal := data.Withdrawal{
		ID:         f.allocateID(),
		Family:     family,
		WorkID:     workID,
		Currency:   "EUR",
		Status:     status,
		OperatorID: work.OperatorID,
		CreatedAt:  time.Now(),
	}
	f.withdrawals[withdrawal.ID] = withdrawal
	return withdrawal
}

func (f *fakeRepository) InsertWork(_ context.Context, work data.WorkUnit) (data.WorkUnit, error) {
	work.ID = f.allocateID()
	work.CreatedAt = time.Now()
	f.works[work.ID] = work
	return work, nil
}

func (f *fakeRepository) GetWorkForUpdate(_ context.Context, workID int) (data.WorkUnit, error) {
	work, ok := f.works[workID]
	if !ok {
		return data.WorkUnit{}, data.ErrNoRecord
	}
	return work, nil
}

func (f *fakeRepository) UpdateWorkStatus(_ context.Context, workID int, status data.WorkStatus) error {
	work, ok := f.works[workID]
	if !ok {
		return data.ErrNoRecord
	}
	work.Status = status
	f.works[workID] = work
	return nil
}

func (f *fakeRepository) DeleteWork(_ context.Context, workID int) error {
	delete(f.works, workID)
	for id, withdrawal := range f.withdrawals {
		if withdrawal.WorkID == workID {
			delete(f.withdrawals, id)
		}
	}
	return nil
}

func (f *fakeRepository) CountSettledWithdrawals(_ context.Context, workID int) (int, error) {
	count := 0
	for _, withdrawal := range f.withdrawals {
		if withdrawal.WorkID == workID && withdrawal.Status == withdrawal.Family.SettledStatus() {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) InsertWithdrawal(_ context.Context, withdrawal data.Withdrawal) (data.Withdrawal, error) {
	for _, existing := range f.withdrawals {
		if existing.WorkID == withdrawal.WorkID && existing.Family.IsPending(existing.Status) {
			return data.Withdrawal{}, data.ErrUniqueConstraintViolation
		}
	}
	withdrawal.ID = f.allocateID()
	withdrawal.CreatedAt = time.Now()
	f.withdrawals[withdrawal.ID] = withdrawal
	return withdrawal, nil
}

func (f *fakeRepository) GetWithdrawalForUpdate(_ context.Context, withdrawalID int) (data.Withdrawal, error) {
	withdrawal, ok := f.withdrawals[withdrawalID]
	if !ok {
		return data.Withdrawal{}, data.ErrNoRecord
	}
	return withdrawal, nil
}

func (f *fakeRepository) UpdateWithdrawalStatus(
	_ context.Context,
	withdrawalID int,
	expected []data.Status,
	next data.Status,
	checkedBy int,
	checkedAt time.Time,
) (bool, error) {
	withdrawal, ok := f.withdrawals[withdrawalID]
	if !ok {
		return false, nil
	}
	matches := false
	for _, status := range expected {
		if withdrawal.Status == status {
			matches = true
			break
		}
	}
	if !matches {
		return false, nil
	}
	withdrawal.Status = next
	withdrawal.CheckedBy = &checkedBy
	withdrawal.CheckedAt = &checkedAt
	f.withdrawals[withdrawalID] = withdrawal
	return true, nil
}

func (f *fakeRepository) UpsertReview(_ context.Context, review data.Review) error {
	key := reviewKey(review.WithdrawalID, review.Role)
	if existing, ok := f.reviews[key]; ok {
		if review.Comment == "" {
			review.Comment = existing.Comment
		}
		if review.Status == nil {
			review.Status = existing.Status
		}
	}
	f.reviews[key] = review
	return nil
}

func (f *fakeRepository) GetReviews(_ context.Context, withdrawalIDs []int) ([]data.Review, error) {
	result := make([]data.Review, 0)
	for _, id := range withdrawalIDs {
		for _, review := range f.reviews {
			if review.WithdrawalID == id {
				result = append(result, review)
			}
		}
	}
	return result, nil
}

func (f *fakeRepository) InsertTask(_ context.Context, task data.Task) (data.Task, error) {
	task.ID = f.allocateID()
	task.CreatedAt = time.Now()
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeRepository) InsertAction(_ context.Context, record data.ActionRecord) error {
	record.ID = f.allocateID()
	record.CreatedAt = time.Now()
	f.actions = append(f.actions, record)
	return nil
}

func (f *fakeRepository) ListWithdrawals(
	_ context.Context,
	filter data.WithdrawalFilter,
) ([]data.Withdrawal, error) {
	f.listFilter = filter
	result := make([]data.Withdrawal, 0)
	for _, withdrawal := range f.withdrawals {
		if filter.OwnerOperatorID != nil && withdrawal.OperatorID != *filter.OwnerOperatorID {
			continue
		}
		if filter.OperatorID != nil && withdrawal.OperatorID != *filter.OperatorID {
			continue
		}
		if len(filter.Families) > 0 && !containsFamily(filter.Families, withdrawal.Family) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, withdrawal.Status) {
			continue
		}
		result = append(result, withdrawal)
	}
	return result, nil
}

func (f *fakeRepository) review(withdrawalID int, role data.Role) (data.Review, bool) {
	review, ok := f.reviews[reviewKey(withdrawalID, role)]
	return review, ok
}

func reviewKey(withdrawalID int, role data.Role) string {
	return fmt.Sprintf("%d:%s", withdrawalID, role)
}

func containsFamily(families []data.Family, family data.Family) bool {
	for _, f := range families {
		if f == family {
			return true
		}
	}
	return false
}

func containsStatus(statuses []data.Status, status data.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeTransactionManager struct{}

func (fakeTransactionManager) DoWithTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type fakeNotifier struct {
	events []notifyprotocol.Event
}

func (f *fakeNotifier) Publish(event notifyprotocol.Event) {
	f.events = append(f.events, event)
}

func newTestWithdrawals(repo *fakeRepository, notifier *fakeNotifier) *Withdrawals {
	logger, err := logging.NewZapLogger(zapcore.ErrorLevel)
	if err != nil {
		panic(err)
	}
	return NewWithdrawals(fakeTransactionManager{}, repo, DefaultPermissions(), notifier, logger)
}

func newTestWorks(repo *fakeRepository, notifier *fakeNotifier) *Works {
	return NewWorks(fakeTransactionManager{}, repo, notifier)
}
