package service

import (
	"context"
	"testing"

	"backoffice/internal/backoffice/data"
	"backoffice/internal/common/notifyprotocol"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithdrawal(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	s := newTestWithdrawals(repo, notifier)
	operator := Actor{ID: 1, Role: data.RoleJunior}
	work := repo.addWork(operator.ID, data.WorkActive)

	created, err := s.Create(context.Background(), operator, work.ID, data.FamilyRegular, decimal.NewFromInt(500), "")
	require.NoError(t, err)
	assert.Equal(t, data.StatusNew, created.Status)
	assert.Equal(t, work.ID, created.WorkID)
	assert.Equal(t, "EUR", created.Currency, "currency defaults to the work unit's")
	require.Len(t, repo.actions, 1)
	assert.Equal(t, "withdrawal_create", repo.actions[0].Action)
	assert.Nil(t, repo.actions[0].OldValues)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notifyprotocol.EventWithdrawalCreated, notifier.events[0].Type)

	// second request against the same work unit while the first is pending
	_, err = s.Create(context.Background(), operator, work.ID, data.FamilyRegular, decimal.NewFromInt(100), "")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, repo.actions, 1, "conflicting create must not write history")
}

func TestCreateWithdrawalValidation(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	operator := Actor{ID: 1, Role: data.RoleJunior}
	work := repo.addWork(operator.ID, data.WorkActive)

	tests := []struct {
		expected error
		name     string
		workID   int
		actorID  int
		amount   int64
	}{
		{
			name:     "non-positive amount",
			workID:   work.ID,
			actorID:  operator.ID,
			amount:   0,
			expected: ErrValidation,
		},
		{
			name:     "missing work unit",
			workID:   999,
			actorID:  operator.ID,
			amount:   100,
			expected: ErrNotFound,
		},
		{
			name:     "foreign work unit",
			workID:   work.ID,
			actorID:  42,
			amount:   100,
			expected: ErrNotFound,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := s.Create(
				context.Background(),
				Actor{ID: test.actorID, Role: data.RoleJunior},
				test.workID,
				data.FamilyRegular,
				decimal.NewFromInt(test.amount),
				"",
			)
			assert.ErrorIs(t, err, test.expected)
		})
	}
}

func TestCreateWithdrawalInactiveWork(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	operator := Actor{ID: 1, Role: data.RoleJunior}
	work := repo.addWork(operator.ID, data.WorkCancelled)

	_, err := s.Create(context.Background(), operator, work.ID, data.FamilyRegular, decimal.NewFromInt(100), "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDecideApprove(t *testing.T) {
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	s := newTestWithdrawals(repo, notifier)
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyRegular, data.StatusNew)
	manager := Actor{ID: 7, Role: data.RoleManager}
	ref := WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyRegular}

	decided, err := s.Decide(context.Background(), manager, ref, DecisionRequest{Action: data.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, data.StatusReceived, decided.Status)
	require.NotNil(t, decided.CheckedBy)
	assert.Equal(t, manager.ID, *decided.CheckedBy)
	require.Len(t, repo.actions, 1)
	assert.Equal(t, map[string]any{"status": "new"}, repo.actions[0].OldValues)
	assert.Equal(t, map[string]any{"status": "received"}, repo.actions[0].NewValues)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "new", notifier.events[0].OldStatus)
	assert.Equal(t, "received", notifier.events[0].NewStatus)

	// terminal state must not resurrect
	_, err = s.Decide(context.Background(), manager, ref, DecisionRequest{Action: data.ActionApprove})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, data.StatusReceived, repo.withdrawals[withdrawal.ID].Status)
	assert.Len(t, repo.actions, 1, "failed decision must not write history")
}

func TestDecideWaitingIsStillPending(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyRegular, data.StatusWaiting)

	decided, err := s.Decide(
		context.Background(),
		Actor{ID: 7, Role: data.RoleManager},
		WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyRegular},
		DecisionRequest{Action: data.ActionReject},
	)
	require.NoError(t, err)
	assert.Equal(t, data.StatusProblem, decided.Status)
}

func TestDecideForbidden(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyRegular, data.StatusNew)
	ref := WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyRegular}

	tests := []struct {
		name   string
		role   data.Role
		action data.Action
	}{
		{
			name:   "teamlead cannot block",
			role:   data.RoleTeamlead,
			action: data.ActionBlock,
		},
		{
			name:   "junior cannot approve",
			role:   data.RoleJunior,
			action: data.ActionApprove,
		},
		{
			name:   "junior cannot comment",
			role:   data.RoleJunior,
			action: data.ActionComment,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := s.Decide(
				context.Background(),
				Actor{ID: 3, Role: test.role},
				ref,
				DecisionRequest{Action: test.action},
			)
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
	assert.Equal(t, data.StatusNew, repo.withdrawals[withdrawal.ID].Status, "forbidden calls change nothing")
	assert.Empty(t, repo.actions, "forbidden calls write no history")
}

func TestDecideWrongFamilyIsInvisible(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyRegular, data.StatusNew)

	_, err := s.Decide(
		context.Background(),
		Actor{ID: 7, Role: data.RoleManager},
		WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyPayPal},
		DecisionRequest{Action: data.ActionApprove},
	)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecideBlockTesterIsValidationError(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyTester, data.StatusPending)

	_, err := s.Decide(
		context.Background(),
		Actor{ID: 7, Role: data.RoleManager},
		WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyTester},
		DecisionRequest{Action: data.ActionBlock},
	)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, data.StatusPending, repo.withdrawals[withdrawal.ID].Status)
}

func TestDecideTesterApproveCompletesWork(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyTester, data.StatusPending)

	decided, err := s.Decide(
		context.Background(),
		Actor{ID: 5, Role: data.RoleHR},
		WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyTester},
		DecisionRequest{Action: data.ActionApprove},
	)
	require.NoError(t, err)
	assert.Equal(t, data.StatusApproved, decided.Status)
	assert.Equal(t, data.WorkCompleted, repo.works[work.ID].Status)
	// withdrawal transition plus work completion
	assert.Len(t, repo.actions, 2)
}

func TestDecidePayPalWritesRoleReview(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyPayPal, data.StatusPending)

	cfo := Actor{ID: 9, Role: data.RoleCFO}
	_, err := s.Decide(
		context.Background(),
		cfo,
		WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyPayPal},
		DecisionRequest{Action: data.ActionApprove, Comment: "checked against the ledger"},
	)
	require.NoError(t, err)

	review, ok := repo.review(withdrawal.ID, data.RoleCFO)
	require.True(t, ok)
	require.NotNil(t, review.Status)
	assert.Equal(t, data.StatusApproved, *review.Status)
	assert.Equal(t, cfo.ID, review.CheckedBy)
	assert.Equal(t, "checked against the ledger", review.Comment)
}

func TestDecideCommentsAreIndependentPerRole(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyRegular, data.StatusNew)
	ref := WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyRegular}

	_, err := s.Decide(
		context.Background(),
		Actor{ID: 7, Role: data.RoleManager},
		ref,
		DecisionRequest{Action: data.ActionComment, Comment: "looks plausible"},
	)
	require.NoError(t, err)
	_, err = s.Decide(
		context.Background(),
		Actor{ID: 5, Role: data.RoleHR},
		ref,
		DecisionRequest{Action: data.ActionComment, Comment: "payroll impact checked"},
	)
	require.NoError(t, err)

	managerReview, ok := repo.review(withdrawal.ID, data.RoleManager)
	require.True(t, ok)
	assert.Equal(t, "looks plausible", managerReview.Comment)
	hrReview, ok := repo.review(withdrawal.ID, data.RoleHR)
	require.True(t, ok)
	assert.Equal(t, "payroll impact checked", hrReview.Comment)

	assert.Equal(t, data.StatusNew, repo.withdrawals[withdrawal.ID].Status, "comments never move the status")
	assert.Len(t, repo.actions, 2)
}

func TestDecideCreateTask(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyRegular, data.StatusNew)
	ref := WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyRegular}

	_, err := s.Decide(
		context.Background(),
		Actor{ID: 5, Role: data.RoleHR},
		ref,
		DecisionRequest{Action: data.ActionApprove, CreateTask: true},
	)
	assert.ErrorIs(t, err, ErrForbidden, "hr lacks can_create_task")
	assert.Empty(t, repo.tasks)
	assert.Equal(t, data.StatusNew, repo.withdrawals[withdrawal.ID].Status)

	_, err = s.Decide(
		context.Background(),
		Actor{ID: 7, Role: data.RoleManager},
		ref,
		DecisionRequest{Action: data.ActionApprove, CreateTask: true, TaskTitle: "chase the payout"},
	)
	require.NoError(t, err)
	require.Len(t, repo.tasks, 1)
	assert.Equal(t, "chase the payout", repo.tasks[0].Title)
	assert.Equal(t, withdrawal.ID, repo.tasks[0].WithdrawalID)
}

func TestListScoping(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	ownWork := repo.addWork(1, data.WorkActive)
	otherWork := repo.addWork(2, data.WorkActive)
	own := repo.addWithdrawal(ownWork.ID, data.FamilyRegular, data.StatusNew)
	repo.addWithdrawal(otherWork.ID, data.FamilyPayPal, data.StatusPending)

	t.Run("operator sees only their own", func(t *testing.T) {
		views, err := s.List(context.Background(), Actor{ID: 1, Role: data.RoleJunior}, ListQuery{})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, own.ID, views[0].Withdrawal.ID)
		require.NotNil(t, repo.listFilter.OwnerOperatorID)
		assert.Nil(t, repo.listFilter.OperatorID, "operator filter is ignored for juniors")
	})

	t.Run("teamlead scope is pushed into the filter", func(t *testing.T) {
		_, err := s.List(context.Background(), Actor{ID: 10, Role: data.RoleTeamlead}, ListQuery{})
		require.NoError(t, err)
		require.NotNil(t, repo.listFilter.TeamleadID)
		assert.Equal(t, 10, *repo.listFilter.TeamleadID)
	})

	t.Run("manager sees all families", func(t *testing.T) {
		views, err := s.List(context.Background(), Actor{ID: 7, Role: data.RoleManager}, ListQuery{})
		require.NoError(t, err)
		assert.Len(t, views, 2)
		assert.Nil(t, repo.listFilter.OwnerOperatorID)
		assert.Nil(t, repo.listFilter.TeamleadID)
	})

	t.Run("status filter narrows", func(t *testing.T) {
		status := data.StatusPending
		views, err := s.List(
			context.Background(),
			Actor{ID: 7, Role: data.RoleManager},
			ListQuery{Status: &status},
		)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, data.FamilyPayPal, views[0].Withdrawal.Family)
	})
}

func TestListIncludesReviews(t *testing.T) {
	repo := newFakeRepository()
	s := newTestWithdrawals(repo, &fakeNotifier{})
	work := repo.addWork(1, data.WorkActive)
	withdrawal := repo.addWithdrawal(work.ID, data.FamilyPayPal, data.StatusPending)
	manager := Actor{ID: 7, Role: data.RoleManager}
	_, err := s.Decide(
		context.Background(),
		manager,
		WithdrawalRef{ID: withdrawal.ID, Family: data.FamilyPayPal},
		DecisionRequest{Action: data.ActionComment, Comment: "on it"},
	)
	require.NoError(t, err)

	views, err := s.List(context.Background(), manager, ListQuery{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Reviews, 1)
	assert.Equal(t, data.RoleManager, views[0].Reviews[0].Role)
}
