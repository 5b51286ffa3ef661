package dbrepository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/backoffice/data"
	"backoffice/pkg/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	invalidUserID = -1
)

type DBStorage interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) (pgx.Row, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryValue(ctx context.Context, query string, args []any, dest []any) error
}

type DBRepository struct {
	storage DBStorage
	logger  *logging.ZapLogger
}

func New(storage DBStorage, logger *logging.ZapLogger) *DBRepository {
	return &DBRepository{
		storage: storage,
		logger:  logger,
	}
}

//go:embed sql/insert_user.sql
var insertUserQuery string

func (db *DBRepository) InsertUser(
	ctx context.Context,
	login, password string,
	role data.Role,
	teamleadID *int,
) (userID int, err error) {
	err = db.storage.QueryValue(ctx, insertUserQuery, []any{login, password, string(role), teamleadID}, []any{&userID})
	if err != nil {
		return invalidUserID, handleSQLError(err)
	}
	return userID, nil
}

//go:embed sql/validate_user.sql
var validateUserQuery string

func (db *DBRepository) ValidateUser(ctx context.Context, login, password string) (int, data.Role, error) {
	result := struct {
		role            string
		userID          int
		passwordMatches bool
	}{}
	err := db.storage.QueryValue(
		ctx,
		validateUserQuery,
		[]any{login, password},
		[]any{&result.userID, &result.role, &result.passwordMatches},
	)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return invalidUserID, "", data.ErrInvalidLogin
		default:
			return invalidUserID, "", fmt.Errorf("failed to validate user: %w", err)
		}
	}
	if !result.passwordMatches {
		return invalidUserID, "", data.ErrInvalidPassword
	}
	return result.userID, data.Role(result.role), nil
}

//go:embed sql/insert_work.sql
var insertWorkQuery string

func (db *DBRepository) InsertWork(ctx context.Context, work data.WorkUnit) (data.WorkUnit, error) {
	err := db.storage.QueryValue(
		ctx,
		insertWorkQuery,
		[]any{work.OperatorID, work.Casino, work.CardNumber, work.Amount, work.Currency, string(work.Status)},
		[]any{&work.ID, &work.CreatedAt},
	)
	if err != nil {
		return data.WorkUnit{}, handleSQLError(err)
	}
	return work, nil
}

//go:embed sql/select_work_for_update.sql
var selectWorkForUpdateQuery string

func (db *DBRepository) GetWorkForUpdate(ctx context.Context, workID int) (data.WorkUnit, error) {
	var work data.WorkUnit
	var status string
	err := db.storage.QueryValue(
		ctx,
		selectWorkForUpdateQuery,
		[]any{workID},
		[]any{
			&work.ID,
			&work.OperatorID,
			&work.Casino,
			&work.CardNumber,
			&work.Amount,
			&work.Currency,
			&status,
			&work.CreatedAt,
		},
	)
	if err != nil {
		return data.WorkUnit{}, handleSQLError(err)
	}
	work.Status = data.WorkStatus(status)
	return work, nil
}

//go:embed sql/update_work_status.sql
var updateWorkStatusQuery string

func (db *DBRepository) UpdateWorkStatus(ctx context.Context, workID int, status data.WorkStatus) error {
	_, err := db.storage.Exec(ctx, updateWorkStatusQuery, workID, string(status))
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/delete_work.sql
var deleteWorkQuery string

func (db *DBRepository) DeleteWork(ctx context.Context, workID int) error {
	_, err := db.storage.Exec(ctx, deleteWorkQuery, workID)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/count_settled_withdrawals.sql
var countSettledWithdrawalsQuery string

func (db *DBRepository) CountSettledWithdrawals(ctx context.Context, workID int) (count int, err error) {
	err = db.storage.QueryValue(ctx, countSettledWithdrawalsQuery, []any{workID}, []any{&count})
	if err != nil {
		return 0, handleSQLError(err)
	}
	return count, nil
}

//go:embed sql/insert_withdrawal.sql
var insertWithdrawalQuery string

func (db *DBRepository) InsertWithdrawal(ctx context.Context, withdrawal data.Withdrawal) (data.Withdrawal, error) {
	err := db.storage.QueryValue(
		ctx,
		insertWithdrawalQuery,
		[]any{
			string(withdrawal.Family),
			withdrawal.WorkID,
			withdrawal.Amount,
			withdrawal.Currency,
			string(withdrawal.Status),
		},
		[]any{&withdrawal.ID, &withdrawal.CreatedAt},
	)
	if err != nil {
		return data.Withdrawal{}, handleSQLError(err)
	}
	return withdrawal, nil
}

//go:embed sql/select_withdrawal_for_update.sql
var selectWithdrawalForUpdateQuery string

func (db *DBRepository) GetWithdrawalForUpdate(ctx context.Context, withdrawalID int) (data.Withdrawal, error) {
	var withdrawal data.Withdrawal
	var family, status string
	err := db.storage.QueryValue(
		ctx,
		selectWithdrawalForUpdateQuery,
		[]any{withdrawalID},
		[]any{
			&withdrawal.ID,
			&family,
			&withdrawal.WorkID,
			&withdrawal.Amount,
			&withdrawal.Currency,
			&status,
			&withdrawal.CheckedBy,
			&withdrawal.CheckedAt,
			&withdrawal.CreatedAt,
			&withdrawal.OperatorID,
		},
	)
	if err != nil {
		return data.Withdrawal{}, handleSQLError(err)
	}
	withdrawal.Family = data.Family(family)
	withdrawal.Status = data.Status(status)
	return withdrawal, nil
}

//go:embed sql/update_withdrawal_status.sql
var updateWithdrawalStatusQuery string

// UpdateWithdrawalStatus is the compare-and-swap: the row moves to the next
// status only if it still sits in the expected pending set.
func (db *DBRepository) UpdateWithdrawalStatus(
	ctx context.Context,
	withdrawalID int,
	expected []data.Status,
	next data.Status,
	checkedBy int,
	checkedAt time.Time,
) (bool, error) {
	expectedStrs := make([]string, len(expected))
	for i, s := range expected {
		expectedStrs[i] = string(s)
	}
	tag, err := db.storage.Exec(
		ctx,
		updateWithdrawalStatusQuery,
		withdrawalID,
		string(next),
		checkedBy,
		checkedAt,
		expectedStrs,
	)
	if err != nil {
		return false, handleSQLError(err)
	}
	return tag.RowsAffected() > 0, nil
}

//go:embed sql/upsert_review.sql
var upsertReviewQuery string

func (db *DBRepository) UpsertReview(ctx context.Context, review data.Review) error {
	var status *string
	if review.Status != nil {
		s := string(*review.Status)
		status = &s
	}
	_, err := db.storage.Exec(
		ctx,
		upsertReviewQuery,
		review.WithdrawalID,
		string(review.Role),
		status,
		review.Comment,
		review.CheckedBy,
		review.CheckedAt,
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/select_reviews.sql
var selectReviewsQuery string

func (db *DBRepository) GetReviews(ctx context.Context, withdrawalIDs []int) ([]data.Review, error) {
	rows, err := db.storage.Query(ctx, selectReviewsQuery, withdrawalIDs)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	result := make([]data.Review, 0)
	for rows.Next() {
		var review data.Review
		var role string
		var status *string
		err := rows.Scan(
			&review.WithdrawalID,
			&role,
			&status,
			&review.Comment,
			&review.CheckedBy,
			&review.CheckedAt,
		)
		if err != nil {
			return nil, handleSQLError(err)
		}
		review.Role = data.Role(role)
		if status != nil {
			s := data.Status(*status)
			review.Status = &s
		}
		result = append(result, review)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return result, nil
}

//go:embed sql/insert_task.sql
var insertTaskQuery string

func (db *DBRepository) InsertTask(ctx context.Context, task data.Task) (data.Task, error) {
	err := db.storage.QueryValue(
		ctx,
		insertTaskQuery,
		[]any{task.WithdrawalID, string(task.Family), task.Title, task.CreatedBy},
		[]any{&task.ID, &task.CreatedAt},
	)
	if err != nil {
		return data.Task{}, handleSQLError(err)
	}
	return task, nil
}

//go:embed sql/insert_action.sql
var insertActionQuery string

func (db *DBRepository) InsertAction(ctx context.Context, record data.ActionRecord) error {
	oldValues, err := marshalValues(record.OldValues)
	if err != nil {
		return err
	}
	newValues, err := marshalValues(record.NewValues)
	if err != nil {
		return err
	}
	_, err = db.storage.Exec(
		ctx,
		insertActionQuery,
		record.Action,
		record.EntityType,
		record.EntityID,
		record.ActorID,
		string(record.ActorRole),
		oldValues,
		newValues,
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

func (db *DBRepository) ListWithdrawals(
	ctx context.Context,
	filter data.WithdrawalFilter,
) ([]data.Withdrawal, error) {
	query := `SELECT w.id, w.family, w.work_id, w.amount, w.currency, w.status,
       w.checked_by, w.checked_at, w.created_at, wk.operator_id
FROM withdrawals w
         JOIN works wk ON wk.id = w.work_id`
	conditions := make([]string, 0)
	args := make([]any, 0)

	appendCondition := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if len(filter.Families) > 0 {
		families := make([]string, len(filter.Families))
		for i, f := range filter.Families {
			families[i] = string(f)
		}
		appendCondition("w.family = ANY ($%d)", families)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		appendCondition("w.status = ANY ($%d)", statuses)
	}
	if filter.OperatorID != nil {
		appendCondition("wk.operator_id = $%d", *filter.OperatorID)
	}
	if filter.OwnerOperatorID != nil {
		appendCondition("wk.operator_id = $%d", *filter.OwnerOperatorID)
	}
	if filter.TeamleadID != nil {
		appendCondition("wk.operator_id IN (SELECT id FROM users WHERE teamlead_id = $%d)", *filter.TeamleadID)
	}
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY w.created_at DESC, w.id DESC"

	db.logger.DebugCtx(ctx, "listing withdrawals", zap.Int("conditions", len(conditions)))

	rows, err := db.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	result := make([]data.Withdrawal, 0)
	for rows.Next() {
		var withdrawal data.Withdrawal
		var family, status string
		err := rows.Scan(
			&withdrawal.ID,
			&family,
			&withdrawal.WorkID,
			&withdrawal.Amount,
			&withdrawal.Currency,
			&status,
			&withdrawal.CheckedBy,
			&withdrawal.CheckedAt,
			&withdrawal.CreatedAt,
			&withdrawal.OperatorID,
		)
		if err != nil {
			return nil, handleSQLError(err)
		}
		withdrawal.Family = data.Family(family)
		withdrawal.Status = data.Status(status)
		result = append(result, withdrawal)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return result, nil
}

func marshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	res, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action values: %w", err)
	}
	return res, nil
}

func handleSQLError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return data.ErrUniqueConstraintViolation
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return data.ErrNoRecord
	}
	return err
}
