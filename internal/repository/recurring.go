package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

const recurringColumns = `"RecurringTransactionId", "UserId", "Amount", "Note", "CategoryId", "Frequency",
	"Interval", "StartAt", "EndAt", "AccountId", "IsActive", "NextRunAt", "LastRunAt", "CreatedAt", "UpdatedAt"`

type RecurringRepository struct {
	db *database.DB
}

func NewRecurringRepository(db *database.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(ctx context.Context, rule *models.RecurringTransaction) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "RecurringTransactions" ("UserId", "Amount", "Note", "CategoryId", "Frequency", "Interval",
		 "StartAt", "EndAt", "AccountId", "IsActive", "NextRunAt")
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING "RecurringTransactionId", "CreatedAt", "UpdatedAt"`,
		rule.UserID, rule.Amount, rule.Note, rule.CategoryID, rule.Frequency, rule.Interval,
		rule.StartAt, rule.EndAt, rule.AccountID, rule.IsActive, rule.NextRunAt,
	).Scan(&rule.RecurringTransactionID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *RecurringRepository) GetByID(ctx context.Context, userID string, ruleID int64) (*models.RecurringTransaction, error) {
	row := r.db.Q(ctx).QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM "RecurringTransactions"
		 WHERE "RecurringTransactionId" = $1 AND "UserId" = $2`,
		ruleID, userID,
	)
	rule, err := scanRecurring(row)
	if err != nil {
		return nil, notFound(err, "recurring transaction %d", ruleID)
	}
	return rule, nil
}

func (r *RecurringRepository) ListByUser(ctx context.Context, userID string) ([]*models.RecurringTransaction, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT `+recurringColumns+` FROM "RecurringTransactions"
		 WHERE "UserId" = $1 ORDER BY "StartAt" ASC, "RecurringTransactionId" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecurringRows(rows)
}

// ListDue returns active rules of every user whose next run is due at now.
func (r *RecurringRepository) ListDue(ctx context.Context, now time.Time) ([]*models.RecurringTransaction, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT `+recurringColumns+` FROM "RecurringTransactions"
		 WHERE "IsActive" = true AND "NextRunAt" <= $1
		 ORDER BY "NextRunAt" ASC, "RecurringTransactionId" ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecurringRows(rows)
}

func (r *RecurringRepository) Update(ctx context.Context, rule *models.RecurringTransaction) error {
	err := r.db.Q(ctx).QueryRow(ctx,
		`UPDATE "RecurringTransactions" SET "Amount" = $1, "Note" = $2, "CategoryId" = $3, "Frequency" = $4,
		 "Interval" = $5, "StartAt" = $6, "EndAt" = $7, "AccountId" = $8, "IsActive" = $9, "NextRunAt" = $10,
		 "UpdatedAt" = NOW()
		 WHERE "RecurringTransactionId" = $11 AND "UserId" = $12
		 RETURNING "UpdatedAt"`,
		rule.Amount, rule.Note, rule.CategoryID, rule.Frequency, rule.Interval, rule.StartAt, rule.EndAt,
		rule.AccountID, rule.IsActive, rule.NextRunAt, rule.RecurringTransactionID, rule.UserID,
	).Scan(&rule.UpdatedAt)
	return notFound(err, "recurring transaction %d", rule.RecurringTransactionID)
}

// SetSchedule stores the cron bookkeeping columns of a rule.
func (r *RecurringRepository) SetSchedule(ctx context.Context, ruleID int64, nextRunAt *time.Time, lastRunAt *time.Time, isActive bool) error {
	_, err := r.db.Q(ctx).Exec(ctx,
		`UPDATE "RecurringTransactions" SET "NextRunAt" = $1, "LastRunAt" = COALESCE($2, "LastRunAt"),
		 "IsActive" = $3, "UpdatedAt" = NOW()
		 WHERE "RecurringTransactionId" = $4`,
		nextRunAt, lastRunAt, isActive, ruleID,
	)
	return err
}

func (r *RecurringRepository) Delete(ctx context.Context, userID string, ruleID int64) error {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`DELETE FROM "RecurringTransactions" WHERE "RecurringTransactionId" = $1 AND "UserId" = $2`,
		ruleID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recurring transaction %d: %w", ruleID, common.ErrNotFound)
	}
	return nil
}

// AddException records that the rule must not generate date again.
func (r *RecurringRepository) AddException(ctx context.Context, userID string, ruleID int64, date time.Time) error {
	_, err := r.db.Q(ctx).Exec(ctx,
		`INSERT INTO "RecurringTransactionExceptions" ("RecurringTransactionId", "UserId", "Date")
		 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		ruleID, userID, date,
	)
	return err
}

// ListExceptions returns every exception date of the user's rules keyed by rule id.
func (r *RecurringRepository) ListExceptions(ctx context.Context, userID string) (map[int64][]time.Time, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "RecurringTransactionId", "Date" FROM "RecurringTransactionExceptions"
		 WHERE "UserId" = $1 ORDER BY "Date" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exceptions := make(map[int64][]time.Time)
	for rows.Next() {
		var e models.RecurringException
		if err := rows.Scan(&e.RecurringTransactionID, &e.Date); err != nil {
			return nil, err
		}
		exceptions[e.RecurringTransactionID] = append(exceptions[e.RecurringTransactionID], e.Date)
	}
	return exceptions, rows.Err()
}

func (r *RecurringRepository) HasException(ctx context.Context, ruleID int64, date time.Time) (bool, error) {
	var exists bool
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM "RecurringTransactionExceptions"
		 WHERE "RecurringTransactionId" = $1 AND "Date" = $2)`,
		ruleID, date,
	).Scan(&exists)
	return exists, err
}

func scanRecurring(row pgx.Row) (*models.RecurringTransaction, error) {
	rule := &models.RecurringTransaction{}
	if err := row.Scan(&rule.RecurringTransactionID, &rule.UserID, &rule.Amount, &rule.Note, &rule.CategoryID,
		&rule.Frequency, &rule.Interval, &rule.StartAt, &rule.EndAt, &rule.AccountID, &rule.IsActive,
		&rule.NextRunAt, &rule.LastRunAt, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, err
	}
	return rule, nil
}

func scanRecurringRows(rows pgx.Rows) ([]*models.RecurringTransaction, error) {
	var rules []*models.RecurringTransaction
	for rows.Next() {
		rule, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
