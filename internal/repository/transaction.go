package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

const transactionColumns = `"TransactionId", "UserId", "AccountId", "Date", "Note", "Amount",
	"CategoryId", "RecurringTransactionId", "CreatedAt"`

type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "Transactions" ("UserId", "AccountId", "Date", "Note", "Amount", "CategoryId", "RecurringTransactionId")
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING "TransactionId", "CreatedAt"`,
		tx.UserID, tx.AccountID, tx.Date, tx.Note, tx.Amount, tx.CategoryID, tx.RecurringTransactionID,
	).Scan(&tx.TransactionID, &tx.CreatedAt)
}

func (r *TransactionRepository) GetByID(ctx context.Context, userID string, transactionID int64) (*models.Transaction, error) {
	row := r.db.Q(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM "Transactions"
		 WHERE "TransactionId" = $1 AND "UserId" = $2`,
		transactionID, userID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err, "transaction %d", transactionID)
	}
	return tx, nil
}

func (r *TransactionRepository) ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT `+transactionColumns+` FROM "Transactions"
		 WHERE "UserId" = $1 AND "Date" >= $2 AND "Date" <= $3
		 ORDER BY "Date" DESC, "TransactionId" DESC`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *TransactionRepository) ListByRecurring(ctx context.Context, userID string, ruleID int64) ([]*models.Transaction, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT `+transactionColumns+` FROM "Transactions"
		 WHERE "UserId" = $1 AND "RecurringTransactionId" = $2
		 ORDER BY "Date" ASC`,
		userID, ruleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *TransactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`UPDATE "Transactions" SET "AccountId" = $1, "Date" = $2, "Note" = $3, "Amount" = $4,
		 "CategoryId" = $5, "RecurringTransactionId" = $6
		 WHERE "TransactionId" = $7 AND "UserId" = $8`,
		tx.AccountID, tx.Date, tx.Note, tx.Amount, tx.CategoryID, tx.RecurringTransactionID,
		tx.TransactionID, tx.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", tx.TransactionID, common.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, userID string, transactionID int64) error {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`DELETE FROM "Transactions" WHERE "TransactionId" = $1 AND "UserId" = $2`,
		transactionID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", transactionID, common.ErrNotFound)
	}
	return nil
}

// DeleteByRecurring removes every row generated by the rule.
func (r *TransactionRepository) DeleteByRecurring(ctx context.Context, userID string, ruleID int64) (int64, error) {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`DELETE FROM "Transactions" WHERE "UserId" = $1 AND "RecurringTransactionId" = $2`,
		userID, ruleID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TransactionRepository) Search(ctx context.Context, userID string, keyword string, limit int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT `+transactionColumns+` FROM "Transactions"
		 WHERE "UserId" = $1 AND "Note" ILIKE $2
		 ORDER BY "Date" DESC, "TransactionId" DESC
		 LIMIT $3`,
		userID, "%"+keyword+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	if err := row.Scan(&tx.TransactionID, &tx.UserID, &tx.AccountID, &tx.Date, &tx.Note, &tx.Amount,
		&tx.CategoryID, &tx.RecurringTransactionID, &tx.CreatedAt); err != nil {
		return nil, err
	}
	return tx, nil
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// notFound maps pgx.ErrNoRows to common.ErrNotFound.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, common.ErrNotFound)...)
	}
	return err
}
