package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/recurrence"
)

// TransactionInput is a new one-off transaction.
type TransactionInput struct {
	Date       time.Time
	Note       string
	Amount     decimal.Decimal
	CategoryID *int64
	AccountID  *uuid.UUID
}

// TransactionPatch holds the fields an edit changes; nil fields are kept.
type TransactionPatch struct {
	Date       *time.Time
	Note       *string
	Amount     *decimal.Decimal
	CategoryID *int64
}

func (p TransactionPatch) applyTo(tx *models.Transaction) {
	if p.Date != nil {
		tx.Date = models.DateOf(*p.Date)
	}
	if p.Note != nil {
		tx.Note = *p.Note
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		tx.CategoryID = p.CategoryID
	}
}

func (s *Service) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if in.Date.IsZero() {
		return nil, common.Invalidf("date is required")
	}
	if in.Amount.IsZero() {
		return nil, common.Invalidf("amount must not be zero")
	}

	tx := &models.Transaction{
		UserID:     userID,
		AccountID:  in.AccountID,
		Date:       models.DateOf(in.Date),
		Note:       strings.TrimSpace(in.Note),
		Amount:     in.Amount,
		CategoryID: in.CategoryID,
	}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		if err := s.requireWrite(ctx, userID, tx.AccountID); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateTransaction edits a persisted row. A virtual id is materialized
// with the patch applied instead.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (*models.Transaction, error) {
	if recurrence.IsVirtualID(id) {
		return s.Materialize(ctx, userID, id, patch)
	}

	txID, err := parseTransactionID(id)
	if err != nil {
		return nil, err
	}

	var tx *models.Transaction
	err = s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		tx, err = s.transactions.GetByID(ctx, userID, txID)
		if err != nil {
			return err
		}
		if err := s.requireWrite(ctx, userID, tx.AccountID); err != nil {
			return err
		}
		patch.applyTo(tx)
		return s.transactions.Update(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// DeleteTransaction removes one row. Deleting a virtual or a generated row
// also stops its rule from producing that date again.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		return s.deleteOccurrence(ctx, userID, nil, id)
	})
}

// Materialize turns a virtual occurrence into a persisted row. The row
// copies the projection (date, note, amount, category), with patch applied
// on top, and is detached from the rule: it has no recurring link and the
// rule records an exception so the virtual row is not produced again.
func (s *Service) Materialize(ctx context.Context, userID, virtualID string, patch TransactionPatch) (*models.Transaction, error) {
	ruleID, date, err := recurrence.ParseVirtualID(virtualID)
	if err != nil {
		return nil, common.NewUserError(err.Error(), common.ErrInvalidInput)
	}

	var tx *models.Transaction
	err = s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		rule, err := s.recurring.GetByID(ctx, userID, ruleID)
		if err != nil {
			return err
		}
		if !recurrence.IsOccurrence(rule, date) {
			return fmt.Errorf("occurrence %s: %w", virtualID, common.ErrNotFound)
		}
		if !date.After(s.Today()) {
			return fmt.Errorf("occurrence %s is already recorded: %w", virtualID, common.ErrNotFound)
		}
		taken, err := s.recurring.HasException(ctx, ruleID, date)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("occurrence %s was already materialized or deleted: %w", virtualID, common.ErrNotFound)
		}
		if err := s.requireWrite(ctx, userID, rule.AccountID); err != nil {
			return err
		}

		projected := recurrence.Virtual(rule, date)
		tx = &projected
		tx.VirtualID = ""
		tx.IsVirtual = false
		tx.RecurringTransactionID = nil
		patch.applyTo(tx)

		if err := s.transactions.Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to materialize %s: %w", virtualID, err)
		}
		return s.recurring.AddException(ctx, userID, ruleID, date)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns the persisted rows dated within [from, to] merged
// with the virtual rows of every rule for the days after today, newest first.
// A virtual row is left out when its date already has a generated row or an
// exception.
func (s *Service) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	from, to = models.DateOf(from), models.DateOf(to)
	if to.Before(from) {
		return nil, common.Invalidf("range end %s is before start %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}

	var (
		persisted  []*models.Transaction
		rules      []*models.RecurringTransaction
		exceptions map[int64][]time.Time
	)
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		if persisted, err = s.transactions.ListByDateRange(ctx, userID, from, to); err != nil {
			return err
		}
		if rules, err = s.recurring.ListByUser(ctx, userID); err != nil {
			return err
		}
		exceptions, err = s.recurring.ListExceptions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return mergeVirtual(persisted, rules, exceptions, from, to, s.Today()), nil
}

// SearchTransactions finds stored rows whose note contains keyword, newest
// first.
func (s *Service) SearchTransactions(ctx context.Context, userID, keyword string, limit int) ([]*models.Transaction, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, common.Invalidf("search keyword is required")
	}
	var txns []*models.Transaction
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		txns, err = s.transactions.Search(ctx, userID, keyword, limit)
		return err
	})
	return txns, err
}

type occurrenceKey struct {
	ruleID int64
	date   time.Time
}

func mergeVirtual(persisted []*models.Transaction, rules []*models.RecurringTransaction, exceptions map[int64][]time.Time, from, to, today time.Time) []models.Transaction {
	out := make([]models.Transaction, 0, len(persisted))
	taken := make(map[occurrenceKey]bool)
	for _, tx := range persisted {
		out = append(out, *tx)
		if tx.RecurringTransactionID != nil {
			taken[occurrenceKey{*tx.RecurringTransactionID, models.DateOf(tx.Date)}] = true
		}
	}
	for ruleID, dates := range exceptions {
		for _, d := range dates {
			taken[occurrenceKey{ruleID, models.DateOf(d)}] = true
		}
	}

	// Occurrences start strictly after the window start.
	windowStart := from.AddDate(0, 0, -1)
	if today.After(windowStart) {
		windowStart = today
	}
	for _, rule := range rules {
		for v := range recurrence.ProjectSeq(rule, windowStart, to, recurrence.DefaultProjectionLimit) {
			if taken[occurrenceKey{rule.RecurringTransactionID, v.Date}] {
				continue
			}
			out = append(out, v)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.Key(), a.Key())
	})
	return out
}

// requireWrite checks that userID may write to a shared account. Rows
// without an account belong to the user alone.
func (s *Service) requireWrite(ctx context.Context, userID string, accountID *uuid.UUID) error {
	if accountID == nil || s.members == nil {
		return nil
	}
	role, err := s.members.Role(ctx, *accountID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("account %s: %w", accountID, common.ErrForbidden)
	}
	if err != nil {
		return err
	}
	if role == models.AccountRoleViewer {
		return fmt.Errorf("account %s is read-only for %s: %w", accountID, userID, common.ErrForbidden)
	}
	return nil
}

func parseTransactionID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, common.Invalidf("invalid transaction id %q", id)
	}
	return n, nil
}
