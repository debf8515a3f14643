package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/recurrence"
)

// BackfillLimit caps how many occurrences one backfill may walk.
const BackfillLimit = 100

// DeleteScope selects what a recurring delete removes.
type DeleteScope string

const (
	DeleteAll        DeleteScope = "all"
	DeleteOccurrence DeleteScope = "occurrence"
)

// RecurringInput carries the writable fields of a rule. When RRule is set
// it supplies the frequency, interval and, if present, the start and end.
type RecurringInput struct {
	Amount     decimal.Decimal
	Note       string
	CategoryID *int64
	Frequency  models.Frequency
	Interval   int
	StartAt    time.Time
	EndAt      *time.Time
	AccountID  *uuid.UUID
	RRule      string

	// ConvertTransactionID turns an existing one-off transaction into the
	// rule's first occurrence.
	ConvertTransactionID *int64
}

// BackfillReport describes what a backfill wrote.
type BackfillReport struct {
	Created   int  `json:"created"`
	Failed    int  `json:"failed"`
	Truncated bool `json:"truncated"`
}

func (in *RecurringInput) apply(rule *models.RecurringTransaction) error {
	rule.Amount = in.Amount
	rule.Note = in.Note
	rule.CategoryID = in.CategoryID
	rule.Frequency = in.Frequency
	rule.Interval = in.Interval
	rule.StartAt = models.DateOf(in.StartAt)
	rule.EndAt = nil
	if in.EndAt != nil {
		end := models.DateOf(*in.EndAt)
		rule.EndAt = &end
	}
	rule.AccountID = in.AccountID

	if in.RRule != "" {
		sched, err := recurrence.FromRRule(in.RRule)
		if err != nil {
			return common.NewUserError(err.Error(), common.ErrInvalidInput)
		}
		rule.Frequency = sched.Frequency
		rule.Interval = sched.Interval
		if sched.StartAt != nil {
			rule.StartAt = *sched.StartAt
		}
		if sched.EndAt != nil {
			rule.EndAt = sched.EndAt
		}
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}

	if err := rule.Validate(); err != nil {
		return common.NewUserError(err.Error(), common.ErrInvalidInput)
	}
	return nil
}

// CreateRecurring persists a new rule together with its first occurrence and
// backfills every further occurrence up to today.
func (s *Service) CreateRecurring(ctx context.Context, userID string, in RecurringInput) (*models.RecurringTransaction, BackfillReport, error) {
	var (
		rule   *models.RecurringTransaction
		report BackfillReport
	)

	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var source *models.Transaction
		if in.ConvertTransactionID != nil {
			tx, err := s.transactions.GetByID(ctx, userID, *in.ConvertTransactionID)
			if err != nil {
				return err
			}
			if tx.RecurringTransactionID != nil {
				return common.Invalidf("transaction %d already belongs to a recurring rule", tx.TransactionID)
			}
			source = tx
			in.StartAt = tx.Date
			if in.Amount.IsZero() {
				in.Amount = tx.Amount
			}
			if in.Note == "" {
				in.Note = tx.Note
			}
			if in.CategoryID == nil {
				in.CategoryID = tx.CategoryID
			}
			if in.AccountID == nil {
				in.AccountID = tx.AccountID
			}
		}

		rule = &models.RecurringTransaction{UserID: userID, IsActive: true}
		if err := in.apply(rule); err != nil {
			return err
		}
		if err := s.requireWrite(ctx, userID, rule.AccountID); err != nil {
			return err
		}
		if err := s.recurring.Create(ctx, rule); err != nil {
			return fmt.Errorf("failed to create recurring transaction: %w", err)
		}

		if source != nil {
			source.RecurringTransactionID = &rule.RecurringTransactionID
			if err := s.transactions.Update(ctx, source); err != nil {
				return fmt.Errorf("failed to link transaction %d: %w", source.TransactionID, err)
			}
		} else if err := s.transactions.Create(ctx, rule.Occurrence(rule.StartAt)); err != nil {
			return fmt.Errorf("failed to create first occurrence: %w", err)
		}

		var err error
		report, err = s.backfill(ctx, rule, nil)
		return err
	})
	if err != nil {
		return nil, BackfillReport{}, err
	}

	rule.RRule = recurrence.ToRRule(rule)
	return rule, report, nil
}

// UpdateRecurring replaces a rule's fields, drops the rows it generated and
// backfills again from the new start date.
func (s *Service) UpdateRecurring(ctx context.Context, userID string, ruleID int64, in RecurringInput) (*models.RecurringTransaction, BackfillReport, error) {
	var (
		rule   *models.RecurringTransaction
		report BackfillReport
	)

	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		rule, err = s.recurring.GetByID(ctx, userID, ruleID)
		if err != nil {
			return err
		}
		if err := in.apply(rule); err != nil {
			return err
		}
		if err := s.requireWrite(ctx, userID, rule.AccountID); err != nil {
			return err
		}
		rule.IsActive = true

		if _, err := s.transactions.DeleteByRecurring(ctx, userID, ruleID); err != nil {
			return fmt.Errorf("failed to delete generated transactions: %w", err)
		}

		exceptions, err := s.recurring.ListExceptions(ctx, userID)
		if err != nil {
			return err
		}
		skip := dateSet(exceptions[ruleID])
		if !skip[rule.StartAt] {
			if err := s.transactions.Create(ctx, rule.Occurrence(rule.StartAt)); err != nil {
				return fmt.Errorf("failed to create first occurrence: %w", err)
			}
		}

		report, err = s.backfill(ctx, rule, skip)
		return err
	})
	if err != nil {
		return nil, BackfillReport{}, err
	}

	rule.RRule = recurrence.ToRRule(rule)
	return rule, report, nil
}

// backfill inserts a linked row for every occurrence after rule.StartAt up
// to today, then stores the rule with its next cron run. Each insert runs in
// its own savepoint: a failed insert is logged and counted and the loop
// moves on.
func (s *Service) backfill(ctx context.Context, rule *models.RecurringTransaction, skip map[time.Time]bool) (BackfillReport, error) {
	var report BackfillReport
	today := s.Today()

	cur := rule.StartAt
	for i := 0; ; i++ {
		next := recurrence.NextOccurrence(cur, rule.Frequency, rule.Interval)
		if !next.After(cur) || next.After(today) || pastEnd(rule, next) {
			break
		}
		if i >= BackfillLimit {
			report.Truncated = true
			common.LogInfo(ctx, "backfill truncated", common.Fields{
				"recurring_transaction_id": rule.RecurringTransactionID,
				"limit":                    BackfillLimit,
			})
			break
		}
		cur = next
		if skip[cur] {
			continue
		}

		date := cur
		err := s.db.Savepoint(ctx, func(ctx context.Context) error {
			return s.transactions.Create(ctx, rule.Occurrence(date))
		})
		if err != nil {
			report.Failed++
			common.LogError(ctx, err, "failed to backfill occurrence", common.Fields{
				"recurring_transaction_id": rule.RecurringTransactionID,
				"date":                     date.Format(models.DateLayout),
			})
			continue
		}
		report.Created++
	}

	scheduleAfter(rule, cur)
	if err := s.recurring.Update(ctx, rule); err != nil {
		return report, fmt.Errorf("failed to schedule recurring transaction: %w", err)
	}
	return report, nil
}

// scheduleAfter points NextRunAt at the first occurrence after last, or
// deactivates the rule when there is none.
func scheduleAfter(rule *models.RecurringTransaction, last time.Time) {
	next := recurrence.NextOccurrence(last, rule.Frequency, rule.Interval)
	if !next.After(last) || pastEnd(rule, next) {
		rule.IsActive = false
		rule.NextRunAt = nil
		return
	}
	rule.NextRunAt = &next
}

func pastEnd(rule *models.RecurringTransaction, date time.Time) bool {
	return rule.EndAt != nil && date.After(*rule.EndAt)
}

func (s *Service) GetRecurring(ctx context.Context, userID string, ruleID int64) (*models.RecurringTransaction, error) {
	var rule *models.RecurringTransaction
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		rule, err = s.recurring.GetByID(ctx, userID, ruleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	rule.RRule = recurrence.ToRRule(rule)
	return rule, nil
}

func (s *Service) ListRecurring(ctx context.Context, userID string) ([]*models.RecurringTransaction, error) {
	var rules []*models.RecurringTransaction
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		rules, err = s.recurring.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		r.RRule = recurrence.ToRRule(r)
	}
	return rules, nil
}

// DeleteRecurring removes a rule with every row it generated (DeleteAll) or
// a single occurrence (DeleteOccurrence). occurrence is a transaction id or a
// virtual id and is only read for DeleteOccurrence.
func (s *Service) DeleteRecurring(ctx context.Context, userID string, ruleID int64, scope DeleteScope, occurrence string) error {
	switch scope {
	case DeleteAll, "":
		return s.db.WithUser(ctx, userID, func(ctx context.Context) error {
			if _, err := s.recurring.GetByID(ctx, userID, ruleID); err != nil {
				return err
			}
			if _, err := s.transactions.DeleteByRecurring(ctx, userID, ruleID); err != nil {
				return fmt.Errorf("failed to delete generated transactions: %w", err)
			}
			return s.recurring.Delete(ctx, userID, ruleID)
		})
	case DeleteOccurrence:
		if occurrence == "" {
			return common.Invalidf("occurrence is required when deleting a single occurrence")
		}
		return s.db.WithUser(ctx, userID, func(ctx context.Context) error {
			return s.deleteOccurrence(ctx, userID, &ruleID, occurrence)
		})
	default:
		return common.Invalidf("unknown delete scope %q", scope)
	}
}

// deleteOccurrence removes one occurrence so it is neither shown again nor
// regenerated. ruleID, when set, must own the occurrence.
func (s *Service) deleteOccurrence(ctx context.Context, userID string, ruleID *int64, id string) error {
	if recurrence.IsVirtualID(id) {
		virtualRule, date, err := recurrence.ParseVirtualID(id)
		if err != nil {
			return common.NewUserError(err.Error(), common.ErrInvalidInput)
		}
		if ruleID != nil && *ruleID != virtualRule {
			return common.Invalidf("occurrence %s does not belong to recurring transaction %d", id, *ruleID)
		}
		rule, err := s.recurring.GetByID(ctx, userID, virtualRule)
		if err != nil {
			return err
		}
		if !recurrence.IsOccurrence(rule, date) {
			return fmt.Errorf("occurrence %s: %w", id, common.ErrNotFound)
		}
		return s.recurring.AddException(ctx, userID, virtualRule, date)
	}

	txID, err := parseTransactionID(id)
	if err != nil {
		return err
	}
	tx, err := s.transactions.GetByID(ctx, userID, txID)
	if err != nil {
		return err
	}
	if ruleID != nil && (tx.RecurringTransactionID == nil || *tx.RecurringTransactionID != *ruleID) {
		return common.Invalidf("transaction %d does not belong to recurring transaction %d", txID, *ruleID)
	}
	if err := s.requireWrite(ctx, userID, tx.AccountID); err != nil {
		return err
	}
	if err := s.transactions.Delete(ctx, userID, txID); err != nil {
		return err
	}
	if tx.RecurringTransactionID != nil {
		return s.recurring.AddException(ctx, userID, *tx.RecurringTransactionID, tx.Date)
	}
	return nil
}

// Projection returns the virtual rows the rule would generate after from and
// up to to, at most limit of them.
func (s *Service) Projection(ctx context.Context, userID string, ruleID int64, from, to time.Time, limit int) ([]models.Transaction, error) {
	if to.Before(from) {
		return nil, common.Invalidf("range end %s is before start %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}
	if limit <= 0 || limit > recurrence.DefaultProjectionLimit {
		limit = recurrence.DefaultProjectionLimit
	}

	rule, err := s.GetRecurring(ctx, userID, ruleID)
	if err != nil {
		return nil, err
	}
	return recurrence.Project(rule, from, to, limit), nil
}

// RecurringHistory lists the stored rows a rule has generated, oldest first.
func (s *Service) RecurringHistory(ctx context.Context, userID string, ruleID int64) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		if _, err := s.recurring.GetByID(ctx, userID, ruleID); err != nil {
			return err
		}
		var err error
		txns, err = s.transactions.ListByRecurring(ctx, userID, ruleID)
		return err
	})
	return txns, err
}

func dateSet(dates []time.Time) map[time.Time]bool {
	set := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		set[models.DateOf(d)] = true
	}
	return set
}
