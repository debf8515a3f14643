// Package cron materializes due recurring transactions. A Processor run
// walks every active rule whose next run date has arrived, inserts the
// occurrences it owes and advances the rule's schedule.
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/recurrence"
)

// MaxCatchUp caps how many occurrences one rule may insert in a single run.
const MaxCatchUp = 100

type RuleStore interface {
	ListDue(ctx context.Context, now time.Time) ([]*models.RecurringTransaction, error)
	SetSchedule(ctx context.Context, ruleID int64, nextRunAt, lastRunAt *time.Time, isActive bool) error
	HasException(ctx context.Context, ruleID int64, date time.Time) (bool, error)
}

type TransactionInserter interface {
	Create(ctx context.Context, tx *models.Transaction) error
}

type TxRunner interface {
	WithUser(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}

// Notifier is told about runs that had failures.
type Notifier interface {
	NotifyRun(ctx context.Context, summary Summary) error
}

const (
	StatusProcessed = "processed"
	StatusError     = "error"
)

// Detail is the outcome for one rule.
type Detail struct {
	RecurringTransactionID int64   `json:"recurringTransactionId"`
	UserID                 string  `json:"userId"`
	Status                 string  `json:"status"`
	Created                int     `json:"created"`
	NextRunAt              *string `json:"nextRunAt,omitempty"`
	Deactivated            bool    `json:"deactivated,omitempty"`
	Error                  string  `json:"error,omitempty"`
}

// Summary reports a run. Success is false only when the due rules could not
// be listed; per-rule failures are counted in Errors.
type Summary struct {
	Success   bool     `json:"success"`
	Processed int      `json:"processed"`
	Errors    int      `json:"errors"`
	Total     int      `json:"total"`
	Duration  string   `json:"duration"`
	Details   []Detail `json:"details"`
	Error     string   `json:"error,omitempty"`
}

type Processor struct {
	rules    RuleStore
	inserter TransactionInserter
	db       TxRunner
	notifier Notifier
	location *time.Location
	now      func() time.Time

	// mu keeps manual and scheduled runs from processing the same rules twice.
	mu sync.Mutex
}

func NewProcessor(db TxRunner, rules RuleStore, inserter TransactionInserter, loc *time.Location) *Processor {
	if loc == nil {
		loc = time.UTC
	}
	return &Processor{
		rules:    rules,
		inserter: inserter,
		db:       db,
		location: loc,
		now:      time.Now,
	}
}

// SetNotifier sets where runs with errors are reported.
func (p *Processor) SetNotifier(n Notifier) {
	p.notifier = n
}

// SetClock replaces the wall clock.
func (p *Processor) SetClock(now func() time.Time) {
	p.now = now
}

// Run processes every due rule. Each rule is handled in its own
// transaction scoped to the rule's owner; a failing rule is rolled back and
// the run continues with the next one.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	now := p.now()
	today := models.DateOf(now.In(p.location))
	summary := Summary{Details: []Detail{}}

	rules, err := p.rules.ListDue(ctx, today)
	if err != nil {
		summary.Duration = elapsed(start)
		summary.Error = "failed to list due recurring transactions"
		common.LogError(ctx, err, summary.Error, nil)
		return summary, fmt.Errorf("failed to list due recurring transactions: %w", err)
	}

	summary.Success = true
	summary.Total = len(rules)
	for _, rule := range rules {
		detail := p.process(ctx, rule, today, now)
		if detail.Status == StatusError {
			summary.Errors++
		} else {
			summary.Processed++
		}
		summary.Details = append(summary.Details, detail)
	}
	summary.Duration = elapsed(start)

	common.LogInfo(ctx, "recurring transactions processed", common.Fields{
		"total":     summary.Total,
		"processed": summary.Processed,
		"errors":    summary.Errors,
		"duration":  summary.Duration,
	})

	if summary.Errors > 0 && p.notifier != nil {
		if err := p.notifier.NotifyRun(ctx, summary); err != nil {
			common.LogError(ctx, err, "failed to send cron notification", nil)
		}
	}
	return summary, nil
}

func (p *Processor) process(ctx context.Context, rule *models.RecurringTransaction, today, now time.Time) Detail {
	detail := Detail{
		RecurringTransactionID: rule.RecurringTransactionID,
		UserID:                 rule.UserID,
		Status:                 StatusProcessed,
	}

	var (
		created int
		next    *time.Time
		active  bool
	)
	err := p.db.WithUser(ctx, rule.UserID, func(ctx context.Context) error {
		created = 0
		var err error
		next, active, err = p.catchUp(ctx, rule, today, &created)
		if err != nil {
			return err
		}
		return p.rules.SetSchedule(ctx, rule.RecurringTransactionID, next, &now, active)
	})
	if err != nil {
		common.LogError(ctx, err, "failed to process recurring transaction", common.Fields{
			"recurring_transaction_id": rule.RecurringTransactionID,
			"user_id":                  rule.UserID,
		})
		detail.Status = StatusError
		detail.Error = err.Error()
		return detail
	}

	detail.Created = created
	detail.Deactivated = !active
	if next != nil {
		s := next.Format(models.DateLayout)
		detail.NextRunAt = &s
	}
	return detail
}

// catchUp inserts every owed occurrence from rule.NextRunAt through today
// and returns the following run date, or a nil date and false when the rule
// has no occurrences left.
func (p *Processor) catchUp(ctx context.Context, rule *models.RecurringTransaction, today time.Time, created *int) (*time.Time, bool, error) {
	if rule.NextRunAt == nil {
		return nil, false, nil
	}

	d := models.DateOf(*rule.NextRunAt)
	for i := 0; i < MaxCatchUp && !d.After(today); i++ {
		if rule.EndAt != nil && d.After(*rule.EndAt) {
			return nil, false, nil
		}

		skip, err := p.rules.HasException(ctx, rule.RecurringTransactionID, d)
		if err != nil {
			return nil, false, err
		}
		if !skip {
			if err := p.inserter.Create(ctx, rule.Occurrence(d)); err != nil {
				return nil, false, fmt.Errorf("failed to insert occurrence %s: %w", d.Format(models.DateLayout), err)
			}
			*created++
		}

		next := recurrence.NextOccurrence(d, rule.Frequency, rule.Interval)
		if !next.After(d) {
			return nil, false, nil
		}
		d = next
	}

	if rule.EndAt != nil && d.After(*rule.EndAt) {
		return nil, false, nil
	}
	return &d, true, nil
}

func elapsed(start time.Time) string {
	return fmt.Sprintf("%dms", time.Since(start).Milliseconds())
}
