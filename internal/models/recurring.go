package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency is the calendar unit a recurring rule advances by.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// ParseFrequency normalizes a user-supplied frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported frequency %q", s)
	}
	return f, nil
}

// RecurringTransaction is a rule that generates transactions on a schedule.
type RecurringTransaction struct {
	RecurringTransactionID int64           `json:"recurringTransactionId"`
	UserID                 string          `json:"userId"`
	Amount                 decimal.Decimal `json:"amount"`
	Note                   string          `json:"note"`
	CategoryID             *int64          `json:"categoryId"`
	Frequency              Frequency       `json:"frequency"`
	Interval               int             `json:"interval"`
	StartAt                time.Time       `json:"startAt"`
	EndAt                  *time.Time      `json:"endAt"`
	AccountID              *uuid.UUID      `json:"accountId,omitempty"`
	IsActive               bool            `json:"isActive"`
	NextRunAt              *time.Time      `json:"nextRunAt"`
	LastRunAt              *time.Time      `json:"lastRunAt"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`

	// RRule is the RFC 5545 rendering, filled in for API responses only.
	RRule string `json:"rrule,omitempty"`
}

// Validate checks the rule invariants.
func (r *RecurringTransaction) Validate() error {
	if !r.Frequency.Valid() {
		return fmt.Errorf("unsupported frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be at least 1, got %d", r.Interval)
	}
	if r.StartAt.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if r.EndAt != nil && r.EndAt.Before(r.StartAt) {
		return fmt.Errorf("end date %s is before start date %s",
			r.EndAt.Format(DateLayout), r.StartAt.Format(DateLayout))
	}
	return nil
}

// IsIncome reports whether the rule generates income.
func (r *RecurringTransaction) IsIncome() bool {
	return r.Amount.IsPositive()
}

// Occurrence builds the concrete transaction for the given occurrence date.
func (r *RecurringTransaction) Occurrence(date time.Time) *Transaction {
	id := r.RecurringTransactionID
	return &Transaction{
		UserID:                 r.UserID,
		AccountID:              r.AccountID,
		Date:                   DateOf(date),
		Note:                   r.Note,
		Amount:                 r.Amount,
		CategoryID:             r.CategoryID,
		RecurringTransactionID: &id,
	}
}

func (r RecurringTransaction) MarshalJSON() ([]byte, error) {
	type alias RecurringTransaction
	return json.Marshal(struct {
		alias
		StartAt   string  `json:"startAt"`
		EndAt     *string `json:"endAt"`
		NextRunAt *string `json:"nextRunAt"`
		IsIncome  bool    `json:"isIncome"`
	}{
		alias:     alias(r),
		StartAt:   r.StartAt.Format(DateLayout),
		EndAt:     formatDatePtr(r.EndAt),
		NextRunAt: formatDatePtr(r.NextRunAt),
		IsIncome:  r.IsIncome(),
	})
}

// RecurringException marks a logical occurrence date that a rule must no
// longer generate, because it was materialized or deleted on its own.
type RecurringException struct {
	RecurringTransactionID int64     `json:"recurringTransactionId"`
	Date                   time.Time `json:"date"`
}
