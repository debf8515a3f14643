package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/recurrence"
)

const user = "user-1"

func rentInput() RecurringInput {
	return RecurringInput{
		Amount:     decimal.RequireFromString("-1200.00"),
		Note:       "Rent",
		CategoryID: ptr[int64](7),
		Frequency:  models.FrequencyMonthly,
		Interval:   1,
		StartAt:    date("2024-01-01"),
	}
}

func TestCreateRecurringBackfillsUpToToday(t *testing.T) {
	f := newFixture()

	rule, report, err := f.svc.CreateRecurring(context.Background(), user, rentInput())
	require.NoError(t, err)

	assert.Equal(t, BackfillReport{Created: 2}, report)
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, f.transactions.linked(rule.RecurringTransactionID))
	assert.True(t, rule.IsActive)
	require.NotNil(t, rule.NextRunAt)
	assert.Equal(t, date("2024-04-01"), *rule.NextRunAt)
	assert.Contains(t, rule.RRule, "FREQ=MONTHLY")

	stored := f.recurring.rules[rule.RecurringTransactionID]
	assert.Equal(t, date("2024-04-01"), *stored.NextRunAt)
	assert.Equal(t, []string{user}, f.db.users)
}

func TestCreateRecurringBackfillStopsAtLimit(t *testing.T) {
	f := newFixture()
	in := rentInput()
	in.Frequency = models.FrequencyDaily
	in.StartAt = date("2023-01-01")

	rule, report, err := f.svc.CreateRecurring(context.Background(), user, in)
	require.NoError(t, err)

	assert.Equal(t, BackfillLimit, report.Created)
	assert.True(t, report.Truncated)
	assert.Len(t, f.transactions.linked(rule.RecurringTransactionID), BackfillLimit+1)
	assert.Equal(t, date("2023-01-01").AddDate(0, 0, BackfillLimit+1), *rule.NextRunAt)
}

func TestCreateRecurringBackfillContinuesAfterFailedInsert(t *testing.T) {
	f := newFixture()
	f.transactions.failOn = func(tx *models.Transaction) error {
		if tx.Date.Equal(date("2024-02-01")) {
			return errors.New("connection reset")
		}
		return nil
	}

	rule, report, err := f.svc.CreateRecurring(context.Background(), user, rentInput())
	require.NoError(t, err)

	assert.Equal(t, BackfillReport{Created: 1, Failed: 1}, report)
	assert.Equal(t, []string{"2024-01-01", "2024-03-01"}, f.transactions.linked(rule.RecurringTransactionID))
}

func TestCreateRecurringPastEndDeactivates(t *testing.T) {
	f := newFixture()
	in := rentInput()
	in.EndAt = ptr(date("2024-02-15"))

	rule, report, err := f.svc.CreateRecurring(context.Background(), user, in)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"2024-01-01", "2024-02-01"}, f.transactions.linked(rule.RecurringTransactionID))
	assert.False(t, rule.IsActive)
	assert.Nil(t, rule.NextRunAt)
}

func TestCreateRecurringFromRRule(t *testing.T) {
	f := newFixture()
	in := rentInput()
	in.Frequency = ""
	in.RRule = "FREQ=WEEKLY;INTERVAL=2"
	in.StartAt = date("2024-02-01")

	rule, _, err := f.svc.CreateRecurring(context.Background(), user, in)
	require.NoError(t, err)

	assert.Equal(t, models.FrequencyWeekly, rule.Frequency)
	assert.Equal(t, 2, rule.Interval)
	assert.Equal(t, []string{"2024-02-01", "2024-02-15", "2024-02-29", "2024-03-14"}, f.transactions.linked(rule.RecurringTransactionID))
	assert.Equal(t, date("2024-03-28"), *rule.NextRunAt)
}

func TestCreateRecurringConvertsTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	one, err := f.svc.CreateTransaction(ctx, user, TransactionInput{
		Date:   date("2024-02-10"),
		Note:   "Streaming",
		Amount: decimal.RequireFromString("-15.99"),
	})
	require.NoError(t, err)

	rule, _, err := f.svc.CreateRecurring(ctx, user, RecurringInput{
		Frequency:            models.FrequencyMonthly,
		Interval:             1,
		ConvertTransactionID: &one.TransactionID,
	})
	require.NoError(t, err)

	assert.Equal(t, date("2024-02-10"), rule.StartAt)
	assert.Equal(t, "Streaming", rule.Note)
	assert.True(t, rule.Amount.Equal(decimal.RequireFromString("-15.99")))
	assert.Equal(t, []string{"2024-02-10", "2024-03-10"}, f.transactions.linked(rule.RecurringTransactionID))
	assert.Equal(t, rule.RecurringTransactionID, *f.transactions.rows[one.TransactionID].RecurringTransactionID)
	assert.Len(t, f.transactions.rows, 2)

	_, _, err = f.svc.CreateRecurring(ctx, user, RecurringInput{
		Frequency:            models.FrequencyMonthly,
		ConvertTransactionID: &one.TransactionID,
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCreateRecurringValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *RecurringInput)
	}{
		{"unknown frequency", func(in *RecurringInput) { in.Frequency = "HOURLY" }},
		{"negative interval", func(in *RecurringInput) { in.Interval = -1 }},
		{"missing start", func(in *RecurringInput) { in.StartAt = date("0001-01-01") }},
		{"end before start", func(in *RecurringInput) { in.EndAt = ptr(date("2023-12-31")) }},
		{"unsupported rrule frequency", func(in *RecurringInput) { in.RRule = "FREQ=HOURLY" }},
		{"rrule with BYDAY", func(in *RecurringInput) { in.RRule = "FREQ=WEEKLY;BYDAY=MO,WE" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			in := rentInput()
			tt.modify(&in)

			_, _, err := f.svc.CreateRecurring(context.Background(), user, in)
			require.ErrorIs(t, err, common.ErrInvalidInput)
			assert.Empty(t, f.recurring.rules)
			assert.Empty(t, f.transactions.rows)
		})
	}
}

func TestUpdateRecurringRebackfillsAndKeepsExceptions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)
	id := rule.RecurringTransactionID

	feb := f.transactions.idOf(id, "2024-02-01")
	require.NotZero(t, feb)
	require.NoError(t, f.svc.DeleteRecurring(ctx, user, id, DeleteOccurrence, strconv.FormatInt(feb, 10)))

	in := rentInput()
	in.Amount = decimal.RequireFromString("-1300.00")
	updated, report, err := f.svc.UpdateRecurring(ctx, user, id, in)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"2024-01-01", "2024-03-01"}, f.transactions.linked(id))
	for _, tx := range f.transactions.rows {
		assert.True(t, tx.Amount.Equal(updated.Amount))
	}
}

func TestUpdateRecurringNotFound(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.UpdateRecurring(context.Background(), user, 99, rentInput())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteRecurringAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)
	id := rule.RecurringTransactionID

	detached, err := f.svc.Materialize(ctx, user, recurrence.VirtualID(id, date("2024-04-01")), TransactionPatch{})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecurring(ctx, user, id, DeleteAll, ""))

	assert.Empty(t, f.recurring.rules)
	assert.Empty(t, f.transactions.linked(id))
	require.Len(t, f.transactions.rows, 1)
	assert.Contains(t, f.transactions.rows, detached.TransactionID)

	err = f.svc.DeleteRecurring(ctx, user, id, DeleteAll, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteRecurringOccurrence(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		occurrence func(f *fixture, ruleID int64) string
		scope      DeleteScope
		wantErr    error
		wantRows   int
		wantExcept []string
	}{
		{
			name:       "virtual occurrence",
			occurrence: func(_ *fixture, id int64) string { return recurrence.VirtualID(id, date("2024-05-01")) },
			scope:      DeleteOccurrence,
			wantRows:   3,
			wantExcept: []string{"2024-05-01"},
		},
		{
			name: "persisted occurrence",
			occurrence: func(f *fixture, id int64) string {
				return strconv.FormatInt(f.transactions.idOf(id, "2024-02-01"), 10)
			},
			scope:      DeleteOccurrence,
			wantRows:   2,
			wantExcept: []string{"2024-02-01"},
		},
		{
			name:       "date that is not an occurrence",
			occurrence: func(_ *fixture, id int64) string { return recurrence.VirtualID(id, date("2024-05-02")) },
			scope:      DeleteOccurrence,
			wantErr:    common.ErrNotFound,
			wantRows:   3,
		},
		{
			name:       "occurrence of another rule",
			occurrence: func(_ *fixture, id int64) string { return recurrence.VirtualID(id+1, date("2024-05-01")) },
			scope:      DeleteOccurrence,
			wantErr:    common.ErrInvalidInput,
			wantRows:   3,
		},
		{
			name:       "missing occurrence",
			occurrence: func(*fixture, int64) string { return "" },
			scope:      DeleteOccurrence,
			wantErr:    common.ErrInvalidInput,
			wantRows:   3,
		},
		{
			name:       "unknown scope",
			occurrence: func(*fixture, int64) string { return "" },
			scope:      "future",
			wantErr:    common.ErrInvalidInput,
			wantRows:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
			require.NoError(t, err)
			id := rule.RecurringTransactionID

			err = f.svc.DeleteRecurring(ctx, user, id, tt.scope, tt.occurrence(f, id))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Len(t, f.transactions.rows, tt.wantRows)
			var got []string
			for _, d := range f.recurring.exceptions[id] {
				got = append(got, d.Format(models.DateLayout))
			}
			assert.Equal(t, tt.wantExcept, got)
		})
	}
}

func TestProjection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)
	id := rule.RecurringTransactionID

	got, err := f.svc.Projection(ctx, user, id, date("2024-03-15"), date("2024-06-01"), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, recurrence.VirtualID(id, date("2024-04-01")), got[0].Key())
	assert.Equal(t, date("2024-06-01"), got[2].Date)

	got, err = f.svc.Projection(ctx, user, id, date("2024-03-15"), date("2024-12-31"), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.svc.Projection(ctx, user, id, date("2024-06-01"), date("2024-03-15"), 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.Projection(ctx, "someone-else", id, date("2024-03-15"), date("2024-06-01"), 0)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecurringHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)

	history, err := f.svc.RecurringHistory(ctx, user, rule.RecurringTransactionID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, date("2024-01-01"), history[0].Date)

	_, err = f.svc.RecurringHistory(ctx, "someone-else", rule.RecurringTransactionID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
