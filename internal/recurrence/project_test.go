package recurrence

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/LifeLedger/internal/models"
)

func monthlyRule() *models.RecurringTransaction {
	category := int64(7)
	return &models.RecurringTransaction{
		RecurringTransactionID: 42,
		UserID:                 "user-1",
		Amount:                 decimal.RequireFromString("-1200.00"),
		Note:                   "Rent",
		CategoryID:             &category,
		Frequency:              models.FrequencyMonthly,
		Interval:               1,
		StartAt:                date("2024-01-01"),
	}
}

func formatDates(ds []time.Time) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Format(models.DateLayout)
	}
	return out
}

func TestOccurrences_WindowIsStartExclusiveEndInclusive(t *testing.T) {
	rule := monthlyRule()

	got := slices.Collect(Occurrences(rule, date("2024-03-15"), date("2024-06-01"), DefaultProjectionLimit))

	assert.Equal(t, []string{"2024-04-01", "2024-05-01", "2024-06-01"}, formatDates(got))
}

func TestOccurrences_StartOnWindowStartIsExcluded(t *testing.T) {
	rule := monthlyRule()

	got := slices.Collect(Occurrences(rule, date("2024-01-01"), date("2024-02-15"), 10))

	assert.Equal(t, []string{"2024-02-01"}, formatDates(got))
}

func TestOccurrences_WindowBeforeStart(t *testing.T) {
	rule := monthlyRule()

	got := slices.Collect(Occurrences(rule, date("2023-06-01"), date("2024-02-01"), 10))

	assert.Equal(t, []string{"2024-01-01", "2024-02-01"}, formatDates(got))
}

func TestOccurrences_RespectsEndAt(t *testing.T) {
	rule := monthlyRule()
	end := date("2024-04-15")
	rule.EndAt = &end

	got := slices.Collect(Occurrences(rule, date("2024-01-31"), date("2024-12-31"), 100))

	assert.Equal(t, []string{"2024-02-01", "2024-03-01", "2024-04-01"}, formatDates(got))
}

func TestOccurrences_Cap(t *testing.T) {
	rule := monthlyRule()
	rule.Frequency = models.FrequencyDaily

	got := slices.Collect(Occurrences(rule, date("2024-01-01"), date("2030-01-01"), 25))

	assert.Len(t, got, 25)
	assert.Equal(t, "2024-01-02", got[0].Format(models.DateLayout))
	assert.Equal(t, "2024-01-26", got[24].Format(models.DateLayout))
}

func TestOccurrences_Properties(t *testing.T) {
	rules := []*models.RecurringTransaction{monthlyRule()}
	for _, freq := range []models.Frequency{models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyYearly} {
		r := monthlyRule()
		r.Frequency = freq
		r.Interval = 2
		r.StartAt = date("2023-01-31")
		rules = append(rules, r)
	}
	withEnd := monthlyRule()
	end := date("2024-08-10")
	withEnd.EndAt = &end
	rules = append(rules, withEnd)

	windows := [][2]string{
		{"2023-12-31", "2024-12-31"},
		{"2024-02-10", "2024-03-10"},
		{"2025-01-01", "2026-06-30"},
	}

	for _, rule := range rules {
		for _, w := range windows {
			start, finish := date(w[0]), date(w[1])
			for _, limit := range []int{1, 5, 1000} {
				got := slices.Collect(Occurrences(rule, start, finish, limit))
				assert.LessOrEqual(t, len(got), limit)
				for i, d := range got {
					assert.True(t, d.After(start))
					assert.False(t, d.After(finish))
					if rule.EndAt != nil {
						assert.False(t, d.After(*rule.EndAt))
					}
					if i > 0 {
						assert.True(t, d.After(got[i-1]))
					}
				}
			}
		}
	}
}

func TestOccurrences_InvalidRule(t *testing.T) {
	rule := monthlyRule()
	rule.Frequency = "FORTNIGHTLY"
	assert.Empty(t, slices.Collect(Occurrences(rule, date("2023-01-01"), date("2025-01-01"), 10)))

	rule = monthlyRule()
	rule.Interval = 0
	assert.Empty(t, slices.Collect(Occurrences(rule, date("2023-01-01"), date("2025-01-01"), 10)))

	assert.Empty(t, slices.Collect(Occurrences(nil, date("2023-01-01"), date("2025-01-01"), 10)))
	assert.Empty(t, slices.Collect(Occurrences(monthlyRule(), date("2023-01-01"), date("2025-01-01"), 0)))
}

func TestOccurrences_Restartable(t *testing.T) {
	seq := Occurrences(monthlyRule(), date("2024-01-15"), date("2024-05-15"), 10)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	// Early break must not disturb later iterations.
	for range seq {
		break
	}
	assert.Equal(t, first, slices.Collect(seq))
}

func TestProject_BuildsVirtualTransactions(t *testing.T) {
	rule := monthlyRule()

	got := Project(rule, date("2024-03-15"), date("2024-05-01"), DefaultProjectionLimit)

	require.Len(t, got, 2)
	tx := got[0]
	assert.True(t, tx.IsVirtual)
	assert.Equal(t, "virtual-42-2024-04-01", tx.VirtualID)
	assert.Equal(t, "virtual-42-2024-04-01", tx.Key())
	assert.Equal(t, "Rent", tx.Note)
	assert.True(t, rule.Amount.Equal(tx.Amount))
	assert.Equal(t, rule.CategoryID, tx.CategoryID)
	require.NotNil(t, tx.RecurringTransactionID)
	assert.Equal(t, int64(42), *tx.RecurringTransactionID)
	assert.False(t, tx.IsIncome())
	assert.Zero(t, tx.TransactionID)
}

func TestIsOccurrence(t *testing.T) {
	rule := monthlyRule()
	end := date("2024-06-30")
	rule.EndAt = &end

	assert.True(t, IsOccurrence(rule, date("2024-01-01")))
	assert.True(t, IsOccurrence(rule, date("2024-06-01")))
	assert.False(t, IsOccurrence(rule, date("2024-06-02")))
	assert.False(t, IsOccurrence(rule, date("2023-12-01")))
	assert.False(t, IsOccurrence(rule, date("2024-07-01")))
}
