package recurrence

import (
	"iter"
	"slices"
	"time"

	"github.com/hray3182/LifeLedger/internal/models"
)

// DefaultProjectionLimit caps how many virtual occurrences a single
// projection may emit.
const DefaultProjectionLimit = 1000

// Occurrences yields the rule's occurrence dates that fall strictly after
// windowStart and on or before the earlier of windowEnd and rule.EndAt,
// stopping after max dates. The sequence is restartable: every range over
// it recomputes from rule.StartAt.
func Occurrences(rule *models.RecurringTransaction, windowStart, windowEnd time.Time, max int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if rule == nil || max <= 0 || rule.Interval < 1 || !rule.Frequency.Valid() {
			return
		}

		end := models.DateOf(windowEnd)
		if rule.EndAt != nil && rule.EndAt.Before(end) {
			end = models.DateOf(*rule.EndAt)
		}

		cur, ok := advancePast(models.DateOf(rule.StartAt), models.DateOf(windowStart), rule.Frequency, rule.Interval)
		if !ok {
			return
		}

		for emitted := 0; emitted < max && !cur.After(end); emitted++ {
			if !yield(cur) {
				return
			}
			next := NextOccurrence(cur, rule.Frequency, rule.Interval)
			if !next.After(cur) {
				return
			}
			cur = next
		}
	}
}

// ProjectSeq yields virtual transactions for the rule's occurrences in the window.
func ProjectSeq(rule *models.RecurringTransaction, windowStart, windowEnd time.Time, max int) iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		for date := range Occurrences(rule, windowStart, windowEnd, max) {
			if !yield(Virtual(rule, date)) {
				return
			}
		}
	}
}

// Project collects ProjectSeq into a slice.
func Project(rule *models.RecurringTransaction, windowStart, windowEnd time.Time, max int) []models.Transaction {
	return slices.Collect(ProjectSeq(rule, windowStart, windowEnd, max))
}

// IsOccurrence reports whether date is one of the rule's occurrences.
func IsOccurrence(rule *models.RecurringTransaction, date time.Time) bool {
	date = models.DateOf(date)
	for d := range Occurrences(rule, date.AddDate(0, 0, -1), date, 1) {
		return d.Equal(date)
	}
	return false
}
