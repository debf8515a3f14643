// Package recurrence holds the calendar arithmetic behind recurring
// transactions: stepping a rule forward and projecting its future
// occurrences as virtual transactions.
package recurrence

import (
	"time"

	"github.com/hray3182/LifeLedger/internal/models"
)

// NextOccurrence adds interval units of freq to date.
//
// Month and year steps use time.AddDate, which normalizes overflow forward:
// Jan 31 + 1 month is Mar 3 (Mar 2 in a leap year), not Feb 28.
// An unknown frequency or an interval below 1 returns date unchanged.
func NextOccurrence(date time.Time, freq models.Frequency, interval int) time.Time {
	if interval < 1 {
		return date
	}

	switch freq {
	case models.FrequencyDaily:
		return date.AddDate(0, 0, interval)
	case models.FrequencyWeekly:
		return date.AddDate(0, 0, 7*interval)
	case models.FrequencyMonthly:
		return date.AddDate(0, interval, 0)
	case models.FrequencyYearly:
		return date.AddDate(interval, 0, 0)
	default:
		return date
	}
}

// stepDays returns the fixed day length of one step, or 0 when the
// frequency is calendar-relative.
func stepDays(freq models.Frequency, interval int) int {
	switch freq {
	case models.FrequencyDaily:
		return interval
	case models.FrequencyWeekly:
		return 7 * interval
	default:
		return 0
	}
}

// advancePast returns the first occurrence of the rule's sequence starting
// at start that is strictly after bound, and false if the sequence stalls.
func advancePast(start, bound time.Time, freq models.Frequency, interval int) (time.Time, bool) {
	cur := start
	if !cur.After(bound) {
		// Day-based steps are uniform, so jump straight to the last step at or before bound.
		if days := stepDays(freq, interval); days > 0 {
			gap := int(bound.Sub(cur).Hours() / 24)
			if steps := gap / days; steps > 0 {
				cur = cur.AddDate(0, 0, steps*days)
			}
		}
	}

	for !cur.After(bound) {
		next := NextOccurrence(cur, freq, interval)
		if !next.After(cur) {
			return time.Time{}, false
		}
		cur = next
	}
	return cur, true
}
