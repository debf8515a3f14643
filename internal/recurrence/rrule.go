package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/LifeLedger/internal/models"
)

var toRRuleFreq = map[models.Frequency]rrule.Frequency{
	models.FrequencyDaily:   rrule.DAILY,
	models.FrequencyWeekly:  rrule.WEEKLY,
	models.FrequencyMonthly: rrule.MONTHLY,
	models.FrequencyYearly:  rrule.YEARLY,
}

// Schedule is the frequency part of a rule as read from an RRULE.
type Schedule struct {
	Frequency models.Frequency
	Interval  int
	StartAt   *time.Time
	EndAt     *time.Time
}

// ToRRule renders the rule's schedule as an RFC 5545 RRULE value
// (without the "RRULE:" prefix).
func ToRRule(rule *models.RecurringTransaction) string {
	freq, ok := toRRuleFreq[rule.Frequency]
	if !ok {
		return ""
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: rule.Interval,
	}
	if rule.EndAt != nil {
		opt.Until = models.DateOf(*rule.EndAt)
	}
	return opt.RRuleString()
}

// FromRRule parses an RRULE (optionally preceded by a DTSTART line) into a
// Schedule. Only the DAILY, WEEKLY, MONTHLY and YEARLY frequencies are
// accepted; BYxxx parts are not representable and are rejected.
func FromRRule(ruleStr string) (*Schedule, error) {
	lines := strings.Split(strings.TrimSpace(ruleStr), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(line), "RRULE:")
	}

	opt, err := rrule.StrToROption(strings.Join(lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}

	var freq models.Frequency
	for f, rf := range toRRuleFreq {
		if rf == opt.Freq {
			freq = f
		}
	}
	if freq == "" {
		return nil, fmt.Errorf("unsupported RRULE frequency %v", opt.Freq)
	}

	if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bymonth) > 0 ||
		len(opt.Bysetpos) > 0 || len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 {
		return nil, fmt.Errorf("RRULE BY* parts are not supported")
	}
	if opt.Count > 0 {
		return nil, fmt.Errorf("RRULE COUNT is not supported, use UNTIL")
	}

	s := &Schedule{Frequency: freq, Interval: opt.Interval}
	if s.Interval == 0 {
		s.Interval = 1
	}
	if !opt.Dtstart.IsZero() {
		start := models.DateOf(opt.Dtstart)
		s.StartAt = &start
	}
	if !opt.Until.IsZero() {
		end := models.DateOf(opt.Until)
		s.EndAt = &end
	}
	return s, nil
}

var unitNames = map[models.Frequency]string{
	models.FrequencyDaily:   "day",
	models.FrequencyWeekly:  "week",
	models.FrequencyMonthly: "month",
	models.FrequencyYearly:  "year",
}

// Describe returns a short human-readable description such as
// "every 2 weeks until 2025-06-30".
func Describe(rule *models.RecurringTransaction) string {
	unit, ok := unitNames[rule.Frequency]
	if !ok {
		return "one-time"
	}

	var sb strings.Builder
	if rule.Interval <= 1 {
		sb.WriteString("every " + unit)
	} else {
		fmt.Fprintf(&sb, "every %d %ss", rule.Interval, unit)
	}
	if rule.EndAt != nil {
		sb.WriteString(" until " + rule.EndAt.Format(models.DateLayout))
	}
	return sb.String()
}
