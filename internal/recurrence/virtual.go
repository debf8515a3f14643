package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/LifeLedger/internal/models"
)

const virtualPrefix = "virtual-"

// VirtualID formats the synthetic identity of an unmaterialized occurrence.
func VirtualID(ruleID int64, date time.Time) string {
	return fmt.Sprintf("%s%d-%s", virtualPrefix, ruleID, date.Format(models.DateLayout))
}

// IsVirtualID reports whether id looks like a virtual transaction id.
func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, virtualPrefix)
}

// ParseVirtualID splits a virtual id back into rule id and occurrence date.
func ParseVirtualID(id string) (int64, time.Time, error) {
	rest, ok := strings.CutPrefix(id, virtualPrefix)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("not a virtual transaction id: %q", id)
	}

	// The date itself contains dashes, so split on the first one only.
	ruleStr, dateStr, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("malformed virtual transaction id: %q", id)
	}

	ruleID, err := strconv.ParseInt(ruleStr, 10, 64)
	if err != nil || ruleID <= 0 {
		return 0, time.Time{}, fmt.Errorf("malformed rule id in virtual transaction id: %q", id)
	}

	date, err := models.ParseDate(dateStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed date in virtual transaction id %q: %w", id, err)
	}

	return ruleID, date, nil
}

// Virtual builds the projected transaction for one occurrence of rule.
func Virtual(rule *models.RecurringTransaction, date time.Time) models.Transaction {
	tx := rule.Occurrence(date)
	tx.VirtualID = VirtualID(rule.RecurringTransactionID, tx.Date)
	tx.IsVirtual = true
	return *tx
}
