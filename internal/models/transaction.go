package models

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single ledger row. Virtual transactions are projected
// occurrences of a recurring rule and carry a VirtualID instead of a
// TransactionID.
type Transaction struct {
	TransactionID          int64           `json:"-"`
	VirtualID              string          `json:"-"`
	UserID                 string          `json:"userId"`
	AccountID              *uuid.UUID      `json:"accountId,omitempty"`
	Date                   time.Time       `json:"date"`
	Note                   string          `json:"note"`
	Amount                 decimal.Decimal `json:"amount"`
	CategoryID             *int64          `json:"categoryId"`
	RecurringTransactionID *int64          `json:"recurringTransactionId,omitempty"`
	IsVirtual              bool            `json:"isVirtual,omitempty"`
	CreatedAt              time.Time       `json:"createdAt,omitzero"`
}

// IsIncome reports whether the transaction is money coming in.
func (t *Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Key returns the transaction's external identity.
func (t *Transaction) Key() string {
	if t.IsVirtual {
		return t.VirtualID
	}
	return strconv.FormatInt(t.TransactionID, 10)
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	return json.Marshal(struct {
		ID string `json:"id"`
		alias
		Date     string `json:"date"`
		IsIncome bool   `json:"isIncome"`
	}{
		ID:       t.Key(),
		alias:    alias(t),
		Date:     t.Date.Format(DateLayout),
		IsIncome: t.IsIncome(),
	})
}
