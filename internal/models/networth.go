package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NetWorthKind splits net-worth categories into assets and liabilities.
type NetWorthKind string

const (
	NetWorthAsset     NetWorthKind = "ASSET"
	NetWorthLiability NetWorthKind = "LIABILITY"
)

func (k NetWorthKind) Valid() bool {
	return k == NetWorthAsset || k == NetWorthLiability
}

type NetWorthCategory struct {
	NetWorthCategoryID int64        `json:"netWorthCategoryId"`
	UserID             string       `json:"userId"`
	Name               string       `json:"name"`
	Kind               NetWorthKind `json:"kind"`
}

type NetWorthAccount struct {
	NetWorthAccountID  int64  `json:"netWorthAccountId"`
	UserID             string `json:"userId"`
	NetWorthCategoryID int64  `json:"netWorthCategoryId"`
	Name               string `json:"name"`
	IsArchived         bool   `json:"isArchived"`
}

// NetWorthSnapshot is a dated record of account balances.
type NetWorthSnapshot struct {
	NetWorthSnapshotID int64     `json:"netWorthSnapshotId"`
	UserID             string    `json:"userId"`
	Date               time.Time `json:"date"`
	Note               string    `json:"note"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NetWorth is one account balance within a snapshot.
type NetWorth struct {
	NetWorthSnapshotID int64           `json:"netWorthSnapshotId"`
	NetWorthAccountID  int64           `json:"netWorthAccountId"`
	Value              decimal.Decimal `json:"value"`
}

// AccountRole is a member's permission on a shared account.
type AccountRole string

const (
	AccountRoleOwner  AccountRole = "OWNER"
	AccountRoleEditor AccountRole = "EDITOR"
	AccountRoleViewer AccountRole = "VIEWER"
)

func (r AccountRole) Valid() bool {
	switch r {
	case AccountRoleOwner, AccountRoleEditor, AccountRoleViewer:
		return true
	}
	return false
}

// AccountMember grants a user access to a shared account.
type AccountMember struct {
	AccountID uuid.UUID   `json:"accountId"`
	UserID    string      `json:"userId"`
	Role      AccountRole `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}
