package viewmodel

import (
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/models"
)

type AccountValue struct {
	AccountID int64               `json:"accountId"`
	Name      string              `json:"name"`
	Category  string              `json:"category"`
	Kind      models.NetWorthKind `json:"kind"`
	Value     decimal.Decimal     `json:"value"`
}

// NetWorthPoint is one snapshot's totals. Change is the difference to the
// previous snapshot and zero for the first.
type NetWorthPoint struct {
	SnapshotID  int64           `json:"snapshotId"`
	Date        string          `json:"date"`
	Note        string          `json:"note,omitempty"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	NetWorth    decimal.Decimal `json:"netWorth"`
	Change      decimal.Decimal `json:"change"`
	Accounts    []AccountValue  `json:"accounts"`
}

type NetWorthHistory struct {
	Points []NetWorthPoint `json:"points"`
	Latest *NetWorthPoint  `json:"latest"`
}

// BuildNetWorth totals each snapshot. Snapshots must be ordered by date.
// Liability balances count against net worth whatever their sign.
func BuildNetWorth(snapshots []*models.NetWorthSnapshot, values []models.NetWorth, accounts []*models.NetWorthAccount, categories []*models.NetWorthCategory) NetWorthHistory {
	categoryByID := make(map[int64]*models.NetWorthCategory, len(categories))
	for _, c := range categories {
		categoryByID[c.NetWorthCategoryID] = c
	}
	accountByID := make(map[int64]*models.NetWorthAccount, len(accounts))
	for _, a := range accounts {
		accountByID[a.NetWorthAccountID] = a
	}
	bySnapshot := make(map[int64][]models.NetWorth)
	for _, v := range values {
		bySnapshot[v.NetWorthSnapshotID] = append(bySnapshot[v.NetWorthSnapshotID], v)
	}

	h := NetWorthHistory{Points: make([]NetWorthPoint, 0, len(snapshots))}
	var prev *decimal.Decimal
	for _, s := range snapshots {
		p := NetWorthPoint{
			SnapshotID: s.NetWorthSnapshotID,
			Date:       s.Date.Format(models.DateLayout),
			Note:       s.Note,
			Accounts:   []AccountValue{},
		}
		for _, v := range bySnapshot[s.NetWorthSnapshotID] {
			account, ok := accountByID[v.NetWorthAccountID]
			if !ok {
				continue
			}
			av := AccountValue{AccountID: account.NetWorthAccountID, Name: account.Name, Kind: models.NetWorthAsset, Value: v.Value}
			if c, ok := categoryByID[account.NetWorthCategoryID]; ok {
				av.Category = c.Name
				av.Kind = c.Kind
			}
			if av.Kind == models.NetWorthLiability {
				p.Liabilities = p.Liabilities.Add(v.Value.Abs())
			} else {
				p.Assets = p.Assets.Add(v.Value)
			}
			p.Accounts = append(p.Accounts, av)
		}
		p.NetWorth = p.Assets.Sub(p.Liabilities)
		if prev != nil {
			p.Change = p.NetWorth.Sub(*prev)
		}
		net := p.NetWorth
		prev = &net
		h.Points = append(h.Points, p)
	}

	if n := len(h.Points); n > 0 {
		h.Latest = &h.Points[n-1]
	}
	return h
}
