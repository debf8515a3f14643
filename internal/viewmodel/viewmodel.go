// Package viewmodel turns fetched ledger rows into the chart-ready shapes the
// summary, planning and net-worth screens render. Everything here is a pure
// function of its inputs and is recomputed on every request.
package viewmodel

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/models"
)

// UncategorizedName labels rows without a category.
const UncategorizedName = "Uncategorized"

var hundred = decimal.NewFromInt(100)

// percent returns part as a percentage of total rounded to two places.
func percent(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}

// tree indexes categories by id and resolves each one to its top-level
// ancestor.
type tree struct {
	byID     map[int64]*models.Category
	children map[int64][]*models.Category
	roots    []*models.Category
}

func newTree(categories []*models.Category) *tree {
	t := &tree{
		byID:     make(map[int64]*models.Category, len(categories)),
		children: make(map[int64][]*models.Category),
	}
	for _, c := range categories {
		t.byID[c.CategoryID] = c
	}
	for _, c := range categories {
		if c.ParentID != nil {
			if _, ok := t.byID[*c.ParentID]; ok {
				t.children[*c.ParentID] = append(t.children[*c.ParentID], c)
				continue
			}
		}
		t.roots = append(t.roots, c)
	}

	bySort := func(a, b *models.Category) int {
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	}
	slices.SortFunc(t.roots, bySort)
	for id := range t.children {
		slices.SortFunc(t.children[id], bySort)
	}
	return t
}
