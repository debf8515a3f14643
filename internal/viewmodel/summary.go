package viewmodel

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/models"
)

// CategoryTotal is the absolute amount booked on a category. A parent's
// Amount includes its children.
type CategoryTotal struct {
	CategoryID *int64          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
	Children   []CategoryTotal `json:"children,omitempty"`
}

type PieSlice struct {
	Name       string          `json:"name"`
	Color      string          `json:"color,omitempty"`
	Value      decimal.Decimal `json:"value"`
	Percentage float64         `json:"percentage"`
}

type SankeyNode struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// SankeyLink connects nodes by index into Sankey.Nodes.
type SankeyLink struct {
	Source int             `json:"source"`
	Target int             `json:"target"`
	Value  decimal.Decimal `json:"value"`
}

type Sankey struct {
	Nodes []SankeyNode `json:"nodes"`
	Links []SankeyLink `json:"links"`
}

// Summary is the income/expense breakdown of a set of transactions.
type Summary struct {
	Income            decimal.Decimal `json:"income"`
	Expense           decimal.Decimal `json:"expense"`
	Net               decimal.Decimal `json:"net"`
	Count             int             `json:"count"`
	IncomeCategories  []CategoryTotal `json:"incomeCategories"`
	ExpenseCategories []CategoryTotal `json:"expenseCategories"`
	Pie               []PieSlice      `json:"pie"`
	Sankey            Sankey          `json:"sankey"`
}

const (
	budgetNode  = "Budget"
	savingsNode = "Savings"
)

// BuildSummary totals txns by sign and category. Positive amounts are
// income, negative amounts expense; category totals are absolute values.
func BuildSummary(txns []models.Transaction, categories []*models.Category) Summary {
	t := newTree(categories)

	var s Summary
	income := make(map[int64]decimal.Decimal)
	expense := make(map[int64]decimal.Decimal)
	var uncatIncome, uncatExpense decimal.Decimal

	for _, tx := range txns {
		s.Count++
		amount := tx.Amount.Abs()
		switch {
		case tx.Amount.IsPositive():
			s.Income = s.Income.Add(amount)
			uncatIncome = addTo(income, tx.CategoryID, t, amount, uncatIncome)
		case tx.Amount.IsNegative():
			s.Expense = s.Expense.Add(amount)
			uncatExpense = addTo(expense, tx.CategoryID, t, amount, uncatExpense)
		}
	}
	s.Net = s.Income.Sub(s.Expense)

	s.IncomeCategories = rollUp(t, income, uncatIncome, s.Income)
	s.ExpenseCategories = rollUp(t, expense, uncatExpense, s.Expense)

	s.Pie = make([]PieSlice, 0, len(s.ExpenseCategories))
	for _, c := range s.ExpenseCategories {
		s.Pie = append(s.Pie, PieSlice{Name: c.Name, Color: c.Color, Value: c.Amount, Percentage: c.Percentage})
	}

	s.Sankey = buildSankey(s)
	return s
}

// addTo books amount on the category, or returns uncat increased by amount
// when the category is unknown.
func addTo(totals map[int64]decimal.Decimal, categoryID *int64, t *tree, amount, uncat decimal.Decimal) decimal.Decimal {
	if categoryID == nil {
		return uncat.Add(amount)
	}
	if _, ok := t.byID[*categoryID]; !ok {
		return uncat.Add(amount)
	}
	totals[*categoryID] = totals[*categoryID].Add(amount)
	return uncat
}

// rollUp sums child totals into their parents and sorts parents by amount.
func rollUp(t *tree, totals map[int64]decimal.Decimal, uncat, grand decimal.Decimal) []CategoryTotal {
	var out []CategoryTotal
	for _, root := range t.roots {
		parent := CategoryTotal{
			CategoryID: &root.CategoryID,
			Name:       root.Name,
			Color:      root.Color,
			Amount:     totals[root.CategoryID],
		}
		for _, child := range t.children[root.CategoryID] {
			amount := totals[child.CategoryID]
			if amount.IsZero() {
				continue
			}
			parent.Amount = parent.Amount.Add(amount)
			parent.Children = append(parent.Children, CategoryTotal{
				CategoryID: &child.CategoryID,
				Name:       child.Name,
				Color:      child.Color,
				Amount:     amount,
				Percentage: percent(amount, grand),
			})
		}
		if parent.Amount.IsZero() {
			continue
		}
		parent.Percentage = percent(parent.Amount, grand)
		sortTotals(parent.Children)
		out = append(out, parent)
	}

	if !uncat.IsZero() {
		out = append(out, CategoryTotal{Name: UncategorizedName, Amount: uncat, Percentage: percent(uncat, grand)})
	}
	sortTotals(out)
	return out
}

func sortTotals(totals []CategoryTotal) {
	slices.SortStableFunc(totals, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// buildSankey lays out income categories -> Budget -> expense parents ->
// expense children, with the surplus flowing into Savings.
func buildSankey(s Summary) Sankey {
	var sk Sankey
	node := func(name, color string) int {
		sk.Nodes = append(sk.Nodes, SankeyNode{Name: name, Color: color})
		return len(sk.Nodes) - 1
	}
	link := func(from, to int, value decimal.Decimal) {
		sk.Links = append(sk.Links, SankeyLink{Source: from, Target: to, Value: value})
	}

	if s.Income.IsZero() && s.Expense.IsZero() {
		return Sankey{Nodes: []SankeyNode{}, Links: []SankeyLink{}}
	}

	budget := node(budgetNode, "")
	for _, c := range s.IncomeCategories {
		link(node(c.Name, c.Color), budget, c.Amount)
	}
	for _, c := range s.ExpenseCategories {
		parent := node(c.Name, c.Color)
		link(budget, parent, c.Amount)
		for _, child := range c.Children {
			link(parent, node(child.Name, child.Color), child.Amount)
		}
	}
	if s.Net.IsPositive() {
		link(budget, node(savingsNode, ""), s.Net)
	}
	if sk.Links == nil {
		sk.Links = []SankeyLink{}
	}
	return sk
}
