package viewmodel

import (
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/models"
)

// PlanningRow compares a category's budget with what was actually booked.
// Parent rows include their children.
type PlanningRow struct {
	CategoryID      int64           `json:"categoryId"`
	Name            string          `json:"name"`
	Color           string          `json:"color,omitempty"`
	Budgeted        decimal.Decimal `json:"budgeted"`
	Actual          decimal.Decimal `json:"actual"`
	Remaining       decimal.Decimal `json:"remaining"`
	PercentUsed     float64         `json:"percentUsed"`
	PercentOfIncome float64         `json:"percentOfIncome"`
	Children        []PlanningRow   `json:"children,omitempty"`
}

type Planning struct {
	Period         models.ViewPeriod `json:"period"`
	PlannedIncome  decimal.Decimal   `json:"plannedIncome"`
	PlannedExpense decimal.Decimal   `json:"plannedExpense"`
	PlannedSavings decimal.Decimal   `json:"plannedSavings"`
	ActualIncome   decimal.Decimal   `json:"actualIncome"`
	ActualExpense  decimal.Decimal   `json:"actualExpense"`
	Income         []PlanningRow     `json:"income"`
	Expense        []PlanningRow     `json:"expense"`
}

// BuildPlanning lays budgets next to actuals. Budgets are monthly amounts
// and are scaled to period; actuals are expected to already cover period.
func BuildPlanning(budgets []*models.PlanningBudget, categories []*models.Category, actuals []models.Transaction, period models.ViewPeriod) Planning {
	if !period.Valid() {
		period = models.ViewPeriodMonth
	}
	months := decimal.NewFromInt(period.Months())
	t := newTree(categories)

	planned := make(map[int64]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		planned[b.CategoryID] = planned[b.CategoryID].Add(b.Amount.Abs().Mul(months))
	}
	actual := make(map[int64]decimal.Decimal)
	for _, tx := range actuals {
		if tx.CategoryID == nil {
			continue
		}
		actual[*tx.CategoryID] = actual[*tx.CategoryID].Add(tx.Amount.Abs())
	}

	p := Planning{Period: period}
	for _, root := range t.roots {
		row := planningRow(root, planned, actual)
		for _, child := range t.children[root.CategoryID] {
			c := planningRow(child, planned, actual)
			row.Budgeted = row.Budgeted.Add(c.Budgeted)
			row.Actual = row.Actual.Add(c.Actual)
			row.Children = append(row.Children, c)
		}
		row.Remaining = row.Budgeted.Sub(row.Actual)
		row.PercentUsed = percent(row.Actual, row.Budgeted)

		if root.IsIncome {
			p.PlannedIncome = p.PlannedIncome.Add(row.Budgeted)
			p.ActualIncome = p.ActualIncome.Add(row.Actual)
			p.Income = append(p.Income, row)
		} else {
			p.PlannedExpense = p.PlannedExpense.Add(row.Budgeted)
			p.ActualExpense = p.ActualExpense.Add(row.Actual)
			p.Expense = append(p.Expense, row)
		}
	}
	p.PlannedSavings = p.PlannedIncome.Sub(p.PlannedExpense)

	for _, rows := range [][]PlanningRow{p.Income, p.Expense} {
		for i := range rows {
			rows[i].PercentOfIncome = percent(rows[i].Budgeted, p.PlannedIncome)
			for j := range rows[i].Children {
				rows[i].Children[j].PercentOfIncome = percent(rows[i].Children[j].Budgeted, p.PlannedIncome)
			}
		}
	}
	return p
}

func planningRow(c *models.Category, planned, actual map[int64]decimal.Decimal) PlanningRow {
	row := PlanningRow{
		CategoryID: c.CategoryID,
		Name:       c.Name,
		Color:      c.Color,
		Budgeted:   planned[c.CategoryID],
		Actual:     actual[c.CategoryID],
	}
	row.Remaining = row.Budgeted.Sub(row.Actual)
	row.PercentUsed = percent(row.Actual, row.Budgeted)
	return row
}
