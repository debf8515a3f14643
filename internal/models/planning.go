package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scenario is a named set of planning budgets.
type Scenario struct {
	ScenarioID int64     `json:"scenarioId"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PlanningBudget is the planned monthly amount for a category within a scenario.
type PlanningBudget struct {
	PlanningBudgetID int64           `json:"planningBudgetId"`
	UserID           string          `json:"userId"`
	ScenarioID       int64           `json:"scenarioId"`
	CategoryID       int64           `json:"categoryId"`
	Amount           decimal.Decimal `json:"amount"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ViewPeriod is the span the planning view is expressed in.
type ViewPeriod string

const (
	ViewPeriodMonth ViewPeriod = "MONTH"
	ViewPeriodYear  ViewPeriod = "YEAR"
)

// Valid reports whether p is a known view period.
func (p ViewPeriod) Valid() bool {
	return p == ViewPeriodMonth || p == ViewPeriodYear
}

// Months returns how many monthly budgets fit in the period.
func (p ViewPeriod) Months() int64 {
	if p == ViewPeriodYear {
		return 12
	}
	return 1
}
