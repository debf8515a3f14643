package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/viewmodel"
)

// BudgetInput is the monthly amount planned for one category.
type BudgetInput struct {
	CategoryID int64
	Amount     decimal.Decimal
}

// Summary aggregates the merged transaction list for [from, to].
func (s *Service) Summary(ctx context.Context, userID string, from, to time.Time) (viewmodel.Summary, error) {
	txns, err := s.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return viewmodel.Summary{}, err
	}
	categories, err := s.ListCategories(ctx, userID)
	if err != nil {
		return viewmodel.Summary{}, err
	}
	return viewmodel.BuildSummary(txns, categories), nil
}

func (s *Service) ListScenarios(ctx context.Context, userID string) ([]*models.Scenario, error) {
	var scenarios []*models.Scenario
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		scenarios, err = s.planning.ListScenarios(ctx, userID)
		return err
	})
	return scenarios, err
}

// CreateScenario adds a scenario. The user's first scenario becomes the
// default one.
func (s *Service) CreateScenario(ctx context.Context, userID, name string) (*models.Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Invalidf("scenario name is required")
	}

	scenario := &models.Scenario{UserID: userID, Name: name}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		existing, err := s.planning.ListScenarios(ctx, userID)
		if err != nil {
			return err
		}
		scenario.IsDefault = len(existing) == 0
		return s.planning.CreateScenario(ctx, scenario)
	})
	if err != nil {
		return nil, err
	}
	return scenario, nil
}

// SetBudgets upserts the scenario's budgets in one transaction.
func (s *Service) SetBudgets(ctx context.Context, userID string, scenarioID int64, inputs []BudgetInput) ([]*models.PlanningBudget, error) {
	budgets := make([]*models.PlanningBudget, 0, len(inputs))
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		if _, err := s.planning.GetScenario(ctx, userID, scenarioID); err != nil {
			return err
		}
		for _, in := range inputs {
			if in.Amount.IsNegative() {
				return common.Invalidf("budget for category %d must not be negative", in.CategoryID)
			}
			if _, err := s.categories.GetByID(ctx, userID, in.CategoryID); err != nil {
				return err
			}
			b := &models.PlanningBudget{
				UserID:     userID,
				ScenarioID: scenarioID,
				CategoryID: in.CategoryID,
				Amount:     in.Amount,
			}
			if err := s.planning.UpsertBudget(ctx, b); err != nil {
				return err
			}
			budgets = append(budgets, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// Planning compares a scenario's budgets with the current month or year.
// A zero scenarioID selects the default scenario.
func (s *Service) Planning(ctx context.Context, userID string, scenarioID int64, period models.ViewPeriod) (viewmodel.Planning, error) {
	if period == "" {
		period = models.ViewPeriodMonth
	}
	if !period.Valid() {
		return viewmodel.Planning{}, common.Invalidf("unknown period %q", period)
	}

	var (
		budgets    []*models.PlanningBudget
		categories []*models.Category
		actuals    []*models.Transaction
	)
	from, to := periodRange(s.Today(), period)
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		if scenarioID == 0 {
			scenarios, err := s.planning.ListScenarios(ctx, userID)
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				return nil
			}
			scenarioID = scenarios[0].ScenarioID
		}

		var err error
		if budgets, err = s.planning.ListBudgets(ctx, userID, scenarioID); err != nil {
			return err
		}
		if categories, err = s.categories.ListByUser(ctx, userID); err != nil {
			return err
		}
		actuals, err = s.transactions.ListByDateRange(ctx, userID, from, to)
		return err
	})
	if err != nil {
		return viewmodel.Planning{}, err
	}

	rows := make([]models.Transaction, len(actuals))
	for i, tx := range actuals {
		rows[i] = *tx
	}
	return viewmodel.BuildPlanning(budgets, categories, rows, period), nil
}

// periodRange returns the calendar month or year containing day.
func periodRange(day time.Time, period models.ViewPeriod) (time.Time, time.Time) {
	if period == models.ViewPeriodYear {
		from := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, -1)
	}
	from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1)
}
