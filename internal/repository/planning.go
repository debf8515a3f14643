package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

type PlanningRepository struct {
	db *database.DB
}

func NewPlanningRepository(db *database.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

func (r *PlanningRepository) CreateScenario(ctx context.Context, scenario *models.Scenario) error {
	err := r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "Scenarios" ("UserId", "Name", "IsDefault")
		 VALUES ($1, $2, $3)
		 RETURNING "ScenarioId", "CreatedAt"`,
		scenario.UserID, scenario.Name, scenario.IsDefault,
	).Scan(&scenario.ScenarioID, &scenario.CreatedAt)
	return duplicate(err, "scenario %q", scenario.Name)
}

func (r *PlanningRepository) ListScenarios(ctx context.Context, userID string) ([]*models.Scenario, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "ScenarioId", "UserId", "Name", "IsDefault", "CreatedAt" FROM "Scenarios"
		 WHERE "UserId" = $1 ORDER BY "IsDefault" DESC, "CreatedAt" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []*models.Scenario
	for rows.Next() {
		s := &models.Scenario{}
		if err := rows.Scan(&s.ScenarioID, &s.UserID, &s.Name, &s.IsDefault, &s.CreatedAt); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, rows.Err()
}

func (r *PlanningRepository) GetScenario(ctx context.Context, userID string, scenarioID int64) (*models.Scenario, error) {
	s := &models.Scenario{}
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT "ScenarioId", "UserId", "Name", "IsDefault", "CreatedAt" FROM "Scenarios"
		 WHERE "ScenarioId" = $1 AND "UserId" = $2`,
		scenarioID, userID,
	).Scan(&s.ScenarioID, &s.UserID, &s.Name, &s.IsDefault, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err, "scenario %d", scenarioID)
	}
	return s, nil
}

// UpsertBudget stores the monthly amount for a category within a scenario.
func (r *PlanningRepository) UpsertBudget(ctx context.Context, budget *models.PlanningBudget) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "PlanningBudgets" ("UserId", "ScenarioId", "CategoryId", "Amount")
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT ("ScenarioId", "CategoryId")
		 DO UPDATE SET "Amount" = EXCLUDED."Amount", "UpdatedAt" = NOW()
		 RETURNING "PlanningBudgetId", "UpdatedAt"`,
		budget.UserID, budget.ScenarioID, budget.CategoryID, budget.Amount,
	).Scan(&budget.PlanningBudgetID, &budget.UpdatedAt)
}

func (r *PlanningRepository) ListBudgets(ctx context.Context, userID string, scenarioID int64) ([]*models.PlanningBudget, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "PlanningBudgetId", "UserId", "ScenarioId", "CategoryId", "Amount", "UpdatedAt"
		 FROM "PlanningBudgets" WHERE "UserId" = $1 AND "ScenarioId" = $2
		 ORDER BY "CategoryId" ASC`,
		userID, scenarioID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBudgets(rows)
}

func scanBudgets(rows pgx.Rows) ([]*models.PlanningBudget, error) {
	var budgets []*models.PlanningBudget
	for rows.Next() {
		b := &models.PlanningBudget{}
		if err := rows.Scan(&b.PlanningBudgetID, &b.UserID, &b.ScenarioID, &b.CategoryID, &b.Amount, &b.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
