package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/service"
)

func (h *handler) summary(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c, h.Ledger.Today())
	if err != nil {
		return err
	}
	summary, err := h.Ledger.Summary(c.UserContext(), userID(c), from, to)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// planning falls back to the user's saved scenario and period when the
// query leaves them out.
func (h *handler) planning(c *fiber.Ctx) error {
	var (
		scenarioID int64
		period     = models.ViewPeriod(strings.ToUpper(c.Query("period")))
	)
	if raw := c.Query("scenarioId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return common.Invalidf("invalid scenarioId")
		}
		scenarioID = id
	}

	if (scenarioID == 0 || period == "") && h.Preferences != nil {
		savedScenario, savedPeriod, err := h.Preferences.PlanningDefaults(c.UserContext(), userID(c))
		if err != nil {
			return err
		}
		if scenarioID == 0 {
			scenarioID = savedScenario
		}
		if period == "" {
			period = savedPeriod
		}
	}

	planning, err := h.Ledger.Planning(c.UserContext(), userID(c), scenarioID, period)
	if err != nil {
		return err
	}
	return c.JSON(planning)
}

func (h *handler) listScenarios(c *fiber.Ctx) error {
	scenarios, err := h.Ledger.ListScenarios(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(scenarios)
}

func (h *handler) createScenario(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	scenario, err := h.Ledger.CreateScenario(c.UserContext(), userID(c), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(scenario)
}

type budgetsRequest struct {
	ScenarioID int64 `json:"scenarioId"`
	Budgets    []struct {
		CategoryID int64           `json:"categoryId"`
		Amount     decimal.Decimal `json:"amount"`
	} `json:"budgets"`
}

func (h *handler) setBudgets(c *fiber.Ctx) error {
	var req budgetsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	inputs := make([]service.BudgetInput, 0, len(req.Budgets))
	for _, b := range req.Budgets {
		inputs = append(inputs, service.BudgetInput{CategoryID: b.CategoryID, Amount: b.Amount})
	}

	budgets, err := h.Ledger.SetBudgets(c.UserContext(), userID(c), req.ScenarioID, inputs)
	if err != nil {
		return err
	}
	return c.JSON(budgets)
}
