// Package api exposes the ledger over HTTP with Fiber. Every /api route
// except the cron hooks requires a bearer JWT whose subject is the user id.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hray3182/LifeLedger/internal/ai"
	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/cron"
	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/seed"
	"github.com/hray3182/LifeLedger/internal/service"
	"github.com/hray3182/LifeLedger/internal/viewmodel"
)

// Ledger is the business surface the handlers call; *service.Service
// implements it.
type Ledger interface {
	Today() time.Time

	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, in service.TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch service.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	SearchTransactions(ctx context.Context, userID, keyword string, limit int) ([]*models.Transaction, error)

	ListRecurring(ctx context.Context, userID string) ([]*models.RecurringTransaction, error)
	GetRecurring(ctx context.Context, userID string, ruleID int64) (*models.RecurringTransaction, error)
	CreateRecurring(ctx context.Context, userID string, in service.RecurringInput) (*models.RecurringTransaction, service.BackfillReport, error)
	UpdateRecurring(ctx context.Context, userID string, ruleID int64, in service.RecurringInput) (*models.RecurringTransaction, service.BackfillReport, error)
	DeleteRecurring(ctx context.Context, userID string, ruleID int64, scope service.DeleteScope, occurrence string) error
	Projection(ctx context.Context, userID string, ruleID int64, from, to time.Time, limit int) ([]models.Transaction, error)
	RecurringHistory(ctx context.Context, userID string, ruleID int64) ([]*models.Transaction, error)

	ListCategories(ctx context.Context, userID string) ([]*models.Category, error)
	CreateCategory(ctx context.Context, userID string, in service.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID string, categoryID int64, in service.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID string, categoryID int64) error
	SeedDefaultCategories(ctx context.Context, userID string, defaults []seed.Category) (int, error)

	Summary(ctx context.Context, userID string, from, to time.Time) (viewmodel.Summary, error)
	Planning(ctx context.Context, userID string, scenarioID int64, period models.ViewPeriod) (viewmodel.Planning, error)
	ListScenarios(ctx context.Context, userID string) ([]*models.Scenario, error)
	CreateScenario(ctx context.Context, userID, name string) (*models.Scenario, error)
	SetBudgets(ctx context.Context, userID string, scenarioID int64, inputs []service.BudgetInput) ([]*models.PlanningBudget, error)

	NetWorth(ctx context.Context, userID string) (viewmodel.NetWorthHistory, error)
	CreateSnapshot(ctx context.Context, userID string, in service.SnapshotInput) (*models.NetWorthSnapshot, error)
	ListNetWorthAccounts(ctx context.Context, userID string) ([]*models.NetWorthAccount, error)
	CreateNetWorthAccount(ctx context.Context, userID string, categoryID int64, name string) (*models.NetWorthAccount, error)
	ListNetWorthCategories(ctx context.Context, userID string) ([]*models.NetWorthCategory, error)
	CreateNetWorthCategory(ctx context.Context, userID, name string, kind models.NetWorthKind) (*models.NetWorthCategory, error)

	ListMembers(ctx context.Context, userID string, accountID uuid.UUID) ([]*models.AccountMember, error)
	AddMember(ctx context.Context, userID string, accountID uuid.UUID, memberID string, role models.AccountRole) (*models.AccountMember, error)
}

type CronRunner interface {
	Run(ctx context.Context) (cron.Summary, error)
}

type Parser interface {
	ParseTransaction(ctx context.Context, text string, categories []*models.Category) (*ai.Draft, error)
}

type Preferences interface {
	All(ctx context.Context, userID string) (map[string]any, error)
	SetRaw(ctx context.Context, userID, name string, raw json.RawMessage) (any, error)
	PlanningDefaults(ctx context.Context, userID string) (int64, models.ViewPeriod, error)
}

// Deps wires the server. Cron and Parser may be nil: cron hooks then answer
// 500 and quick add answers 501.
type Deps struct {
	Ledger       Ledger
	Cron         CronRunner
	Parser       Parser
	Preferences  Preferences
	Defaults     []seed.Category
	JWTSecret    []byte
	CronSecret   string
	RateLimitMax int
}

type handler struct {
	Deps
}

// New builds the Fiber app. Without a Ledger only /health and the cron
// hooks are served.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "LifeLedger",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(RequestLogger())
	app.Use(Branch())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h := &handler{Deps: deps}

	// Registered before the /api group so JWT auth never runs for cron hooks.
	cronGroup := app.Group("/api/cron", CronAuth(deps.CronSecret))
	cronGroup.Post("/manual-trigger", h.runCron)
	cronGroup.Get("/recurring", h.runCron)

	if deps.Ledger == nil {
		return app
	}

	api := app.Group("/api", Auth(deps.JWTSecret), RateLimit(deps.RateLimitMax))

	api.Get("/transactions", h.listTransactions)
	api.Post("/transactions", h.createTransaction)
	api.Get("/transactions/search", h.searchTransactions)
	api.Post("/transactions/parse", h.parseTransaction)
	api.Patch("/transactions/:id", h.updateTransaction)
	api.Delete("/transactions/:id", h.deleteTransaction)

	api.Get("/recurring-transactions", h.listRecurring)
	api.Post("/recurring-transactions", h.createRecurring)
	api.Get("/recurring-transactions/:id", h.getRecurring)
	api.Patch("/recurring-transactions/:id", h.updateRecurring)
	api.Delete("/recurring-transactions/:id", h.deleteRecurring)
	api.Get("/recurring-transactions/:id/projection", h.projection)
	api.Get("/recurring-transactions/:id/transactions", h.recurringHistory)

	api.Get("/categories", h.listCategories)
	api.Post("/categories", h.createCategory)
	api.Post("/categories/defaults", h.seedCategories)
	api.Patch("/categories/:id", h.updateCategory)
	api.Delete("/categories/:id", h.deleteCategory)

	api.Get("/summary", h.summary)
	api.Get("/planning", h.planning)
	api.Get("/scenarios", h.listScenarios)
	api.Post("/scenarios", h.createScenario)
	api.Put("/planning-budgets", h.setBudgets)

	api.Get("/net-worth", h.netWorth)
	api.Post("/net-worth/snapshots", h.createSnapshot)
	api.Get("/net-worth/accounts", h.listNetWorthAccounts)
	api.Post("/net-worth/accounts", h.createNetWorthAccount)
	api.Get("/net-worth/categories", h.listNetWorthCategories)
	api.Post("/net-worth/categories", h.createNetWorthCategory)

	api.Get("/accounts/:accountId/members", h.listMembers)
	api.Post("/accounts/:accountId/members", h.addMember)

	api.Get("/preferences", h.listPreferences)
	api.Put("/preferences/:key", h.putPreference)

	return app
}

// ErrorHandler maps application errors to HTTP statuses and writes
// {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case errors.Is(err, common.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, database.ErrUnknownBranch):
		status = fiber.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, common.ErrDuplicateEntry):
		status = fiber.StatusConflict
	case errors.Is(err, common.ErrFeatureDisabled):
		status = fiber.StatusNotImplemented
	}

	msg := common.UserMessage(err, "")
	if msg == "" {
		if fiberErr != nil {
			msg = fiberErr.Message
		} else if status == fiber.StatusInternalServerError {
			msg = "internal server error"
		} else {
			msg = err.Error()
		}
	}
	if status == fiber.StatusInternalServerError {
		common.LogError(c.UserContext(), err, "request failed", common.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
