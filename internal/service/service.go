// Package service holds the ledger's business operations: recurring rule
// bookkeeping, the merged transaction view, and the data behind the summary,
// planning and net-worth screens.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/LifeLedger/internal/models"
)

// TxRunner scopes work to one user's row-level-security transaction.
type TxRunner interface {
	WithUser(ctx context.Context, userID string, fn func(ctx context.Context) error) error
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, userID string, transactionID int64) (*models.Transaction, error)
	ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error)
	ListByRecurring(ctx context.Context, userID string, ruleID int64) ([]*models.Transaction, error)
	Search(ctx context.Context, userID string, keyword string, limit int) ([]*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, userID string, transactionID int64) error
	DeleteByRecurring(ctx context.Context, userID string, ruleID int64) (int64, error)
}

type RecurringStore interface {
	Create(ctx context.Context, rule *models.RecurringTransaction) error
	GetByID(ctx context.Context, userID string, ruleID int64) (*models.RecurringTransaction, error)
	ListByUser(ctx context.Context, userID string) ([]*models.RecurringTransaction, error)
	Update(ctx context.Context, rule *models.RecurringTransaction) error
	Delete(ctx context.Context, userID string, ruleID int64) error
	AddException(ctx context.Context, userID string, ruleID int64, date time.Time) error
	ListExceptions(ctx context.Context, userID string) (map[int64][]time.Time, error)
	HasException(ctx context.Context, ruleID int64, date time.Time) (bool, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	ListByUser(ctx context.Context, userID string) ([]*models.Category, error)
	GetByID(ctx context.Context, userID string, categoryID int64) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, userID string, categoryID int64) error
}

type PlanningStore interface {
	CreateScenario(ctx context.Context, scenario *models.Scenario) error
	ListScenarios(ctx context.Context, userID string) ([]*models.Scenario, error)
	GetScenario(ctx context.Context, userID string, scenarioID int64) (*models.Scenario, error)
	UpsertBudget(ctx context.Context, budget *models.PlanningBudget) error
	ListBudgets(ctx context.Context, userID string, scenarioID int64) ([]*models.PlanningBudget, error)
}

type NetWorthStore interface {
	CreateCategory(ctx context.Context, category *models.NetWorthCategory) error
	ListCategories(ctx context.Context, userID string) ([]*models.NetWorthCategory, error)
	CreateAccount(ctx context.Context, account *models.NetWorthAccount) error
	ListAccounts(ctx context.Context, userID string) ([]*models.NetWorthAccount, error)
	CreateSnapshot(ctx context.Context, snapshot *models.NetWorthSnapshot, values []models.NetWorth) error
	ListSnapshots(ctx context.Context, userID string) ([]*models.NetWorthSnapshot, error)
	ListValues(ctx context.Context, userID string) ([]models.NetWorth, error)
}

type MemberStore interface {
	Upsert(ctx context.Context, member *models.AccountMember) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.AccountMember, error)
	Role(ctx context.Context, accountID uuid.UUID, userID string) (models.AccountRole, error)
	HasMembers(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// Stores bundles the persistence dependencies of a Service.
type Stores struct {
	Transactions TransactionStore
	Recurring    RecurringStore
	Categories   CategoryStore
	Planning     PlanningStore
	NetWorth     NetWorthStore
	Members      MemberStore
}

type Service struct {
	db           TxRunner
	transactions TransactionStore
	recurring    RecurringStore
	categories   CategoryStore
	planning     PlanningStore
	networth     NetWorthStore
	members      MemberStore

	location *time.Location
	now      func() time.Time
}

// New creates a Service. loc decides which calendar day "today" is.
func New(db TxRunner, stores Stores, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		db:           db,
		transactions: stores.Transactions,
		recurring:    stores.Recurring,
		categories:   stores.Categories,
		planning:     stores.Planning,
		networth:     stores.NetWorth,
		members:      stores.Members,
		location:     loc,
		now:          time.Now,
	}
}

// SetClock replaces the wall clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Today returns the current calendar date in the service's location.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now().In(s.location))
}
