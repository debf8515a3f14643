package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }

type fakeDB struct {
	users []string
}

func (f *fakeDB) WithUser(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	f.users = append(f.users, userID)
	return fn(ctx)
}

func (f *fakeDB) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeTransactions struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.Transaction
	failOn func(tx *models.Transaction) error
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{rows: make(map[int64]models.Transaction)}
}

func (f *fakeTransactions) Create(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		if err := f.failOn(tx); err != nil {
			return err
		}
	}
	f.nextID++
	tx.TransactionID = f.nextID
	tx.CreatedAt = testNow
	f.rows[tx.TransactionID] = *tx
	return nil
}

func (f *fakeTransactions) GetByID(_ context.Context, userID string, id int64) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.rows[id]
	if !ok || tx.UserID != userID {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	return &tx, nil
}

func (f *fakeTransactions) ListByDateRange(_ context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range f.rows {
		if tx.UserID == userID && !tx.Date.Before(from) && !tx.Date.After(to) {
			out = append(out, &tx)
		}
	}
	slices.SortFunc(out, func(a, b *models.Transaction) int { return b.Date.Compare(a.Date) })
	return out, nil
}

func (f *fakeTransactions) Update(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[tx.TransactionID]; !ok {
		return fmt.Errorf("transaction %d: %w", tx.TransactionID, common.ErrNotFound)
	}
	f.rows[tx.TransactionID] = *tx
	return nil
}

func (f *fakeTransactions) Delete(_ context.Context, userID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx, ok := f.rows[id]; !ok || tx.UserID != userID {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTransactions) DeleteByRecurring(_ context.Context, userID string, ruleID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, tx := range f.rows {
		if tx.UserID == userID && tx.RecurringTransactionID != nil && *tx.RecurringTransactionID == ruleID {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeTransactions) ListByRecurring(_ context.Context, userID string, ruleID int64) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range f.rows {
		if tx.UserID == userID && tx.RecurringTransactionID != nil && *tx.RecurringTransactionID == ruleID {
			out = append(out, &tx)
		}
	}
	slices.SortFunc(out, func(a, b *models.Transaction) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (f *fakeTransactions) Search(_ context.Context, userID, keyword string, limit int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range f.rows {
		if tx.UserID == userID && strings.Contains(strings.ToLower(tx.Note), strings.ToLower(keyword)) {
			out = append(out, &tx)
		}
	}
	slices.SortFunc(out, func(a, b *models.Transaction) int { return b.Date.Compare(a.Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// linked returns the dates of the rows generated by ruleID in ascending order.
func (f *fakeTransactions) linked(ruleID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var dates []string
	for _, tx := range f.rows {
		if tx.RecurringTransactionID != nil && *tx.RecurringTransactionID == ruleID {
			dates = append(dates, tx.Date.Format(models.DateLayout))
		}
	}
	slices.Sort(dates)
	return dates
}

type fakeRecurring struct {
	nextID     int64
	rules      map[int64]models.RecurringTransaction
	exceptions map[int64][]time.Time
}

func newFakeRecurring() *fakeRecurring {
	return &fakeRecurring{
		rules:      make(map[int64]models.RecurringTransaction),
		exceptions: make(map[int64][]time.Time),
	}
}

func (f *fakeRecurring) Create(_ context.Context, rule *models.RecurringTransaction) error {
	f.nextID++
	rule.RecurringTransactionID = f.nextID
	rule.CreatedAt, rule.UpdatedAt = testNow, testNow
	f.rules[rule.RecurringTransactionID] = *rule
	return nil
}

func (f *fakeRecurring) GetByID(_ context.Context, userID string, id int64) (*models.RecurringTransaction, error) {
	rule, ok := f.rules[id]
	if !ok || rule.UserID != userID {
		return nil, fmt.Errorf("recurring transaction %d: %w", id, common.ErrNotFound)
	}
	return &rule, nil
}

func (f *fakeRecurring) ListByUser(_ context.Context, userID string) ([]*models.RecurringTransaction, error) {
	var out []*models.RecurringTransaction
	for _, rule := range f.rules {
		if rule.UserID == userID {
			out = append(out, &rule)
		}
	}
	slices.SortFunc(out, func(a, b *models.RecurringTransaction) int {
		return int(a.RecurringTransactionID - b.RecurringTransactionID)
	})
	return out, nil
}

func (f *fakeRecurring) Update(_ context.Context, rule *models.RecurringTransaction) error {
	if _, ok := f.rules[rule.RecurringTransactionID]; !ok {
		return fmt.Errorf("recurring transaction %d: %w", rule.RecurringTransactionID, common.ErrNotFound)
	}
	f.rules[rule.RecurringTransactionID] = *rule
	return nil
}

func (f *fakeRecurring) Delete(_ context.Context, userID string, id int64) error {
	if rule, ok := f.rules[id]; !ok || rule.UserID != userID {
		return fmt.Errorf("recurring transaction %d: %w", id, common.ErrNotFound)
	}
	delete(f.rules, id)
	delete(f.exceptions, id)
	return nil
}

func (f *fakeRecurring) AddException(_ context.Context, _ string, ruleID int64, d time.Time) error {
	if !slices.ContainsFunc(f.exceptions[ruleID], d.Equal) {
		f.exceptions[ruleID] = append(f.exceptions[ruleID], d)
	}
	return nil
}

func (f *fakeRecurring) ListExceptions(_ context.Context, userID string) (map[int64][]time.Time, error) {
	out := make(map[int64][]time.Time)
	for id, dates := range f.exceptions {
		if f.rules[id].UserID == userID {
			out[id] = slices.Clone(dates)
		}
	}
	return out, nil
}

func (f *fakeRecurring) HasException(_ context.Context, ruleID int64, d time.Time) (bool, error) {
	return slices.ContainsFunc(f.exceptions[ruleID], d.Equal), nil
}

type fakeCategories struct {
	nextID int64
	rows   []*models.Category
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	f.nextID++
	c.CategoryID = f.nextID
	cp := *c
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeCategories) ListByUser(_ context.Context, userID string) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.rows {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, userID string, id int64) (*models.Category, error) {
	for _, c := range f.rows {
		if c.CategoryID == id && c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
}

func (f *fakeCategories) Update(_ context.Context, c *models.Category) error {
	for i, row := range f.rows {
		if row.CategoryID == c.CategoryID {
			cp := *c
			f.rows[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", c.CategoryID, common.ErrNotFound)
}

func (f *fakeCategories) Delete(_ context.Context, userID string, id int64) error {
	for i, row := range f.rows {
		if row.CategoryID == id && row.UserID == userID {
			f.rows = slices.Delete(f.rows, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
}

type fakePlanning struct {
	scenarios []*models.Scenario
	budgets   map[[2]int64]*models.PlanningBudget
}

func (f *fakePlanning) CreateScenario(_ context.Context, s *models.Scenario) error {
	s.ScenarioID = int64(len(f.scenarios) + 1)
	f.scenarios = append(f.scenarios, s)
	return nil
}

func (f *fakePlanning) ListScenarios(_ context.Context, userID string) ([]*models.Scenario, error) {
	var out []*models.Scenario
	for _, s := range f.scenarios {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePlanning) GetScenario(_ context.Context, userID string, id int64) (*models.Scenario, error) {
	for _, s := range f.scenarios {
		if s.ScenarioID == id && s.UserID == userID {
			return s, nil
		}
	}
	return nil, fmt.Errorf("scenario %d: %w", id, common.ErrNotFound)
}

func (f *fakePlanning) UpsertBudget(_ context.Context, b *models.PlanningBudget) error {
	if f.budgets == nil {
		f.budgets = make(map[[2]int64]*models.PlanningBudget)
	}
	f.budgets[[2]int64{b.ScenarioID, b.CategoryID}] = b
	return nil
}

func (f *fakePlanning) ListBudgets(_ context.Context, _ string, scenarioID int64) ([]*models.PlanningBudget, error) {
	var out []*models.PlanningBudget
	for key, b := range f.budgets {
		if key[0] == scenarioID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeMembers struct {
	members []*models.AccountMember
}

func (f *fakeMembers) Upsert(_ context.Context, m *models.AccountMember) error {
	for i, existing := range f.members {
		if existing.AccountID == m.AccountID && existing.UserID == m.UserID {
			f.members[i] = m
			return nil
		}
	}
	f.members = append(f.members, m)
	return nil
}

func (f *fakeMembers) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*models.AccountMember, error) {
	var out []*models.AccountMember
	for _, m := range f.members {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembers) Role(_ context.Context, accountID uuid.UUID, userID string) (models.AccountRole, error) {
	for _, m := range f.members {
		if m.AccountID == accountID && m.UserID == userID {
			return m.Role, nil
		}
	}
	return "", fmt.Errorf("member %s: %w", userID, common.ErrNotFound)
}

func (f *fakeMembers) HasMembers(_ context.Context, accountID uuid.UUID) (bool, error) {
	for _, m := range f.members {
		if m.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

type fixture struct {
	svc          *Service
	db           *fakeDB
	transactions *fakeTransactions
	recurring    *fakeRecurring
	categories   *fakeCategories
	planning     *fakePlanning
	members      *fakeMembers
}

func newFixture() *fixture {
	f := &fixture{
		db:           &fakeDB{},
		transactions: newFakeTransactions(),
		recurring:    newFakeRecurring(),
		categories:   &fakeCategories{},
		planning:     &fakePlanning{},
		members:      &fakeMembers{},
	}
	f.svc = New(f.db, Stores{
		Transactions: f.transactions,
		Recurring:    f.recurring,
		Categories:   f.categories,
		Planning:     f.planning,
		Members:      f.members,
	}, time.UTC)
	f.svc.SetClock(func() time.Time { return testNow })
	return f
}

// idOf returns the id of the row generated by ruleID on day.
func (f *fakeTransactions) idOf(ruleID int64, day string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, tx := range f.rows {
		if tx.RecurringTransactionID != nil && *tx.RecurringTransactionID == ruleID && tx.Date.Equal(date(day)) {
			return id
		}
	}
	return 0
}
