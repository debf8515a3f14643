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

// SnapshotInput records account balances on a date.
type SnapshotInput struct {
	Date   time.Time
	Note   string
	Values map[int64]decimal.Decimal
}

func (s *Service) NetWorth(ctx context.Context, userID string) (viewmodel.NetWorthHistory, error) {
	var (
		snapshots  []*models.NetWorthSnapshot
		values     []models.NetWorth
		accounts   []*models.NetWorthAccount
		categories []*models.NetWorthCategory
	)
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		if snapshots, err = s.networth.ListSnapshots(ctx, userID); err != nil {
			return err
		}
		if values, err = s.networth.ListValues(ctx, userID); err != nil {
			return err
		}
		if accounts, err = s.networth.ListAccounts(ctx, userID); err != nil {
			return err
		}
		categories, err = s.networth.ListCategories(ctx, userID)
		return err
	})
	if err != nil {
		return viewmodel.NetWorthHistory{}, err
	}
	return viewmodel.BuildNetWorth(snapshots, values, accounts, categories), nil
}

func (s *Service) CreateSnapshot(ctx context.Context, userID string, in SnapshotInput) (*models.NetWorthSnapshot, error) {
	if in.Date.IsZero() {
		return nil, common.Invalidf("snapshot date is required")
	}
	if len(in.Values) == 0 {
		return nil, common.Invalidf("a snapshot needs at least one account value")
	}

	snapshot := &models.NetWorthSnapshot{UserID: userID, Date: models.DateOf(in.Date), Note: strings.TrimSpace(in.Note)}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		accounts, err := s.networth.ListAccounts(ctx, userID)
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(accounts))
		for _, a := range accounts {
			known[a.NetWorthAccountID] = true
		}

		values := make([]models.NetWorth, 0, len(in.Values))
		for accountID, value := range in.Values {
			if !known[accountID] {
				return common.Invalidf("unknown net worth account %d", accountID)
			}
			values = append(values, models.NetWorth{NetWorthAccountID: accountID, Value: value})
		}
		return s.networth.CreateSnapshot(ctx, snapshot, values)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) ListNetWorthAccounts(ctx context.Context, userID string) ([]*models.NetWorthAccount, error) {
	var accounts []*models.NetWorthAccount
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		accounts, err = s.networth.ListAccounts(ctx, userID)
		return err
	})
	return accounts, err
}

func (s *Service) CreateNetWorthAccount(ctx context.Context, userID string, categoryID int64, name string) (*models.NetWorthAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Invalidf("account name is required")
	}

	account := &models.NetWorthAccount{UserID: userID, NetWorthCategoryID: categoryID, Name: name}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		categories, err := s.networth.ListCategories(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range categories {
			if c.NetWorthCategoryID == categoryID {
				return s.networth.CreateAccount(ctx, account)
			}
		}
		return common.Invalidf("unknown net worth category %d", categoryID)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) ListNetWorthCategories(ctx context.Context, userID string) ([]*models.NetWorthCategory, error) {
	var categories []*models.NetWorthCategory
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		categories, err = s.networth.ListCategories(ctx, userID)
		return err
	})
	return categories, err
}

func (s *Service) CreateNetWorthCategory(ctx context.Context, userID, name string, kind models.NetWorthKind) (*models.NetWorthCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Invalidf("category name is required")
	}
	kind = models.NetWorthKind(strings.ToUpper(string(kind)))
	if !kind.Valid() {
		return nil, common.Invalidf("kind must be ASSET or LIABILITY, got %q", kind)
	}

	category := &models.NetWorthCategory{UserID: userID, Name: name, Kind: kind}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		return s.networth.CreateCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}
