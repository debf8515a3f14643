package repository

import (
	"context"

	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

type NetWorthRepository struct {
	db *database.DB
}

func NewNetWorthRepository(db *database.DB) *NetWorthRepository {
	return &NetWorthRepository{db: db}
}

func (r *NetWorthRepository) CreateCategory(ctx context.Context, category *models.NetWorthCategory) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "NetWorthCategories" ("UserId", "Name", "Kind")
		 VALUES ($1, $2, $3) RETURNING "NetWorthCategoryId"`,
		category.UserID, category.Name, category.Kind,
	).Scan(&category.NetWorthCategoryID)
}

func (r *NetWorthRepository) ListCategories(ctx context.Context, userID string) ([]*models.NetWorthCategory, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "NetWorthCategoryId", "UserId", "Name", "Kind" FROM "NetWorthCategories"
		 WHERE "UserId" = $1 ORDER BY "Kind" ASC, "Name" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.NetWorthCategory
	for rows.Next() {
		c := &models.NetWorthCategory{}
		if err := rows.Scan(&c.NetWorthCategoryID, &c.UserID, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *NetWorthRepository) CreateAccount(ctx context.Context, account *models.NetWorthAccount) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "NetWorthAccounts" ("UserId", "NetWorthCategoryId", "Name", "IsArchived")
		 VALUES ($1, $2, $3, $4) RETURNING "NetWorthAccountId"`,
		account.UserID, account.NetWorthCategoryID, account.Name, account.IsArchived,
	).Scan(&account.NetWorthAccountID)
}

func (r *NetWorthRepository) ListAccounts(ctx context.Context, userID string) ([]*models.NetWorthAccount, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "NetWorthAccountId", "UserId", "NetWorthCategoryId", "Name", "IsArchived"
		 FROM "NetWorthAccounts" WHERE "UserId" = $1 ORDER BY "Name" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.NetWorthAccount
	for rows.Next() {
		a := &models.NetWorthAccount{}
		if err := rows.Scan(&a.NetWorthAccountID, &a.UserID, &a.NetWorthCategoryID, &a.Name, &a.IsArchived); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CreateSnapshot inserts the snapshot header and its account values.
// Callers run it inside database.DB.WithUser so both land atomically.
func (r *NetWorthRepository) CreateSnapshot(ctx context.Context, snapshot *models.NetWorthSnapshot, values []models.NetWorth) error {
	q := r.db.Q(ctx)
	if err := q.QueryRow(ctx,
		`INSERT INTO "NetWorthSnapshots" ("UserId", "Date", "Note")
		 VALUES ($1, $2, $3) RETURNING "NetWorthSnapshotId", "CreatedAt"`,
		snapshot.UserID, snapshot.Date, snapshot.Note,
	).Scan(&snapshot.NetWorthSnapshotID, &snapshot.CreatedAt); err != nil {
		return err
	}

	for i := range values {
		values[i].NetWorthSnapshotID = snapshot.NetWorthSnapshotID
		if _, err := q.Exec(ctx,
			`INSERT INTO "NetWorth" ("NetWorthSnapshotId", "NetWorthAccountId", "UserId", "Value")
			 VALUES ($1, $2, $3, $4)`,
			snapshot.NetWorthSnapshotID, values[i].NetWorthAccountID, snapshot.UserID, values[i].Value,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *NetWorthRepository) ListSnapshots(ctx context.Context, userID string) ([]*models.NetWorthSnapshot, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "NetWorthSnapshotId", "UserId", "Date", "Note", "CreatedAt" FROM "NetWorthSnapshots"
		 WHERE "UserId" = $1 ORDER BY "Date" ASC, "NetWorthSnapshotId" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.NetWorthSnapshot
	for rows.Next() {
		s := &models.NetWorthSnapshot{}
		if err := rows.Scan(&s.NetWorthSnapshotID, &s.UserID, &s.Date, &s.Note, &s.CreatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (r *NetWorthRepository) ListValues(ctx context.Context, userID string) ([]models.NetWorth, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "NetWorthSnapshotId", "NetWorthAccountId", "Value" FROM "NetWorth" WHERE "UserId" = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []models.NetWorth
	for rows.Next() {
		var v models.NetWorth
		if err := rows.Scan(&v.NetWorthSnapshotID, &v.NetWorthAccountID, &v.Value); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
