package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

const categoryColumns = `"CategoryId", "UserId", "Name", "ParentId", "IsIncome", "Color", "SortOrder"`

type CategoryRepository struct {
	db *database.DB
}

func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "Categories" ("UserId", "Name", "ParentId", "IsIncome", "Color", "SortOrder")
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING "CategoryId"`,
		category.UserID, category.Name, category.ParentID, category.IsIncome, category.Color, category.SortOrder,
	).Scan(&category.CategoryID)
	return duplicate(err, "category %q", category.Name)
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Category, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT `+categoryColumns+` FROM "Categories"
		 WHERE "UserId" = $1 ORDER BY "SortOrder" ASC, "Name" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID string, categoryID int64) (*models.Category, error) {
	row := r.db.Q(ctx).QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM "Categories" WHERE "CategoryId" = $1 AND "UserId" = $2`,
		categoryID, userID,
	)
	cat, err := scanCategory(row)
	if err != nil {
		return nil, notFound(err, "category %d", categoryID)
	}
	return cat, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`UPDATE "Categories" SET "Name" = $1, "ParentId" = $2, "IsIncome" = $3, "Color" = $4, "SortOrder" = $5
		 WHERE "CategoryId" = $6 AND "UserId" = $7`,
		category.Name, category.ParentID, category.IsIncome, category.Color, category.SortOrder,
		category.CategoryID, category.UserID,
	)
	if err != nil {
		return duplicate(err, "category %q", category.Name)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d: %w", category.CategoryID, common.ErrNotFound)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, userID string, categoryID int64) error {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`DELETE FROM "Categories" WHERE "CategoryId" = $1 AND "UserId" = $2`,
		categoryID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d: %w", categoryID, common.ErrNotFound)
	}
	return nil
}

func scanCategory(row pgx.Row) (*models.Category, error) {
	cat := &models.Category{}
	if err := row.Scan(&cat.CategoryID, &cat.UserID, &cat.Name, &cat.ParentID, &cat.IsIncome,
		&cat.Color, &cat.SortOrder); err != nil {
		return nil, err
	}
	return cat, nil
}

// duplicate maps unique violations to common.ErrDuplicateEntry.
func duplicate(err error, format string, args ...any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf(format+": %w", append(args, common.ErrDuplicateEntry)...)
	}
	return err
}
