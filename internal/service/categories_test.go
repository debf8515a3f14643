package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/seed"
)

func TestCategoryTree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	income, err := f.svc.CreateCategory(ctx, user, CategoryInput{Name: "Side Work", IsIncome: true})
	require.NoError(t, err)

	child, err := f.svc.CreateCategory(ctx, user, CategoryInput{Name: " Consulting ", ParentID: &income.CategoryID})
	require.NoError(t, err)
	assert.Equal(t, "Consulting", child.Name)
	assert.True(t, child.IsIncome, "children take the parent's income flag")

	_, err = f.svc.CreateCategory(ctx, user, CategoryInput{Name: "Too deep", ParentID: &child.CategoryID})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.CreateCategory(ctx, user, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.CreateCategory(ctx, user, CategoryInput{Name: "Orphan", ParentID: ptr[int64](404)})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.UpdateCategory(ctx, user, income.CategoryID, CategoryInput{Name: "Loop", ParentID: &income.CategoryID})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	renamed, err := f.svc.UpdateCategory(ctx, user, income.CategoryID, CategoryInput{Name: "Freelance", IsIncome: true, Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "Freelance", renamed.Name)

	require.NoError(t, f.svc.DeleteCategory(ctx, user, child.CategoryID))
	categories, err := f.svc.ListCategories(ctx, user)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "#00ff00", categories[0].Color)
}

func TestUpdateCategoryKeepsTwoLevels(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	housing, err := f.svc.CreateCategory(ctx, user, CategoryInput{Name: "Housing"})
	require.NoError(t, err)
	utilities, err := f.svc.CreateCategory(ctx, user, CategoryInput{Name: "Utilities"})
	require.NoError(t, err)
	_, err = f.svc.CreateCategory(ctx, user, CategoryInput{Name: "Power", ParentID: &utilities.CategoryID})
	require.NoError(t, err)

	_, err = f.svc.UpdateCategory(ctx, user, utilities.CategoryID, CategoryInput{Name: "Utilities", ParentID: &housing.CategoryID})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	moved, err := f.svc.UpdateCategory(ctx, user, housing.CategoryID, CategoryInput{Name: "Housing", ParentID: &utilities.CategoryID})
	require.NoError(t, err, "a leaf category can still be nested")
	assert.Equal(t, utilities.CategoryID, *moved.ParentID)
}

func TestSeedDefaultCategories(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	defaults := []seed.Category{
		{Name: "Salary", Income: true},
		{Name: "Food", Children: []seed.Category{{Name: "Groceries"}, {Name: "Dining Out"}}},
	}

	created, err := f.svc.SeedDefaultCategories(ctx, user, defaults)
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	categories, err := f.svc.ListCategories(ctx, user)
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == "Groceries" {
			require.NotNil(t, c.ParentID)
			assert.False(t, c.IsIncome)
		}
	}

	created, err = f.svc.SeedDefaultCategories(ctx, user, defaults)
	require.NoError(t, err)
	assert.Zero(t, created, "users with categories are left alone")
}
