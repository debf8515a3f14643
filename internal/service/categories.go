package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/seed"
)

type CategoryInput struct {
	Name      string
	ParentID  *int64
	IsIncome  bool
	Color     string
	SortOrder int
}

func (s *Service) ListCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	var categories []*models.Category
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		categories, err = s.categories.ListByUser(ctx, userID)
		return err
	})
	return categories, err
}

func (s *Service) CreateCategory(ctx context.Context, userID string, in CategoryInput) (*models.Category, error) {
	category := &models.Category{UserID: userID}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		if err := s.applyCategory(ctx, category, in); err != nil {
			return err
		}
		return s.categories.Create(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, userID string, categoryID int64, in CategoryInput) (*models.Category, error) {
	var category *models.Category
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		category, err = s.categories.GetByID(ctx, userID, categoryID)
		if err != nil {
			return err
		}
		if in.ParentID != nil {
			if *in.ParentID == categoryID {
				return common.Invalidf("a category cannot be its own parent")
			}
			hasChildren, err := s.hasChildren(ctx, userID, categoryID)
			if err != nil {
				return err
			}
			if hasChildren {
				return common.Invalidf("category %q has subcategories and cannot be nested", category.Name)
			}
		}
		if err := s.applyCategory(ctx, category, in); err != nil {
			return err
		}
		return s.categories.Update(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, userID string, categoryID int64) error {
	return s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		return s.categories.Delete(ctx, userID, categoryID)
	})
}

func (s *Service) hasChildren(ctx context.Context, userID string, categoryID int64) (bool, error) {
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range categories {
		if c.ParentID != nil && *c.ParentID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

// applyCategory validates in and copies it onto category. Categories nest
// one level deep and a child takes its parent's income flag.
func (s *Service) applyCategory(ctx context.Context, category *models.Category, in CategoryInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return common.Invalidf("category name is required")
	}

	category.Name = name
	category.ParentID = in.ParentID
	category.IsIncome = in.IsIncome
	category.Color = in.Color
	category.SortOrder = in.SortOrder

	if in.ParentID == nil {
		return nil
	}
	parent, err := s.categories.GetByID(ctx, category.UserID, *in.ParentID)
	if err != nil {
		return err
	}
	if !parent.IsTopLevel() {
		return common.Invalidf("category %q is already a subcategory", parent.Name)
	}
	category.IsIncome = parent.IsIncome
	return nil
}

// SeedDefaultCategories creates the default category tree for a user who
// has no categories yet and returns how many were created.
func (s *Service) SeedDefaultCategories(ctx context.Context, userID string, defaults []seed.Category) (int, error) {
	created := 0
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		existing, err := s.categories.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		for i, def := range defaults {
			parent := &models.Category{
				UserID:    userID,
				Name:      def.Name,
				IsIncome:  def.Income,
				Color:     def.Color,
				SortOrder: i,
			}
			if err := s.categories.Create(ctx, parent); err != nil {
				return fmt.Errorf("failed to seed category %q: %w", def.Name, err)
			}
			created++

			for j, child := range def.Children {
				c := &models.Category{
					UserID:    userID,
					Name:      child.Name,
					ParentID:  &parent.CategoryID,
					IsIncome:  def.Income,
					Color:     child.Color,
					SortOrder: j,
				}
				if err := s.categories.Create(ctx, c); err != nil {
					return fmt.Errorf("failed to seed category %q: %w", child.Name, err)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
