package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hray3182/LifeLedger/internal/service"
)

type categoryRequest struct {
	Name      string `json:"name"`
	ParentID  *int64 `json:"parentId"`
	IsIncome  bool   `json:"isIncome"`
	Color     string `json:"color"`
	SortOrder int    `json:"sortOrder"`
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:      r.Name,
		ParentID:  r.ParentID,
		IsIncome:  r.IsIncome,
		Color:     r.Color,
		SortOrder: r.SortOrder,
	}
}

func (h *handler) listCategories(c *fiber.Ctx) error {
	categories, err := h.Ledger.ListCategories(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *handler) createCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.Ledger.CreateCategory(c.UserContext(), userID(c), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *handler) updateCategory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.Ledger.UpdateCategory(c.UserContext(), userID(c), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(category)
}

func (h *handler) deleteCategory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Ledger.DeleteCategory(c.UserContext(), userID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// seedCategories installs the default category tree for a user who has none.
func (h *handler) seedCategories(c *fiber.Ctx) error {
	n, err := h.Ledger.SeedDefaultCategories(c.UserContext(), userID(c), h.Defaults)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"created": n})
}
