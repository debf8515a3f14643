package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/service"
)

func (h *handler) netWorth(c *fiber.Ctx) error {
	history, err := h.Ledger.NetWorth(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(history)
}

type snapshotRequest struct {
	Date string `json:"date"`
	Note string `json:"note"`
	// Values maps account ids to balances.
	Values map[string]decimal.Decimal `json:"values"`
}

func (h *handler) createSnapshot(c *fiber.Ctx) error {
	var req snapshotRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return err
	}
	values := make(map[int64]decimal.Decimal, len(req.Values))
	for k, v := range req.Values {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return common.Invalidf("invalid account id %q", k)
		}
		values[id] = v
	}

	snapshot, err := h.Ledger.CreateSnapshot(c.UserContext(), userID(c), service.SnapshotInput{
		Date:   date,
		Note:   req.Note,
		Values: values,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

func (h *handler) listNetWorthAccounts(c *fiber.Ctx) error {
	accounts, err := h.Ledger.ListNetWorthAccounts(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(accounts)
}

func (h *handler) createNetWorthAccount(c *fiber.Ctx) error {
	var req struct {
		NetWorthCategoryID int64  `json:"netWorthCategoryId"`
		Name               string `json:"name"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	account, err := h.Ledger.CreateNetWorthAccount(c.UserContext(), userID(c), req.NetWorthCategoryID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *handler) listNetWorthCategories(c *fiber.Ctx) error {
	categories, err := h.Ledger.ListNetWorthCategories(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *handler) createNetWorthCategory(c *fiber.Ctx) error {
	var req struct {
		Name string              `json:"name"`
		Kind models.NetWorthKind `json:"kind"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.Ledger.CreateNetWorthCategory(c.UserContext(), userID(c), req.Name, req.Kind)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func accountParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("accountId"))
	if err != nil {
		return uuid.Nil, common.Invalidf("invalid account id")
	}
	return id, nil
}

func (h *handler) listMembers(c *fiber.Ctx) error {
	accountID, err := accountParam(c)
	if err != nil {
		return err
	}
	members, err := h.Ledger.ListMembers(c.UserContext(), userID(c), accountID)
	if err != nil {
		return err
	}
	return c.JSON(members)
}

func (h *handler) addMember(c *fiber.Ctx) error {
	accountID, err := accountParam(c)
	if err != nil {
		return err
	}
	var req struct {
		UserID string             `json:"userId"`
		Role   models.AccountRole `json:"role"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.Ledger.AddMember(c.UserContext(), userID(c), accountID, req.UserID, req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}
