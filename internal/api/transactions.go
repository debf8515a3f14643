package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/service"
)

type transactionRequest struct {
	Date       string          `json:"date"`
	Note       string          `json:"note"`
	Amount     decimal.Decimal `json:"amount"`
	CategoryID *int64          `json:"categoryId"`
	AccountID  *uuid.UUID      `json:"accountId"`
}

type transactionPatchRequest struct {
	Date       *string          `json:"date"`
	Note       *string          `json:"note"`
	Amount     *decimal.Decimal `json:"amount"`
	CategoryID *int64           `json:"categoryId"`
}

// listTransactions returns stored rows merged with projected future
// occurrences of every recurring rule.
func (h *handler) listTransactions(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c, h.Ledger.Today())
	if err != nil {
		return err
	}
	txns, err := h.Ledger.ListTransactions(c.UserContext(), userID(c), from, to)
	if err != nil {
		return err
	}
	return c.JSON(txns)
}

func (h *handler) createTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return err
	}

	tx, err := h.Ledger.CreateTransaction(c.UserContext(), userID(c), service.TransactionInput{
		Date:       date,
		Note:       req.Note,
		Amount:     req.Amount,
		CategoryID: req.CategoryID,
		AccountID:  req.AccountID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

// updateTransaction edits a stored row, or materializes a virtual one.
func (h *handler) updateTransaction(c *fiber.Ctx) error {
	var req transactionPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	date, err := parseDatePtr(req.Date, "date")
	if err != nil {
		return err
	}

	tx, err := h.Ledger.UpdateTransaction(c.UserContext(), userID(c), c.Params("id"), service.TransactionPatch{
		Date:       date,
		Note:       req.Note,
		Amount:     req.Amount,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.JSON(tx)
}

func (h *handler) deleteTransaction(c *fiber.Ctx) error {
	if err := h.Ledger.DeleteTransaction(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) searchTransactions(c *fiber.Ctx) error {
	txns, err := h.Ledger.SearchTransactions(c.UserContext(), userID(c), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(txns)
}

// parseTransaction drafts a transaction from free text. Nothing is stored.
func (h *handler) parseTransaction(c *fiber.Ctx) error {
	if h.Parser == nil {
		return common.NewUserError("quick add is not configured", common.ErrFeatureDisabled)
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return common.Invalidf("text is required")
	}

	categories, err := h.Ledger.ListCategories(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	draft, err := h.Parser.ParseTransaction(c.UserContext(), req.Text, categories)
	if err != nil {
		return err
	}
	return c.JSON(draft)
}
