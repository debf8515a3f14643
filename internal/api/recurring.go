package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/service"
)

type recurringRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	Note                 string          `json:"note"`
	CategoryID           *int64          `json:"categoryId"`
	Frequency            string          `json:"frequency"`
	Interval             int             `json:"interval"`
	StartAt              string          `json:"startAt"`
	EndAt                *string         `json:"endAt"`
	AccountID            *uuid.UUID      `json:"accountId"`
	RRule                string          `json:"rrule"`
	ConvertTransactionID *int64          `json:"convertTransactionId"`
}

type recurringResponse struct {
	RecurringTransaction *models.RecurringTransaction `json:"recurringTransaction"`
	Backfill             service.BackfillReport       `json:"backfill"`
}

func (r *recurringRequest) input() (service.RecurringInput, error) {
	in := service.RecurringInput{
		Amount:               r.Amount,
		Note:                 strings.TrimSpace(r.Note),
		CategoryID:           r.CategoryID,
		Frequency:            models.Frequency(strings.ToUpper(strings.TrimSpace(r.Frequency))),
		Interval:             r.Interval,
		AccountID:            r.AccountID,
		RRule:                r.RRule,
		ConvertTransactionID: r.ConvertTransactionID,
	}
	// With an rrule the start may come from its DTSTART; a converted
	// transaction supplies its own date.
	if r.StartAt != "" || (r.RRule == "" && r.ConvertTransactionID == nil) {
		start, err := parseDate(r.StartAt, "startAt")
		if err != nil {
			return in, err
		}
		in.StartAt = start
	}
	end, err := parseDatePtr(r.EndAt, "endAt")
	if err != nil {
		return in, err
	}
	in.EndAt = end
	return in, nil
}

func (h *handler) listRecurring(c *fiber.Ctx) error {
	rules, err := h.Ledger.ListRecurring(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(rules)
}

func (h *handler) getRecurring(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	rule, err := h.Ledger.GetRecurring(c.UserContext(), userID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(rule)
}

func (h *handler) createRecurring(c *fiber.Ctx) error {
	var req recurringRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	rule, report, err := h.Ledger.CreateRecurring(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(recurringResponse{RecurringTransaction: rule, Backfill: report})
}

func (h *handler) updateRecurring(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req recurringRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	rule, report, err := h.Ledger.UpdateRecurring(c.UserContext(), userID(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(recurringResponse{RecurringTransaction: rule, Backfill: report})
}

// deleteRecurring removes the rule with all its rows (scope=all) or a single
// occurrence (scope=occurrence&occurrence=<id>).
func (h *handler) deleteRecurring(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	scope := service.DeleteScope(c.Query("scope", string(service.DeleteAll)))
	if err := h.Ledger.DeleteRecurring(c.UserContext(), userID(c), id, scope, c.Query("occurrence")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) projection(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	today := h.Ledger.Today()
	from, err := dateQuery(c, "from", today)
	if err != nil {
		return err
	}
	to, err := dateQuery(c, "to", today.AddDate(1, 0, 0))
	if err != nil {
		return err
	}

	txns, err := h.Ledger.Projection(c.UserContext(), userID(c), id, from, to, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(txns)
}

func (h *handler) recurringHistory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	txns, err := h.Ledger.RecurringHistory(c.UserContext(), userID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(txns)
}
