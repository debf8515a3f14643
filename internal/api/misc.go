package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/cron"
)

func (h *handler) listPreferences(c *fiber.Ctx) error {
	if h.Preferences == nil {
		return common.ErrFeatureDisabled
	}
	prefs, err := h.Preferences.All(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(prefs)
}

// putPreference stores the raw JSON body as the value of :key.
func (h *handler) putPreference(c *fiber.Ctx) error {
	if h.Preferences == nil {
		return common.ErrFeatureDisabled
	}
	body := c.Body()
	if !json.Valid(body) {
		return common.Invalidf("body must be a JSON value")
	}
	key := utils.CopyString(c.Params("key"))
	v, err := h.Preferences.SetRaw(c.UserContext(), userID(c), key, json.RawMessage(utils.CopyBytes(body)))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"key": key, "value": v})
}

// runCron processes due recurring rules. It answers 500 when no database is
// configured or the due rules cannot be listed.
func (h *handler) runCron(c *fiber.Ctx) error {
	if h.Cron == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(cron.Summary{
			Details:  []cron.Detail{},
			Duration: "0ms",
			Error:    "database is not configured",
		})
	}

	summary, err := h.Cron.Run(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(summary)
	}
	return c.JSON(summary)
}
