package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
)

func bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return common.NewUserError("invalid request body", common.ErrInvalidInput)
	}
	return nil
}

func parseDate(s, field string) (time.Time, error) {
	d, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, common.Invalidf("%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

func parseDatePtr(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := parseDate(*s, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// dateQuery reads an optional YYYY-MM-DD query parameter.
func dateQuery(c *fiber.Ctx, name string, def time.Time) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	return parseDate(v, name)
}

// rangeQuery reads from/to, defaulting to the month containing today.
func rangeQuery(c *fiber.Ctx, today time.Time) (time.Time, time.Time, error) {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	from, err := dateQuery(c, "from", first)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := dateQuery(c, "to", first.AddDate(0, 1, -1))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, common.Invalidf("to must not be before from")
	}
	return from, to, nil
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Invalidf("invalid %s", name)
	}
	return id, nil
}
