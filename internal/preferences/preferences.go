// Package preferences stores typed per-user settings with optional expiry.
// A missing or expired value reads as the key's default.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
)

type Store interface {
	Get(ctx context.Context, userID, key string) (*models.Preference, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Preference, error)
	Put(ctx context.Context, p *models.Preference) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type TxRunner interface {
	WithUser(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}

// Key declares a preference: its name, how long a stored value lives
// (zero means forever), its default and an optional validator.
type Key[T any] struct {
	Name     string
	TTL      time.Duration
	Default  T
	Validate func(T) error
}

func (k Key[T]) name() string { return k.Name }

func (k Key[T]) ttl() time.Duration { return k.TTL }

func (k Key[T]) defaultValue() any { return k.Default }

func (k Key[T]) decodeAny(raw json.RawMessage) (any, error) { return k.decode(raw) }

func (k Key[T]) decode(raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, common.Invalidf("invalid value for %s", k.Name)
	}
	if k.Validate != nil {
		if err := k.Validate(v); err != nil {
			return v, common.Invalidf("invalid value for %s: %v", k.Name, err)
		}
	}
	return v, nil
}

type entry interface {
	name() string
	ttl() time.Duration
	defaultValue() any
	decodeAny(raw json.RawMessage) (any, error)
}

const day = 24 * time.Hour

var (
	ViewPeriod = Key[models.ViewPeriod]{
		Name:    "viewPeriod",
		Default: models.ViewPeriodMonth,
		Validate: func(p models.ViewPeriod) error {
			if !p.Valid() {
				return fmt.Errorf("must be MONTH or YEAR")
			}
			return nil
		},
	}

	SelectedScenario = Key[int64]{
		Name: "selectedScenario",
		TTL:  30 * day,
		Validate: func(id int64) error {
			if id < 0 {
				return fmt.Errorf("must not be negative")
			}
			return nil
		},
	}

	Theme = Key[models.Theme]{
		Name:    "theme",
		Default: models.ThemeSystem,
		Validate: func(t models.Theme) error {
			switch t {
			case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
				return nil
			}
			return fmt.Errorf("must be light, dark or system")
		},
	}

	DateRange = Key[models.DateRange]{
		Name: "dateRange",
		TTL:  day,
		Validate: func(r models.DateRange) error {
			from, err := models.ParseDate(r.From)
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			to, err := models.ParseDate(r.To)
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}
			if to.Before(from) {
				return fmt.Errorf("to is before from")
			}
			return nil
		},
	}
)

var registry = map[string]entry{
	ViewPeriod.Name:       ViewPeriod,
	SelectedScenario.Name: SelectedScenario,
	Theme.Name:            Theme,
	DateRange.Name:        DateRange,
}

// Names lists the known preference keys.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

type Preferences struct {
	db    TxRunner
	store Store
	now   func() time.Time
}

func New(db TxRunner, store Store) *Preferences {
	return &Preferences{db: db, store: store, now: time.Now}
}

// SetClock replaces the wall clock.
func (p *Preferences) SetClock(now func() time.Time) {
	p.now = now
}

// Get reads key for userID. Missing, expired and undecodable values all
// resolve to the key's default.
func Get[T any](ctx context.Context, p *Preferences, userID string, key Key[T]) (T, error) {
	var stored *models.Preference
	err := p.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		stored, err = p.store.Get(ctx, userID, key.Name)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return key.Default, nil
	}
	if err != nil {
		return key.Default, fmt.Errorf("failed to read preference %s: %w", key.Name, err)
	}
	if stored.IsExpired(p.now()) {
		return key.Default, nil
	}
	v, err := key.decode(stored.Value)
	if err != nil {
		common.LogError(ctx, err, "stored preference is invalid", common.Fields{"key": key.Name, "user_id": userID})
		return key.Default, nil
	}
	return v, nil
}

// Set stores value under key, replacing any previous value and restarting
// its TTL.
func Set[T any](ctx context.Context, p *Preferences, userID string, key Key[T], value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode preference %s: %w", key.Name, err)
	}
	_, err = p.put(ctx, userID, key, raw)
	return err
}

// All returns every known key for userID with defaults filled in.
func (p *Preferences) All(ctx context.Context, userID string) (map[string]any, error) {
	var stored []*models.Preference
	err := p.db.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		stored, err = p.store.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}

	out := make(map[string]any, len(registry))
	for name, e := range registry {
		out[name] = e.defaultValue()
	}
	now := p.now()
	for _, s := range stored {
		e, ok := registry[s.Key]
		if !ok || s.IsExpired(now) {
			continue
		}
		if v, err := e.decodeAny(s.Value); err == nil {
			out[s.Key] = v
		}
	}
	return out, nil
}

// SetRaw validates a JSON value for the named key and stores it. It returns
// the decoded value.
func (p *Preferences) SetRaw(ctx context.Context, userID, name string, raw json.RawMessage) (any, error) {
	e, ok := registry[name]
	if !ok {
		return nil, common.Invalidf("unknown preference %q", name)
	}
	return p.put(ctx, userID, e, raw)
}

func (p *Preferences) put(ctx context.Context, userID string, e entry, raw json.RawMessage) (any, error) {
	v, err := e.decodeAny(raw)
	if err != nil {
		return nil, err
	}

	pref := &models.Preference{UserID: userID, Key: e.name(), Value: raw}
	if ttl := e.ttl(); ttl > 0 {
		expires := p.now().Add(ttl)
		pref.ExpiresAt = &expires
	}
	err = p.db.WithUser(ctx, userID, func(ctx context.Context) error {
		return p.store.Put(ctx, pref)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save preference %s: %w", e.name(), err)
	}
	return v, nil
}

// Purge deletes expired values for all users.
func (p *Preferences) Purge(ctx context.Context) error {
	n, err := p.store.DeleteExpired(ctx, p.now())
	if err != nil {
		return fmt.Errorf("failed to purge preferences: %w", err)
	}
	if n > 0 {
		common.LogInfo(ctx, "expired preferences purged", common.Fields{"count": n})
	}
	return nil
}

// PlanningDefaults returns the saved scenario (0 for none) and view period.
func (p *Preferences) PlanningDefaults(ctx context.Context, userID string) (int64, models.ViewPeriod, error) {
	scenarioID, err := Get(ctx, p, userID, SelectedScenario)
	if err != nil {
		return 0, "", err
	}
	period, err := Get(ctx, p, userID, ViewPeriod)
	if err != nil {
		return 0, "", err
	}
	return scenarioID, period, nil
}
