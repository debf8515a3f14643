package models

import (
	"encoding/json"
	"time"
)

// Preference is one persisted user setting. Value holds the JSON encoding
// of the key's typed value.
type Preference struct {
	UserID    string          `json:"userId"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// IsExpired checks whether the stored value is past its TTL.
func (p *Preference) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Theme is the client colour scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DateRange is a persisted from/to selection.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}
