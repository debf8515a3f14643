package repository

import (
	"context"
	"time"

	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

type PreferenceRepository struct {
	db *database.DB
}

func NewPreferenceRepository(db *database.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored preference, expired or not.
func (r *PreferenceRepository) Get(ctx context.Context, userID, key string) (*models.Preference, error) {
	p := &models.Preference{}
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT "UserId", "Key", "Value", "ExpiresAt", "UpdatedAt" FROM "UserPreferences"
		 WHERE "UserId" = $1 AND "Key" = $2`,
		userID, key,
	).Scan(&p.UserID, &p.Key, &p.Value, &p.ExpiresAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "preference %q", key)
	}
	return p, nil
}

func (r *PreferenceRepository) ListByUser(ctx context.Context, userID string) ([]*models.Preference, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "UserId", "Key", "Value", "ExpiresAt", "UpdatedAt" FROM "UserPreferences"
		 WHERE "UserId" = $1 ORDER BY "Key" ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []*models.Preference
	for rows.Next() {
		p := &models.Preference{}
		if err := rows.Scan(&p.UserID, &p.Key, &p.Value, &p.ExpiresAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (r *PreferenceRepository) Put(ctx context.Context, p *models.Preference) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "UserPreferences" ("UserId", "Key", "Value", "ExpiresAt", "UpdatedAt")
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT ("UserId", "Key")
		 DO UPDATE SET "Value" = EXCLUDED."Value", "ExpiresAt" = EXCLUDED."ExpiresAt", "UpdatedAt" = EXCLUDED."UpdatedAt"
		 RETURNING "UpdatedAt"`,
		p.UserID, p.Key, []byte(p.Value), p.ExpiresAt, time.Now(),
	).Scan(&p.UpdatedAt)
}

// DeleteExpired removes preferences whose TTL has passed.
func (r *PreferenceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Q(ctx).Exec(ctx,
		`DELETE FROM "UserPreferences" WHERE "ExpiresAt" IS NOT NULL AND "ExpiresAt" <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
