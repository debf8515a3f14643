package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/models"
)

type MemberRepository struct {
	db *database.DB
}

func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Upsert adds a member to the account or changes their role.
func (r *MemberRepository) Upsert(ctx context.Context, member *models.AccountMember) error {
	return r.db.Q(ctx).QueryRow(ctx,
		`INSERT INTO "AccountMembers" ("AccountId", "UserId", "Role")
		 VALUES ($1, $2, $3)
		 ON CONFLICT ("AccountId", "UserId") DO UPDATE SET "Role" = EXCLUDED."Role"
		 RETURNING "CreatedAt"`,
		member.AccountID, member.UserID, member.Role,
	).Scan(&member.CreatedAt)
}

func (r *MemberRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.AccountMember, error) {
	rows, err := r.db.Q(ctx).Query(ctx,
		`SELECT "AccountId", "UserId", "Role", "CreatedAt" FROM "AccountMembers"
		 WHERE "AccountId" = $1 ORDER BY "CreatedAt" ASC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.AccountMember
	for rows.Next() {
		m := &models.AccountMember{}
		if err := rows.Scan(&m.AccountID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Role returns the user's role on the account, or ErrNotFound when the user
// is not a member.
func (r *MemberRepository) Role(ctx context.Context, accountID uuid.UUID, userID string) (models.AccountRole, error) {
	var role models.AccountRole
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT "Role" FROM "AccountMembers" WHERE "AccountId" = $1 AND "UserId" = $2`,
		accountID, userID,
	).Scan(&role)
	if err != nil {
		return "", notFound(err, "member %s of account %s", userID, accountID)
	}
	return role, nil
}

// HasMembers reports whether anyone, visible to the caller or not, belongs
// to the account.
func (r *MemberRepository) HasMembers(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Q(ctx).QueryRow(ctx, `SELECT account_has_members($1)`, accountID).Scan(&exists)
	return exists, err
}
