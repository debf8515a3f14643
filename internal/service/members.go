package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
)

// ListMembers returns the members of a shared account the caller belongs to.
func (s *Service) ListMembers(ctx context.Context, userID string, accountID uuid.UUID) ([]*models.AccountMember, error) {
	var members []*models.AccountMember
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		if _, err := s.members.Role(ctx, accountID, userID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountID, common.ErrForbidden)
			}
			return err
		}
		var err error
		members, err = s.members.ListByAccount(ctx, accountID)
		return err
	})
	return members, err
}

// AddMember grants memberID a role on the account. Only owners may do so,
// except that the first member of an account is its owner by claiming it.
func (s *Service) AddMember(ctx context.Context, userID string, accountID uuid.UUID, memberID string, role models.AccountRole) (*models.AccountMember, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, common.Invalidf("member user id is required")
	}
	role = models.AccountRole(strings.ToUpper(string(role)))
	if !role.Valid() {
		return nil, common.Invalidf("unknown role %q", role)
	}

	member := &models.AccountMember{AccountID: accountID, UserID: memberID, Role: role}
	err := s.db.WithUser(ctx, userID, func(ctx context.Context) error {
		claimed, err := s.members.HasMembers(ctx, accountID)
		if err != nil {
			return err
		}

		if !claimed {
			if memberID != userID || role != models.AccountRoleOwner {
				return common.Invalidf("the first member of an account must be its owner")
			}
			return s.members.Upsert(ctx, member)
		}

		callerRole, err := s.members.Role(ctx, accountID, userID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if callerRole != models.AccountRoleOwner {
			return fmt.Errorf("only owners can add members to account %s: %w", accountID, common.ErrForbidden)
		}
		return s.members.Upsert(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}
