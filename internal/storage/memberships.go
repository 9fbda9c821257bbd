// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cortexbuild/tenancy-service/internal/types"
)

const membershipColumns = "id, user_id, company_id, role, status, created_at, updated_at"

// UpsertMembership creates the membership for (userID, companyID) or, when
// one already exists, updates its role and status in place. The unique
// constraint on the pair guarantees at most one row regardless of
// concurrent callers.
func (s *Storage) UpsertMembership(ctx context.Context, userID, companyID string, role types.Role, status types.MembershipStatus) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertMembership")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate membership ID: %w", err)
	}

	var m types.Membership
	err = s.db.Statement(ctx).
		Insert("memberships").
		Columns("id", "user_id", "company_id", "role", "status").
		Values(id.String(), userID, companyID, role, status).
		Suffix("ON CONFLICT (user_id, company_id) DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status, updated_at = now() RETURNING " + membershipColumns).
		QueryRowContext(ctx).
		Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to upsert membership: %w", err)
	}

	return &m, nil
}

func (s *Storage) GetMembership(ctx context.Context, userID, companyID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	return s.getMembership(ctx, sq.Eq{"user_id": userID, "company_id": companyID})
}

func (s *Storage) GetMembershipByID(ctx context.Context, id string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembershipByID")
	defer span.End()

	return s.getMembership(ctx, sq.Eq{"id": id})
}

func (s *Storage) getMembership(ctx context.Context, pred sq.Eq) (*types.Membership, error) {
	var m types.Membership
	err := s.db.Statement(ctx).
		Select(membershipColumns).
		From("memberships").
		Where(pred).
		QueryRowContext(ctx).
		Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

func (s *Storage) ListMembersByCompanyID(ctx context.Context, companyID string) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembersByCompanyID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("m.id", "u.id", "u.name", "u.email", "m.role", "m.status", "m.created_at").
		From("memberships m").
		Join("users u ON u.id = m.user_id").
		Where(sq.Eq{"m.company_id": companyID}).
		OrderBy("m.created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*types.Member
	for rows.Next() {
		var m types.Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.Role, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

// UpdateMembershipRole applies the new role only while the row still holds
// expectedRole. Checking and mutating in one statement closes the window
// between the authorization check and the write.
func (s *Storage) UpdateMembershipRole(ctx context.Context, id string, role, expectedRole types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMembershipRole")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("memberships").
		Set("role", role).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "role": expectedRole}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update membership role: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrConditionFailed
	}

	return nil
}

// DeleteMembership removes the row only while it still holds expectedRole,
// with the same conditional semantics as UpdateMembershipRole.
func (s *Storage) DeleteMembership(ctx context.Context, id string, expectedRole types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteMembership")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("memberships").
		Where(sq.Eq{"id": id, "role": expectedRole}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrConditionFailed
	}

	return nil
}

// ActivateMembership flips an invited membership to active and returns the
// updated row. ErrConditionFailed means no invited membership matched.
func (s *Storage) ActivateMembership(ctx context.Context, userID, companyID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ActivateMembership")
	defer span.End()

	var m types.Membership
	err := s.db.Statement(ctx).
		Update("memberships").
		Set("status", types.MembershipActive).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID, "company_id": companyID, "status": types.MembershipInvited}).
		Suffix("RETURNING " + membershipColumns).
		QueryRowContext(ctx).
		Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to activate membership: %w", err)
	}

	return &m, nil
}
