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

const userColumns = "id, email, name, status, created_at, updated_at"

// UpsertUser creates a user in invited status, or updates the name of the
// existing user holding that email. A single statement closes the
// check-then-insert race on concurrent invitations for the same address.
func (s *Storage) UpsertUser(ctx context.Context, email, name string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertUser")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	var u types.User
	err = s.db.Statement(ctx).
		Insert("users").
		Columns("id", "email", "name", "status").
		Values(id.String(), email, name, types.UserInvited).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = now() RETURNING " + userColumns).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Email, &u.Name, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByID")
	defer span.End()

	var u types.User
	err := s.db.Statement(ctx).
		Select(userColumns).
		From("users").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Email, &u.Name, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

func (s *Storage) ActivateUser(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.ActivateUser")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("users").
		Set("status", types.UserActive).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
