// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cortexbuild/tenancy-service/internal/db"
	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

const companyColumns = "id, name, plan, status, settings, subscription_status, subscription_plan, features, created_at, updated_at"

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func (s *Storage) CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateCompany")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate company ID: %w", err)
	}

	settings := c.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}

	features, err := json.Marshal(c.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	row := s.db.Statement(ctx).
		Insert("companies").
		Columns("id", "name", "plan", "status", "settings", "subscription_status", "subscription_plan", "features").
		Values(id.String(), c.Name, c.Plan, c.Status, []byte(settings), c.Subscription.Status, c.Subscription.Plan, features).
		Suffix("RETURNING " + companyColumns).
		QueryRowContext(ctx)

	created, err := scanCompany(row)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert company: %w", err)
	}

	return created, nil
}

func (s *Storage) GetCompanyByID(ctx context.Context, id string) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetCompanyByID")
	defer span.End()

	row := s.db.Statement(ctx).
		Select(companyColumns).
		From("companies").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx)

	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return c, nil
}

func (s *Storage) ListCompaniesByUserID(ctx context.Context, userID string) ([]*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListCompaniesByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("c.id", "c.name", "c.plan", "c.status", "c.settings", "c.subscription_status", "c.subscription_plan", "c.features", "c.created_at", "c.updated_at").
		From("companies c").
		Join("memberships m ON c.id = m.company_id").
		Where(sq.Eq{"m.user_id": userID}).
		OrderBy("c.created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*types.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return companies, nil
}

// UpdateCompany updates only the fields named in paths, following PATCH
// semantics. Unknown paths are ignored.
func (s *Storage) UpdateCompany(ctx context.Context, c *types.Company, paths []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateCompany")
	defer span.End()

	updateMap := make(map[string]interface{})
	for _, p := range paths {
		switch p {
		case "name":
			updateMap["name"] = c.Name
		case "plan":
			updateMap["plan"] = c.Plan
		case "status":
			updateMap["status"] = c.Status
		case "settings":
			updateMap["settings"] = []byte(c.Settings)
		case "subscription":
			updateMap["subscription_status"] = c.Subscription.Status
			updateMap["subscription_plan"] = c.Subscription.Plan
		case "features":
			features, err := json.Marshal(c.Features)
			if err != nil {
				return fmt.Errorf("failed to encode features: %w", err)
			}
			updateMap["features"] = features
		}
	}

	if len(updateMap) == 0 {
		return nil
	}
	updateMap["updated_at"] = sq.Expr("now()")

	res, err := s.db.Statement(ctx).
		Update("companies").
		SetMap(updateMap).
		Where(sq.Eq{"id": c.ID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
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

// DeleteCompany removes the company row. Memberships and audit entries are
// removed by the ON DELETE CASCADE constraints on their foreign keys.
func (s *Storage) DeleteCompany(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteCompany")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("companies").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner) (*types.Company, error) {
	var c types.Company
	var settings, features []byte

	err := row.Scan(&c.ID, &c.Name, &c.Plan, &c.Status, &settings, &c.Subscription.Status, &c.Subscription.Plan, &features, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Settings = json.RawMessage(settings)
	if len(features) > 0 {
		if err := json.Unmarshal(features, &c.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}

	return &c, nil
}
