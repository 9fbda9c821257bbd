// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/cortexbuild/tenancy-service/internal/db"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

const auditColumns = "id, company_id, actor_id, actor_name, action, resource, resource_id, changes, status, ip_address, user_agent, severity, created_at"

// AuditFilter narrows a timeline query. Zero values mean no filtering;
// Page/PageSize of zero fall back to the storage defaults.
type AuditFilter struct {
	Action   string
	Resource string
	ActorID  string
	Page     int64
	PageSize int64
}

// InsertAuditEntry appends one immutable entry. Rows are never updated or
// deleted outside of company cascade removal.
func (s *Storage) InsertAuditEntry(ctx context.Context, e *types.AuditEntry) (*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.InsertAuditEntry")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate audit entry ID: %w", err)
	}

	changes := e.Changes
	if len(changes) == 0 {
		changes = json.RawMessage(`{}`)
	}
	severity := e.Severity
	if severity == "" {
		severity = types.SeverityInfo
	}

	row := s.db.Statement(ctx).
		Insert("audit_logs").
		Columns("id", "company_id", "actor_id", "actor_name", "action", "resource", "resource_id", "changes", "status", "ip_address", "user_agent", "severity").
		Values(id.String(), e.CompanyID, e.ActorID, e.ActorName, e.Action, e.Resource, e.ResourceID, []byte(changes), e.Status, e.IPAddress, e.UserAgent, severity).
		Suffix("RETURNING " + auditColumns).
		QueryRowContext(ctx)

	inserted, err := scanAuditEntry(row)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return inserted, nil
}

// ListAuditEntries returns the company timeline, newest first.
func (s *Storage) ListAuditEntries(ctx context.Context, companyID string, f AuditFilter) ([]*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListAuditEntries")
	defer span.End()

	pageSize := db.PageSize(f.PageSize)
	query := s.db.Statement(ctx).
		Select(auditColumns).
		From("audit_logs").
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(pageSize).
		Offset(db.Offset(f.Page, pageSize))

	if f.Action != "" {
		query = query.Where(sq.Eq{"action": f.Action})
	}
	if f.Resource != "" {
		query = query.Where(sq.Eq{"resource": f.Resource})
	}
	if f.ActorID != "" {
		query = query.Where(sq.Eq{"actor_id": f.ActorID})
	}

	return s.queryAuditEntries(ctx, query)
}

// ListAuditEntriesForExport returns every entry for the company in
// insertion order, as required by compliance export.
func (s *Storage) ListAuditEntriesForExport(ctx context.Context, companyID string) ([]*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListAuditEntriesForExport")
	defer span.End()

	query := s.db.Statement(ctx).
		Select(auditColumns).
		From("audit_logs").
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("created_at ASC", "id ASC")

	return s.queryAuditEntries(ctx, query)
}

func (s *Storage) queryAuditEntries(ctx context.Context, query sq.SelectBuilder) ([]*types.AuditEntry, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*types.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

func scanAuditEntry(row rowScanner) (*types.AuditEntry, error) {
	var e types.AuditEntry
	var changes []byte

	err := row.Scan(&e.ID, &e.CompanyID, &e.ActorID, &e.ActorName, &e.Action, &e.Resource, &e.ResourceID, &changes, &e.Status, &e.IPAddress, &e.UserAgent, &e.Severity, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	e.Changes = json.RawMessage(changes)
	return &e, nil
}
