// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package audit keeps an append-only action trail per company and exposes
// it as a queryable timeline and as CSV/JSON exports.
package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// Record appends an entry to the timeline. A storage failure is logged and
// swallowed: losing one audit row is preferable to failing the mutation it
// describes.
func (s *Service) Record(ctx context.Context, entry *types.AuditEntry) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Record")
	defer span.End()

	if entry.Severity == "" {
		entry.Severity = types.SeverityInfo
	}

	if meta, ok := MetaFromContext(ctx); ok {
		if entry.IPAddress == "" {
			entry.IPAddress = meta.IPAddress
		}
		if entry.UserAgent == "" {
			entry.UserAgent = meta.UserAgent
		}
	}

	if _, err := s.storage.InsertAuditEntry(ctx, entry); err != nil {
		s.logger.Errorf("failed to record audit entry %s/%s for company %s: %v",
			entry.Action, entry.Resource, entry.CompanyID, err)
	}
}

// Query returns a page of the company timeline, newest first.
func (s *Service) Query(ctx context.Context, companyID string, filter storage.AuditFilter) ([]*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Query")
	defer span.End()

	entries, err := s.storage.ListAuditEntries(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	return entries, nil
}

// Export renders the full timeline in insertion order. It returns the
// payload and its content type.
func (s *Service) Export(ctx context.Context, companyID, format string) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Export")
	defer span.End()

	if format != FormatCSV && format != FormatJSON {
		return nil, "", types.NewValidationError("unsupported export format %q", format)
	}

	entries, err := s.storage.ListAuditEntriesForExport(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load audit log for export: %w", err)
	}

	if format == FormatJSON {
		payload, err := json.Marshal(entries)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode audit export: %w", err)
		}

		return payload, "application/json", nil
	}

	payload, err := renderCSV(entries)
	if err != nil {
		return nil, "", err
	}

	return payload, "text/csv", nil
}

func renderCSV(entries []*types.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"id", "companyId", "actorName", "action", "resource",
		"resourceId", "status", "timestamp", "ipAddress",
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit export header: %w", err)
	}

	for _, e := range entries {
		if err := w.Write([]string{
			e.ID,
			e.CompanyID,
			e.ActorName,
			e.Action,
			e.Resource,
			e.ResourceID,
			e.Status,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.IPAddress,
		}); err != nil {
			return nil, fmt.Errorf("failed to write audit export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush audit export: %w", err)
	}

	return buf.Bytes(), nil
}
