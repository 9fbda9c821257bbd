// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

type ServiceInterface interface {
	// Record appends an entry to the company timeline. It never returns an
	// error: audit failures must not fail the operation being audited.
	Record(ctx context.Context, entry *types.AuditEntry)
	Query(ctx context.Context, companyID string, filter storage.AuditFilter) ([]*types.AuditEntry, error)
	Export(ctx context.Context, companyID, format string) ([]byte, string, error)
}

// AuthorizerInterface gates timeline reads to company admins.
type AuthorizerInterface interface {
	RequireCompanyAdmin(ctx context.Context, actorID, companyID string) error
}

type StorageInterface interface {
	InsertAuditEntry(ctx context.Context, e *types.AuditEntry) (*types.AuditEntry, error)
	ListAuditEntries(ctx context.Context, companyID string, f storage.AuditFilter) ([]*types.AuditEntry, error)
	ListAuditEntriesForExport(ctx context.Context, companyID string) ([]*types.AuditEntry, error)
}
