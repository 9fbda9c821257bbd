// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/cortexbuild/tenancy-service/internal/types"
)

type StorageInterface interface {
	CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error)
	GetCompanyByID(ctx context.Context, id string) (*types.Company, error)
	ListCompaniesByUserID(ctx context.Context, userID string) ([]*types.Company, error)
	UpdateCompany(ctx context.Context, c *types.Company, paths []string) error
	DeleteCompany(ctx context.Context, id string) error

	UpsertUser(ctx context.Context, email, name string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	ActivateUser(ctx context.Context, id string) error

	UpsertMembership(ctx context.Context, userID, companyID string, role types.Role, status types.MembershipStatus) (*types.Membership, error)
	GetMembership(ctx context.Context, userID, companyID string) (*types.Membership, error)
	GetMembershipByID(ctx context.Context, id string) (*types.Membership, error)
	ListMembersByCompanyID(ctx context.Context, companyID string) ([]*types.Member, error)
	UpdateMembershipRole(ctx context.Context, id string, role, expectedRole types.Role) error
	DeleteMembership(ctx context.Context, id string, expectedRole types.Role) error
	ActivateMembership(ctx context.Context, userID, companyID string) (*types.Membership, error)

	InsertAuditEntry(ctx context.Context, e *types.AuditEntry) (*types.AuditEntry, error)
	ListAuditEntries(ctx context.Context, companyID string, f AuditFilter) ([]*types.AuditEntry, error)
	ListAuditEntriesForExport(ctx context.Context, companyID string) ([]*types.AuditEntry, error)
}
