// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package company

import (
	"context"

	"github.com/cortexbuild/tenancy-service/internal/types"
)

type ServiceInterface interface {
	ListMyCompanies(ctx context.Context, userID string) ([]*types.Company, error)
	GetCompany(ctx context.Context, actorID, companyID string) (*types.Company, error)
	UpdateCompany(ctx context.Context, actorID, companyID string, patch *UpdatePatch) (*types.Company, error)
}

type StorageInterface interface {
	GetCompanyByID(ctx context.Context, id string) (*types.Company, error)
	ListCompaniesByUserID(ctx context.Context, userID string) ([]*types.Company, error)
	UpdateCompany(ctx context.Context, c *types.Company, paths []string) error
	GetMembership(ctx context.Context, userID, companyID string) (*types.Membership, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
}

// RecorderInterface is the audit sink. Record never fails the caller.
type RecorderInterface interface {
	Record(ctx context.Context, entry *types.AuditEntry)
}
