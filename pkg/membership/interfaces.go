// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"

	"github.com/cortexbuild/tenancy-service/internal/types"
)

type ServiceInterface interface {
	GetMembership(ctx context.Context, actorID, companyID string) (*types.Membership, error)
	GetCompanyMembers(ctx context.Context, actorID, companyID string) ([]*types.Member, error)
	AddMember(ctx context.Context, actorID, companyID, email, name string, role types.Role) (*types.Membership, error)
	UpdateMembership(ctx context.Context, actorID, companyID, userID string, role types.Role) (*types.Membership, error)
	RemoveMember(ctx context.Context, actorID, companyID, userID string) error
	RequireCompanyAdmin(ctx context.Context, actorID, companyID string) error
}

type StorageInterface interface {
	UpsertUser(ctx context.Context, email, name string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	UpsertMembership(ctx context.Context, userID, companyID string, role types.Role, status types.MembershipStatus) (*types.Membership, error)
	GetMembership(ctx context.Context, userID, companyID string) (*types.Membership, error)
	GetMembershipByID(ctx context.Context, id string) (*types.Membership, error)
	ListMembersByCompanyID(ctx context.Context, companyID string) ([]*types.Member, error)
	UpdateMembershipRole(ctx context.Context, id string, role, expectedRole types.Role) error
	DeleteMembership(ctx context.Context, id string, expectedRole types.Role) error
}

// RecorderInterface is the audit sink. Record never fails the caller.
type RecorderInterface interface {
	Record(ctx context.Context, entry *types.AuditEntry)
}
