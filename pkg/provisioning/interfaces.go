// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"context"

	"github.com/cortexbuild/tenancy-service/internal/schema"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

type ServiceInterface interface {
	InitiateProvisioning(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error)
	InviteCompanyAdmin(ctx context.Context, actorID, companyID, email, name string) (*ProvisionResult, error)
	AcceptInvitation(ctx context.Context, userID, companyID string) (*types.Membership, error)
}

type StorageInterface interface {
	CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error)
	GetCompanyByID(ctx context.Context, id string) (*types.Company, error)
	UpdateCompany(ctx context.Context, c *types.Company, paths []string) error
	UpsertUser(ctx context.Context, email, name string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	ActivateUser(ctx context.Context, id string) error
	UpsertMembership(ctx context.Context, userID, companyID string, role types.Role, status types.MembershipStatus) (*types.Membership, error)
	GetMembership(ctx context.Context, userID, companyID string) (*types.Membership, error)
	ActivateMembership(ctx context.Context, userID, companyID string) (*types.Membership, error)
}

// TxRunnerInterface runs a function inside one database transaction.
// Storage calls made with the yielded context join that transaction.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// SchemaInitializerInterface bootstraps the tenant table set when a
// company first becomes active.
type SchemaInitializerInterface interface {
	Initialize(ctx context.Context, runner schema.DDLRunner) error
}

// MailerInterface delivers the admin invitation email.
type MailerInterface interface {
	SendInvitation(ctx context.Context, email, roleLabel, companyName, acceptLink string) error
}

// RecorderInterface is the audit sink. Record never fails the caller.
type RecorderInterface interface {
	Record(ctx context.Context, entry *types.AuditEntry)
}
