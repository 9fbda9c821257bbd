// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package provisioning owns the company lifecycle: creating a company
// with its first admin, inviting further admins, and turning an accepted
// invitation into an active tenant.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/schema"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

// ProvisionRequest carries the input for creating a company with its
// first (invited) admin.
type ProvisionRequest struct {
	CompanyName string
	Plan        types.Plan
	AdminEmail  string
	AdminName   string
}

// ProvisionResult is what both provisioning entry points return: the
// company, the invited admin's user row and membership, and the link the
// invitee follows to accept.
type ProvisionResult struct {
	Company    *types.Company    `json:"company"`
	User       *types.User       `json:"user"`
	Membership *types.Membership `json:"membership"`
	AcceptLink string            `json:"acceptLink"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage     StorageInterface
	tx          TxRunnerInterface
	schemaInit  SchemaInitializerInterface
	schemaStore schema.DDLRunner
	mailer      MailerInterface
	recorder    RecorderInterface
	appURL      string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	tx TxRunnerInterface,
	schemaInit SchemaInitializerInterface,
	schemaStore schema.DDLRunner,
	mailer MailerInterface,
	recorder RecorderInterface,
	appURL string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:     storage,
		tx:          tx,
		schemaInit:  schemaInit,
		schemaStore: schemaStore,
		mailer:      mailer,
		recorder:    recorder,
		appURL:      appURL,
		tracer:      tracer,
		monitor:     monitor,
		logger:      logger,
	}
}

// InitiateProvisioning creates the company, the admin user and the admin
// membership atomically. The company stays pending_invite until the admin
// accepts. The audit entry and invitation email happen after commit and
// are best-effort: a lost email never rolls back a created company.
func (s *Service) InitiateProvisioning(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.Service.InitiateProvisioning")
	defer span.End()

	if req.CompanyName == "" {
		return nil, types.NewValidationError("company name is required")
	}

	if req.AdminEmail == "" {
		return nil, types.NewValidationError("admin email is required")
	}

	if req.AdminName == "" {
		return nil, types.NewValidationError("admin name is required")
	}

	plan := req.Plan
	if plan == "" {
		plan = types.PlanFree
	}

	if !plan.Valid() {
		return nil, types.NewValidationError("invalid plan %q", plan)
	}

	result := &ProvisionResult{}

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		company, err := s.storage.CreateCompany(txCtx, &types.Company{
			Name:   req.CompanyName,
			Plan:   plan,
			Status: types.CompanyPendingInvite,
			Subscription: types.Subscription{
				Status: "trial",
				Plan:   plan,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		user, err := s.storage.UpsertUser(txCtx, req.AdminEmail, req.AdminName)
		if err != nil {
			return fmt.Errorf("failed to upsert admin user: %w", err)
		}

		membership, err := s.storage.UpsertMembership(txCtx, user.ID, company.ID, types.RoleCompanyAdmin, types.MembershipInvited)
		if err != nil {
			return fmt.Errorf("failed to create admin membership: %w", err)
		}

		result.Company = company
		result.User = user
		result.Membership = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.AcceptLink = s.acceptLink(result.Company.ID, result.User.ID)

	s.recorder.Record(ctx, &types.AuditEntry{
		CompanyID:  result.Company.ID,
		ActorID:    result.User.ID,
		ActorName:  result.User.Name,
		Action:     "COMPANY_CREATED",
		Resource:   "company",
		ResourceID: result.Company.ID,
		Status:     types.AuditSuccess,
	})

	s.sendInvitation(ctx, result)

	return result, nil
}

// InviteCompanyAdmin invites an additional admin into an existing
// company. Only current admins of that company may do this.
func (s *Service) InviteCompanyAdmin(ctx context.Context, actorID, companyID, email, name string) (*ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.Service.InviteCompanyAdmin")
	defer span.End()

	if email == "" {
		return nil, types.NewValidationError("email is required")
	}

	actor, err := s.storage.GetMembership(ctx, actorID, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewForbiddenError("not a member of this company")
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	if actor.Status != types.MembershipActive ||
		(actor.Role != types.RoleCompanyAdmin && actor.Role != types.RoleSuperadmin) {
		s.logger.Security().AuthzFailure(actorID, "company_admin")
		return nil, types.NewForbiddenError("company admin role required")
	}

	company, err := s.storage.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewNotFoundError("company not found")
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	result := &ProvisionResult{Company: company}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		user, err := s.storage.UpsertUser(txCtx, email, name)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		if existing, err := s.storage.GetMembership(txCtx, user.ID, companyID); err == nil {
			if existing.Status == types.MembershipActive {
				return types.NewConflictError("user is already an active member of this company")
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check existing membership: %w", err)
		}

		membership, err := s.storage.UpsertMembership(txCtx, user.ID, companyID, types.RoleCompanyAdmin, types.MembershipInvited)
		if err != nil {
			return fmt.Errorf("failed to upsert membership: %w", err)
		}

		result.User = user
		result.Membership = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.AcceptLink = s.acceptLink(companyID, result.User.ID)

	s.recorder.Record(ctx, &types.AuditEntry{
		CompanyID:  companyID,
		ActorID:    actorID,
		ActorName:  s.actorName(ctx, actorID),
		Action:     "INVITE_ADMIN",
		Resource:   "membership",
		ResourceID: result.Membership.ID,
		Status:     types.AuditSuccess,
	})

	s.sendInvitation(ctx, result)

	return result, nil
}

// AcceptInvitation flips the invited membership, its user and a
// pending_invite company to active, and bootstraps the tenant schema.
// Re-accepting an already active membership is a no-op.
func (s *Service) AcceptInvitation(ctx context.Context, userID, companyID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.Service.AcceptInvitation")
	defer span.End()

	var membership *types.Membership
	var activated bool

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		m, err := s.storage.ActivateMembership(txCtx, userID, companyID)
		switch {
		case err == nil:
			membership = m
			activated = true
		case errors.Is(err, storage.ErrConditionFailed):
			// Not in invited state. Accept is idempotent for an already
			// active membership; anything else is a real miss.
			existing, getErr := s.storage.GetMembership(txCtx, userID, companyID)
			if getErr != nil {
				if errors.Is(getErr, storage.ErrNotFound) {
					return types.NewNotFoundError("invitation not found")
				}
				return fmt.Errorf("failed to check membership: %w", getErr)
			}
			if existing.Status != types.MembershipActive {
				return types.NewConflictError("membership is suspended")
			}
			membership = existing
			return nil
		case errors.Is(err, storage.ErrNotFound):
			return types.NewNotFoundError("invitation not found")
		default:
			return fmt.Errorf("failed to activate membership: %w", err)
		}

		if err := s.storage.ActivateUser(txCtx, userID); err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}

		company, err := s.storage.GetCompanyByID(txCtx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get company: %w", err)
		}

		if company.Status == types.CompanyPendingInvite {
			company.Status = types.CompanyActive
			if err := s.storage.UpdateCompany(txCtx, company, []string{"status"}); err != nil {
				return fmt.Errorf("failed to activate company: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// A repeat accept of an already active membership changed nothing:
	// no schema run, no audit entry.
	if !activated {
		return membership, nil
	}

	if err := s.schemaInit.Initialize(ctx, s.schemaStore); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, &types.AuditEntry{
		CompanyID:  companyID,
		ActorID:    userID,
		ActorName:  s.actorName(ctx, userID),
		Action:     "INVITATION_ACCEPTED",
		Resource:   "membership",
		ResourceID: membership.ID,
		Status:     types.AuditSuccess,
	})

	return membership, nil
}

func (s *Service) acceptLink(companyID, userID string) string {
	return fmt.Sprintf("%s/invitations/accept?companyId=%s&userId=%s",
		s.appURL, url.QueryEscape(companyID), url.QueryEscape(userID))
}

func (s *Service) sendInvitation(ctx context.Context, result *ProvisionResult) {
	err := s.mailer.SendInvitation(ctx, result.User.Email, "Company Admin", result.Company.Name, result.AcceptLink)
	if err != nil {
		s.logger.Errorf("failed to send invitation email to %s for company %s: %v",
			result.User.Email, result.Company.ID, err)
	}
}

func (s *Service) actorName(ctx context.Context, actorID string) string {
	user, err := s.storage.GetUserByID(ctx, actorID)
	if err != nil {
		return actorID
	}

	return user.Name
}
