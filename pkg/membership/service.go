// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package membership manages the user-company authorization edges. All
// mutations are gated on the acting user's own membership in the target
// company and recorded on the company audit trail.
package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	recorder RecorderInterface
	tracer   tracing.TracingInterface
	monitor  monitoring.MonitorInterface
	logger   logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	recorder RecorderInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		recorder: recorder,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// GetMembership returns the actor's own membership in the company.
func (s *Service) GetMembership(ctx context.Context, actorID, companyID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.GetMembership")
	defer span.End()

	m, err := s.storage.GetMembership(ctx, actorID, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewNotFoundError("membership not found")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

// GetCompanyMembers lists the company roster. Any member may look,
// invited and suspended included; only mutations require an active row.
func (s *Service) GetCompanyMembers(ctx context.Context, actorID, companyID string) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.GetCompanyMembers")
	defer span.End()

	if _, err := s.anyMembership(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	members, err := s.storage.ListMembersByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// AddMember invites a user into the company. The user row is created on
// first sight of the email; re-adding an existing member updates the row
// in place instead of duplicating it.
func (s *Service) AddMember(ctx context.Context, actorID, companyID, email, name string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.AddMember")
	defer span.End()

	actor, err := s.adminMembership(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}

	if email == "" {
		return nil, types.NewValidationError("email is required")
	}

	if !role.Valid() {
		return nil, types.NewValidationError("invalid role %q", role)
	}

	if role == types.RoleSuperadmin && actor.Role != types.RoleSuperadmin {
		return nil, types.NewForbiddenError("only a superadmin may grant the superadmin role")
	}

	user, err := s.storage.UpsertUser(ctx, email, name)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	m, err := s.storage.UpsertMembership(ctx, user.ID, companyID, role, types.MembershipInvited)
	if err != nil {
		if errors.Is(err, storage.ErrForeignKeyViolation) {
			return nil, types.NewNotFoundError("company not found")
		}
		return nil, fmt.Errorf("failed to upsert membership: %w", err)
	}

	s.record(ctx, actorID, companyID, "ADD_MEMBER", "membership", m.ID, map[string]interface{}{
		"email": email,
		"role":  m.Role,
	})

	return m, nil
}

// UpdateMembership changes a member's role. The expected current role is
// re-checked inside the update statement, so a row changed between the
// authorization read and the write surfaces as a conflict instead of
// silently bypassing the peer-admin rule.
func (s *Service) UpdateMembership(ctx context.Context, actorID, companyID, userID string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.UpdateMembership")
	defer span.End()

	actor, err := s.adminMembership(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, types.NewValidationError("invalid role %q", role)
	}

	target, err := s.targetMembership(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	if target.Role == types.RoleCompanyAdmin && actor.Role != types.RoleSuperadmin {
		return nil, types.NewForbiddenError("a company admin cannot be modified by another company admin")
	}

	if role == types.RoleSuperadmin && actor.Role != types.RoleSuperadmin {
		return nil, types.NewForbiddenError("only a superadmin may grant the superadmin role")
	}

	if err := s.storage.UpdateMembershipRole(ctx, target.ID, role, target.Role); err != nil {
		if errors.Is(err, storage.ErrConditionFailed) {
			return nil, types.NewConflictError("membership changed concurrently, retry")
		}
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}

	s.record(ctx, actorID, companyID, "UPDATE_MEMBER", "membership", target.ID, map[string]interface{}{
		"userId":  userID,
		"oldRole": target.Role,
		"newRole": role,
	})

	updated, err := s.storage.GetMembershipByID(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload membership: %w", err)
	}

	return updated, nil
}

// RemoveMember deletes a membership. Company admin rows can only be
// removed by a superadmin.
func (s *Service) RemoveMember(ctx context.Context, actorID, companyID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "membership.Service.RemoveMember")
	defer span.End()

	actor, err := s.adminMembership(ctx, actorID, companyID)
	if err != nil {
		return err
	}

	target, err := s.targetMembership(ctx, companyID, userID)
	if err != nil {
		return err
	}

	if target.Role == types.RoleCompanyAdmin && actor.Role != types.RoleSuperadmin {
		return types.NewForbiddenError("a company admin cannot be removed by another company admin")
	}

	if err := s.storage.DeleteMembership(ctx, target.ID, target.Role); err != nil {
		if errors.Is(err, storage.ErrConditionFailed) {
			return types.NewConflictError("membership changed concurrently, retry")
		}
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	s.record(ctx, actorID, companyID, "REMOVE_MEMBER", "membership", target.ID, map[string]interface{}{
		"userId": target.UserID,
		"role":   target.Role,
	})

	return nil
}

// RequireCompanyAdmin returns nil when the actor may administer the
// company. Used by other packages gating admin-only reads.
func (s *Service) RequireCompanyAdmin(ctx context.Context, actorID, companyID string) error {
	ctx, span := s.tracer.Start(ctx, "membership.Service.RequireCompanyAdmin")
	defer span.End()

	_, err := s.adminMembership(ctx, actorID, companyID)
	return err
}

// anyMembership loads the actor's membership in any status. A missing
// row deliberately maps to forbidden, not found: outsiders must not
// learn which company IDs exist.
func (s *Service) anyMembership(ctx context.Context, actorID, companyID string) (*types.Membership, error) {
	m, err := s.storage.GetMembership(ctx, actorID, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewForbiddenError("not a member of this company")
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	return m, nil
}

// activeMembership additionally requires the row to be active. Every
// mutation path goes through here.
func (s *Service) activeMembership(ctx context.Context, actorID, companyID string) (*types.Membership, error) {
	m, err := s.anyMembership(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}

	if m.Status != types.MembershipActive {
		return nil, types.NewForbiddenError("membership is not active")
	}

	return m, nil
}

func (s *Service) adminMembership(ctx context.Context, actorID, companyID string) (*types.Membership, error) {
	m, err := s.activeMembership(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}

	if m.Role != types.RoleCompanyAdmin && m.Role != types.RoleSuperadmin {
		s.logger.Security().AuthzFailure(actorID, "company_admin")
		return nil, types.NewForbiddenError("company admin role required")
	}

	return m, nil
}

func (s *Service) targetMembership(ctx context.Context, companyID, userID string) (*types.Membership, error) {
	target, err := s.storage.GetMembership(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewNotFoundError("membership not found")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return target, nil
}

func (s *Service) record(ctx context.Context, actorID, companyID, action, resource, resourceID string, changes map[string]interface{}) {
	payload, err := json.Marshal(changes)
	if err != nil {
		s.logger.Errorf("failed to encode audit changes for %s: %v", action, err)
		payload = nil
	}

	entry := &types.AuditEntry{
		CompanyID:  companyID,
		ActorID:    actorID,
		ActorName:  s.actorName(ctx, actorID),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Changes:    payload,
		Status:     types.AuditSuccess,
	}

	s.recorder.Record(ctx, entry)
}

func (s *Service) actorName(ctx context.Context, actorID string) string {
	user, err := s.storage.GetUserByID(ctx, actorID)
	if err != nil {
		return actorID
	}

	return user.Name
}
