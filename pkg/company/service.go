// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package company serves the tenant root: listing a user's companies and
// reading or updating a single company's profile, plan and settings.
package company

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

// UpdatePatch carries the optional fields of a company update. Nil fields
// are left untouched.
type UpdatePatch struct {
	Name         *string              `json:"name,omitempty"`
	Plan         *types.Plan          `json:"plan,omitempty"`
	Status       *types.CompanyStatus `json:"status,omitempty"`
	Settings     json.RawMessage      `json:"settings,omitempty"`
	Subscription *types.Subscription  `json:"subscription,omitempty"`
}

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

// ListMyCompanies returns every company the user holds a membership in,
// whatever the membership status. Invited users need to see the company
// they were invited to.
func (s *Service) ListMyCompanies(ctx context.Context, userID string) ([]*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "company.Service.ListMyCompanies")
	defer span.End()

	companies, err := s.storage.ListCompaniesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	return companies, nil
}

// GetCompany returns the company profile. Any member may look, active or
// not; outsiders get forbidden rather than not found.
func (s *Service) GetCompany(ctx context.Context, actorID, companyID string) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "company.Service.GetCompany")
	defer span.End()

	if _, err := s.membership(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	c, err := s.storage.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewNotFoundError("company not found")
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return c, nil
}

// UpdateCompany applies a partial update. Only active admins of the
// company may change it; changing the status additionally requires a
// superadmin membership.
func (s *Service) UpdateCompany(ctx context.Context, actorID, companyID string, patch *UpdatePatch) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "company.Service.UpdateCompany")
	defer span.End()

	actor, err := s.adminMembership(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}

	c, err := s.storage.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewNotFoundError("company not found")
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	var paths []string
	changes := map[string]interface{}{}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, types.NewValidationError("company name cannot be empty")
		}
		changes["name"] = map[string]interface{}{"old": c.Name, "new": *patch.Name}
		c.Name = *patch.Name
		paths = append(paths, "name")
	}

	if patch.Plan != nil {
		if !patch.Plan.Valid() {
			return nil, types.NewValidationError("invalid plan %q", *patch.Plan)
		}
		changes["plan"] = map[string]interface{}{"old": c.Plan, "new": *patch.Plan}
		c.Plan = *patch.Plan
		paths = append(paths, "plan")
	}

	if patch.Status != nil {
		if actor.Role != types.RoleSuperadmin {
			return nil, types.NewForbiddenError("only a superadmin may change the company status")
		}
		if !validStatus(*patch.Status) {
			return nil, types.NewValidationError("invalid status %q", *patch.Status)
		}
		changes["status"] = map[string]interface{}{"old": c.Status, "new": *patch.Status}
		c.Status = *patch.Status
		paths = append(paths, "status")
	}

	if patch.Settings != nil {
		changes["settings"] = "updated"
		c.Settings = patch.Settings
		paths = append(paths, "settings")
	}

	if patch.Subscription != nil {
		changes["subscription"] = *patch.Subscription
		c.Subscription = *patch.Subscription
		paths = append(paths, "subscription")
	}

	if len(paths) == 0 {
		return nil, types.NewValidationError("no fields to update")
	}

	if err := s.storage.UpdateCompany(ctx, c, paths); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	s.record(ctx, actorID, companyID, changes)

	return c, nil
}

func validStatus(status types.CompanyStatus) bool {
	switch status {
	case types.CompanyPendingInvite, types.CompanyActive, types.CompanySuspended:
		return true
	}
	return false
}

// membership loads the actor's membership. A missing row maps to
// forbidden, not found: outsiders must not learn which company IDs exist.
func (s *Service) membership(ctx context.Context, actorID, companyID string) (*types.Membership, error) {
	m, err := s.storage.GetMembership(ctx, actorID, companyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewForbiddenError("not a member of this company")
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	return m, nil
}

func (s *Service) adminMembership(ctx context.Context, actorID, companyID string) (*types.Membership, error) {
	m, err := s.membership(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}

	if m.Status != types.MembershipActive {
		return nil, types.NewForbiddenError("membership is not active")
	}

	if m.Role != types.RoleCompanyAdmin && m.Role != types.RoleSuperadmin {
		s.logger.Security().AuthzFailure(actorID, "company_admin")
		return nil, types.NewForbiddenError("company admin role required")
	}

	return m, nil
}

func (s *Service) record(ctx context.Context, actorID, companyID string, changes map[string]interface{}) {
	payload, err := json.Marshal(changes)
	if err != nil {
		s.logger.Errorf("failed to encode audit changes for UPDATE_COMPANY: %v", err)
		payload = nil
	}

	entry := &types.AuditEntry{
		CompanyID:  companyID,
		ActorID:    actorID,
		ActorName:  s.actorName(ctx, actorID),
		Action:     "UPDATE_COMPANY",
		Resource:   "company",
		ResourceID: companyID,
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
