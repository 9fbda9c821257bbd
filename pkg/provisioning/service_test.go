// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package provisioning -destination ./mock_provisioning.go -source=./interfaces.go

const (
	companyID = "company-1"
	adminID   = "user-admin"
	appURL    = "https://app.cortexbuild.test"
)

type testMocks struct {
	storage    *MockStorageInterface
	tx         *MockTxRunnerInterface
	schemaInit *MockSchemaInitializerInterface
	mailer     *MockMailerInterface
	recorder   *MockRecorderInterface
}

func newTestService(ctrl *gomock.Controller) (*Service, *testMocks) {
	m := &testMocks{
		storage:    NewMockStorageInterface(ctrl),
		tx:         NewMockTxRunnerInterface(ctrl),
		schemaInit: NewMockSchemaInitializerInterface(ctrl),
		mailer:     NewMockMailerInterface(ctrl),
		recorder:   NewMockRecorderInterface(ctrl),
	}

	s := NewService(m.storage, m.tx, m.schemaInit, nil, m.mailer, m.recorder, appURL,
		tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())

	return s, m
}

// passthroughTx makes the mocked transaction runner execute the closure
// with the caller's context, the way the real runner does.
func passthroughTx(m *testMocks) {
	m.tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func TestService_InitiateProvisioningCreatesCompanyAdminAndMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	company := &types.Company{ID: companyID, Name: "Acme Construction", Plan: types.PlanPro, Status: types.CompanyPendingInvite}
	user := &types.User{ID: "user-1", Email: "owner@acme.test", Name: "Kim Owner", Status: types.UserInvited}
	membership := &types.Membership{ID: "membership-1", UserID: user.ID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipInvited}

	var created *types.Company
	m.storage.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *types.Company) (*types.Company, error) {
			created = c
			return company, nil
		})
	m.storage.EXPECT().UpsertUser(gomock.Any(), "owner@acme.test", "Kim Owner").Return(user, nil)
	m.storage.EXPECT().UpsertMembership(gomock.Any(), user.ID, companyID, types.RoleCompanyAdmin, types.MembershipInvited).Return(membership, nil)

	var audited *types.AuditEntry
	m.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *types.AuditEntry) {
		audited = e
	})

	var mailedLink string
	m.mailer.EXPECT().SendInvitation(gomock.Any(), "owner@acme.test", "Company Admin", "Acme Construction", gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _, _, link string) error {
			mailedLink = link
			return nil
		})

	result, err := s.InitiateProvisioning(context.Background(), &ProvisionRequest{
		CompanyName: "Acme Construction",
		Plan:        types.PlanPro,
		AdminEmail:  "owner@acme.test",
		AdminName:   "Kim Owner",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Status != types.CompanyPendingInvite {
		t.Errorf("expected the company to start pending_invite, got %q", created.Status)
	}

	if result.Company.ID != companyID || result.User.ID != user.ID || result.Membership.ID != membership.ID {
		t.Errorf("unexpected result: %+v", result)
	}

	wantLink := appURL + "/invitations/accept?companyId=company-1&userId=user-1"
	if result.AcceptLink != wantLink {
		t.Errorf("unexpected accept link %q", result.AcceptLink)
	}

	if mailedLink != wantLink {
		t.Errorf("invitation email carried link %q, want %q", mailedLink, wantLink)
	}

	if audited == nil || audited.Action != "COMPANY_CREATED" || audited.CompanyID != companyID {
		t.Errorf("unexpected audit entry: %+v", audited)
	}
}

func TestService_InitiateProvisioningValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *ProvisionRequest
	}{
		{
			name: "missing company name",
			req:  &ProvisionRequest{AdminEmail: "a@b.test"},
		},
		{
			name: "missing admin email",
			req:  &ProvisionRequest{CompanyName: "Acme", AdminName: "Kim"},
		},
		{
			name: "missing admin name",
			req:  &ProvisionRequest{CompanyName: "Acme", AdminEmail: "a@b.test"},
		},
		{
			name: "unknown plan",
			req:  &ProvisionRequest{CompanyName: "Acme", AdminEmail: "a@b.test", AdminName: "Kim", Plan: types.Plan("platinum")},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, _ := newTestService(ctrl)

			_, err := s.InitiateProvisioning(context.Background(), test.req)
			if !types.IsValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestService_InitiateProvisioningDefaultsToFreePlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	m.storage.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *types.Company) (*types.Company, error) {
			if c.Plan != types.PlanFree {
				t.Errorf("expected free plan, got %q", c.Plan)
			}
			return &types.Company{ID: companyID, Name: c.Name, Plan: c.Plan, Status: c.Status}, nil
		})
	m.storage.EXPECT().UpsertUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(&types.User{ID: "user-1", Email: "a@b.test"}, nil)
	m.storage.EXPECT().UpsertMembership(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&types.Membership{ID: "membership-1"}, nil)
	m.recorder.EXPECT().Record(gomock.Any(), gomock.Any())
	m.mailer.EXPECT().SendInvitation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.InitiateProvisioning(context.Background(), &ProvisionRequest{CompanyName: "Acme", AdminEmail: "a@b.test", AdminName: "Kim"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_InitiateProvisioningSurvivesMailFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	m.storage.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).Return(&types.Company{ID: companyID, Name: "Acme"}, nil)
	m.storage.EXPECT().UpsertUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(&types.User{ID: "user-1", Email: "a@b.test"}, nil)
	m.storage.EXPECT().UpsertMembership(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&types.Membership{ID: "membership-1"}, nil)
	m.recorder.EXPECT().Record(gomock.Any(), gomock.Any())
	m.mailer.EXPECT().SendInvitation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("provider down"))

	result, err := s.InitiateProvisioning(context.Background(), &ProvisionRequest{CompanyName: "Acme", AdminEmail: "a@b.test", AdminName: "Kim"})
	if err != nil {
		t.Fatalf("a lost invitation email must not fail provisioning, got %v", err)
	}

	if result.Company.ID != companyID {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestService_InviteCompanyAdminRequiresActiveAdmin(t *testing.T) {
	tests := []struct {
		name       string
		actor      *types.Membership
		storageErr error
	}{
		{
			name:       "outsider",
			storageErr: storage.ErrNotFound,
		},
		{
			name:  "invited admin",
			actor: &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipInvited},
		},
		{
			name:  "active operative",
			actor: &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			m.storage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(test.actor, test.storageErr)

			_, err := s.InviteCompanyAdmin(context.Background(), adminID, companyID, "next@acme.test", "Next Admin")
			if !types.IsForbidden(err) {
				t.Errorf("expected forbidden, got %v", err)
			}
		})
	}
}

func TestService_InviteCompanyAdminRejectsActiveMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	actor := &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}
	m.storage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(actor, nil)
	m.storage.EXPECT().GetCompanyByID(gomock.Any(), companyID).Return(&types.Company{ID: companyID, Name: "Acme"}, nil)
	passthroughTx(m)
	m.storage.EXPECT().UpsertUser(gomock.Any(), "next@acme.test", "Next Admin").Return(&types.User{ID: "user-2", Email: "next@acme.test"}, nil)
	m.storage.EXPECT().GetMembership(gomock.Any(), "user-2", companyID).Return(
		&types.Membership{ID: "membership-2", UserID: "user-2", CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive}, nil)

	_, err := s.InviteCompanyAdmin(context.Background(), adminID, companyID, "next@acme.test", "Next Admin")
	if !types.IsConflict(err) {
		t.Errorf("expected conflict for an already active member, got %v", err)
	}
}

func TestService_InviteCompanyAdminMissingCompany(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	actor := &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}
	m.storage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(actor, nil)
	m.storage.EXPECT().GetCompanyByID(gomock.Any(), companyID).Return(nil, storage.ErrNotFound)

	_, err := s.InviteCompanyAdmin(context.Background(), adminID, companyID, "next@acme.test", "")
	if !types.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_InviteCompanyAdminInvitesAndAudits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	actor := &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}
	invitee := &types.User{ID: "user-2", Email: "next@acme.test", Name: "Next Admin"}
	membership := &types.Membership{ID: "membership-2", UserID: invitee.ID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipInvited}

	m.storage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(actor, nil)
	m.storage.EXPECT().GetCompanyByID(gomock.Any(), companyID).Return(&types.Company{ID: companyID, Name: "Acme"}, nil)
	passthroughTx(m)
	m.storage.EXPECT().UpsertUser(gomock.Any(), "next@acme.test", "Next Admin").Return(invitee, nil)
	m.storage.EXPECT().GetMembership(gomock.Any(), invitee.ID, companyID).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().UpsertMembership(gomock.Any(), invitee.ID, companyID, types.RoleCompanyAdmin, types.MembershipInvited).Return(membership, nil)
	m.storage.EXPECT().GetUserByID(gomock.Any(), adminID).Return(&types.User{ID: adminID, Name: "Admin"}, nil)
	m.mailer.EXPECT().SendInvitation(gomock.Any(), "next@acme.test", "Company Admin", "Acme", gomock.Any()).Return(nil)

	var audited *types.AuditEntry
	m.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *types.AuditEntry) {
		audited = e
	})

	result, err := s.InviteCompanyAdmin(context.Background(), adminID, companyID, "next@acme.test", "Next Admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Membership.ID != "membership-2" {
		t.Errorf("unexpected result: %+v", result)
	}

	if audited == nil || audited.Action != "INVITE_ADMIN" || audited.ActorID != adminID || audited.ActorName != "Admin" {
		t.Errorf("unexpected audit entry: %+v", audited)
	}
}

func TestService_AcceptInvitationActivatesEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	activated := &types.Membership{ID: "membership-1", UserID: "user-1", CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}

	m.storage.EXPECT().ActivateMembership(gomock.Any(), "user-1", companyID).Return(activated, nil)
	m.storage.EXPECT().ActivateUser(gomock.Any(), "user-1").Return(nil)
	m.storage.EXPECT().GetCompanyByID(gomock.Any(), companyID).Return(
		&types.Company{ID: companyID, Name: "Acme", Status: types.CompanyPendingInvite}, nil)
	m.storage.EXPECT().UpdateCompany(gomock.Any(), gomock.Any(), []string{"status"}).DoAndReturn(
		func(_ context.Context, c *types.Company, _ []string) error {
			if c.Status != types.CompanyActive {
				t.Errorf("expected the company to become active, got %q", c.Status)
			}
			return nil
		})
	m.schemaInit.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil)
	m.storage.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&types.User{ID: "user-1", Name: "Kim Owner"}, nil)

	var audited *types.AuditEntry
	m.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *types.AuditEntry) {
		audited = e
	})

	membership, err := s.AcceptInvitation(context.Background(), "user-1", companyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if membership.Status != types.MembershipActive {
		t.Errorf("unexpected membership: %+v", membership)
	}

	if audited == nil || audited.Action != "INVITATION_ACCEPTED" {
		t.Errorf("unexpected audit entry: %+v", audited)
	}
}

func TestService_AcceptInvitationIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	active := &types.Membership{ID: "membership-1", UserID: "user-1", CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}

	m.storage.EXPECT().ActivateMembership(gomock.Any(), "user-1", companyID).Return(nil, storage.ErrConditionFailed)
	m.storage.EXPECT().GetMembership(gomock.Any(), "user-1", companyID).Return(active, nil)

	// No Initialize and no Record expectations: a repeat accept must not
	// rerun the tenant DDL or grow the audit trail.
	membership, err := s.AcceptInvitation(context.Background(), "user-1", companyID)
	if err != nil {
		t.Fatalf("re-accepting must be a no-op, got %v", err)
	}

	if membership.ID != "membership-1" {
		t.Errorf("unexpected membership: %+v", membership)
	}
}

func TestService_AcceptInvitationUnknownInvitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	m.storage.EXPECT().ActivateMembership(gomock.Any(), "user-1", companyID).Return(nil, storage.ErrNotFound)

	_, err := s.AcceptInvitation(context.Background(), "user-1", companyID)
	if !types.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_AcceptInvitationSuspendedMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	suspended := &types.Membership{ID: "membership-1", UserID: "user-1", CompanyID: companyID, Status: types.MembershipSuspended}

	m.storage.EXPECT().ActivateMembership(gomock.Any(), "user-1", companyID).Return(nil, storage.ErrConditionFailed)
	m.storage.EXPECT().GetMembership(gomock.Any(), "user-1", companyID).Return(suspended, nil)

	_, err := s.AcceptInvitation(context.Background(), "user-1", companyID)
	if !types.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_AcceptInvitationSchemaFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	passthroughTx(m)

	activated := &types.Membership{ID: "membership-1", UserID: "user-1", CompanyID: companyID, Status: types.MembershipActive}

	m.storage.EXPECT().ActivateMembership(gomock.Any(), "user-1", companyID).Return(activated, nil)
	m.storage.EXPECT().ActivateUser(gomock.Any(), "user-1").Return(nil)
	m.storage.EXPECT().GetCompanyByID(gomock.Any(), companyID).Return(
		&types.Company{ID: companyID, Status: types.CompanyActive}, nil)
	m.schemaInit.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(
		types.NewProvisioningError("tenant schema bootstrap failed at statement 3 of 35", errors.New("syntax error")))

	_, err := s.AcceptInvitation(context.Background(), "user-1", companyID)
	if !types.IsProvisioning(err) {
		t.Errorf("expected a provisioning error, got %v", err)
	}
}
