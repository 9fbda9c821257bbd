// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package membership -destination ./mock_membership.go -source=./interfaces.go

const (
	companyID = "company-1"
	adminID   = "user-admin"
	superID   = "user-super"
)

func activeAdmin() *types.Membership {
	return &types.Membership{ID: "membership-admin", UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}
}

func activeSuperadmin() *types.Membership {
	return &types.Membership{ID: "membership-super", UserID: superID, CompanyID: companyID, Role: types.RoleSuperadmin, Status: types.MembershipActive}
}

func newTestService(mockStorage StorageInterface, recorder RecorderInterface) *Service {
	return NewService(mockStorage, recorder, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
}

func TestService_AddMemberUpsertsUserAndMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	recorder := NewMockRecorderInterface(ctrl)

	user := &types.User{ID: "user-new", Email: "new@site.test", Name: "New User", Status: types.UserInvited}
	created := &types.Membership{ID: "membership-new", UserID: user.ID, CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipInvited}

	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().UpsertUser(gomock.Any(), "new@site.test", "New User").Return(user, nil)
	mockStorage.EXPECT().UpsertMembership(gomock.Any(), user.ID, companyID, types.RoleOperative, types.MembershipInvited).Return(created, nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), adminID).Return(&types.User{ID: adminID, Name: "Admin"}, nil)

	var audited *types.AuditEntry
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *types.AuditEntry) {
		audited = e
	})

	s := newTestService(mockStorage, recorder)

	m, err := s.AddMember(context.Background(), adminID, companyID, "new@site.test", "New User", types.RoleOperative)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.ID != "membership-new" {
		t.Errorf("unexpected membership: %+v", m)
	}

	if audited == nil {
		t.Fatal("expected an audit entry")
	}

	if audited.Action != "ADD_MEMBER" || audited.CompanyID != companyID || audited.ActorID != adminID {
		t.Errorf("unexpected audit entry: %+v", audited)
	}

	if audited.ActorName != "Admin" {
		t.Errorf("expected the actor name to be denormalized, got %q", audited.ActorName)
	}

	var changes map[string]interface{}
	if err := json.Unmarshal(audited.Changes, &changes); err != nil {
		t.Fatalf("audit changes are not JSON: %v", err)
	}

	if changes["role"] != string(types.RoleOperative) {
		t.Errorf("expected role in audit changes, got %v", changes)
	}
}

func TestService_AddMemberAuthorization(t *testing.T) {
	tests := []struct {
		name  string
		actor *types.Membership
		err   error
	}{
		{
			name:  "outsider is forbidden",
			actor: nil,
			err:   storage.ErrNotFound,
		},
		{
			name:  "invited admin is forbidden",
			actor: &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipInvited},
		},
		{
			name:  "suspended admin is forbidden",
			actor: &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipSuspended},
		},
		{
			name:  "operative is forbidden",
			actor: &types.Membership{UserID: adminID, CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			recorder := NewMockRecorderInterface(ctrl)

			mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(test.actor, test.err)

			s := newTestService(mockStorage, recorder)

			// No UpsertUser, UpsertMembership or Record expectations: a
			// forbidden call must leave no trace.
			_, err := s.AddMember(context.Background(), adminID, companyID, "x@site.test", "X", types.RoleOperative)
			if !types.IsForbidden(err) {
				t.Fatalf("expected a forbidden error, got %v", err)
			}
		})
	}
}

func TestService_AddMemberValidatesRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	_, err := s.AddMember(context.Background(), adminID, companyID, "x@site.test", "X", types.Role("warlord"))
	if !types.IsValidation(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestService_AddMemberSuperadminRoleNeedsSuperadmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	_, err := s.AddMember(context.Background(), adminID, companyID, "x@site.test", "X", types.RoleSuperadmin)
	if !types.IsForbidden(err) {
		t.Fatalf("expected a forbidden error, got %v", err)
	}
}

func TestService_UpdateMembershipPeerAdminImmutable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	target := &types.Membership{ID: "membership-peer", UserID: "user-peer", CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-peer", companyID).Return(target, nil)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	// No UpdateMembershipRole expectation: the target must be untouched.
	_, err := s.UpdateMembership(context.Background(), adminID, companyID, "user-peer", types.RoleOperative)
	if !types.IsForbidden(err) {
		t.Fatalf("expected a forbidden error, got %v", err)
	}
}

func TestService_UpdateMembershipSuperadminBypassesPeerRule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	target := &types.Membership{ID: "membership-peer", UserID: "user-peer", CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}
	demoted := &types.Membership{ID: "membership-peer", UserID: "user-peer", CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive}

	mockStorage := NewMockStorageInterface(ctrl)
	recorder := NewMockRecorderInterface(ctrl)

	mockStorage.EXPECT().GetMembership(gomock.Any(), superID, companyID).Return(activeSuperadmin(), nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-peer", companyID).Return(target, nil)
	mockStorage.EXPECT().UpdateMembershipRole(gomock.Any(), "membership-peer", types.RoleOperative, types.RoleCompanyAdmin).Return(nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), superID).Return(&types.User{ID: superID, Name: "Root"}, nil)
	mockStorage.EXPECT().GetMembershipByID(gomock.Any(), "membership-peer").Return(demoted, nil)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any())

	s := newTestService(mockStorage, recorder)

	m, err := s.UpdateMembership(context.Background(), superID, companyID, "user-peer", types.RoleOperative)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Role != types.RoleOperative {
		t.Errorf("expected the demoted role, got %q", m.Role)
	}
}

func TestService_UpdateMembershipConcurrentChangeConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	target := &types.Membership{ID: "membership-1", UserID: "user-x", CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive}

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-x", companyID).Return(target, nil)
	mockStorage.EXPECT().UpdateMembershipRole(gomock.Any(), "membership-1", types.RoleSupervisor, types.RoleOperative).Return(storage.ErrConditionFailed)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	_, err := s.UpdateMembership(context.Background(), adminID, companyID, "user-x", types.RoleSupervisor)
	if !types.IsConflict(err) {
		t.Fatalf("expected a conflict error, got %v", err)
	}
}

func TestService_UpdateMembershipUnknownMemberIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-ghost", companyID).Return(nil, storage.ErrNotFound)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	_, err := s.UpdateMembership(context.Background(), adminID, companyID, "user-ghost", types.RoleSupervisor)
	if !types.IsNotFound(err) {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

func TestService_RemoveMemberPeerAdminImmutable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	target := &types.Membership{ID: "membership-peer", UserID: "user-peer", CompanyID: companyID, Role: types.RoleCompanyAdmin, Status: types.MembershipActive}

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-peer", companyID).Return(target, nil)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	err := s.RemoveMember(context.Background(), adminID, companyID, "user-peer")
	if !types.IsForbidden(err) {
		t.Fatalf("expected a forbidden error, got %v", err)
	}
}

func TestService_RemoveMemberSuccessIsAudited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	target := &types.Membership{ID: "membership-1", UserID: "user-x", CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive}

	mockStorage := NewMockStorageInterface(ctrl)
	recorder := NewMockRecorderInterface(ctrl)

	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-x", companyID).Return(target, nil)
	mockStorage.EXPECT().DeleteMembership(gomock.Any(), "membership-1", types.RoleOperative).Return(nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), adminID).Return(&types.User{ID: adminID, Name: "Admin"}, nil)

	var audited *types.AuditEntry
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *types.AuditEntry) {
		audited = e
	})

	s := newTestService(mockStorage, recorder)

	if err := s.RemoveMember(context.Background(), adminID, companyID, "user-x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if audited == nil || audited.Action != "REMOVE_MEMBER" || audited.ResourceID != "membership-1" {
		t.Fatalf("unexpected audit entry: %+v", audited)
	}
}

func TestService_GetCompanyMembersOutsiderForbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-outsider", companyID).Return(nil, storage.ErrNotFound)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	_, err := s.GetCompanyMembers(context.Background(), "user-outsider", companyID)
	if !types.IsForbidden(err) {
		t.Fatalf("expected a forbidden error, got %v", err)
	}
}

func TestService_GetCompanyMembersAnyStatusMayLook(t *testing.T) {
	tests := []struct {
		name   string
		status types.MembershipStatus
	}{
		{name: "invited member", status: types.MembershipInvited},
		{name: "suspended member", status: types.MembershipSuspended},
		{name: "active member", status: types.MembershipActive},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			member := &types.Membership{UserID: "user-1", CompanyID: companyID, Role: types.RoleOperative, Status: test.status}

			mockStorage := NewMockStorageInterface(ctrl)
			mockStorage.EXPECT().GetMembership(gomock.Any(), "user-1", companyID).Return(member, nil)
			mockStorage.EXPECT().ListMembersByCompanyID(gomock.Any(), companyID).Return([]*types.Member{}, nil)

			s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

			if _, err := s.GetCompanyMembers(context.Background(), "user-1", companyID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_GetCompanyMembers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	member := &types.Membership{UserID: "user-1", CompanyID: companyID, Role: types.RoleOperative, Status: types.MembershipActive}
	roster := []*types.Member{
		{ID: "membership-admin", Name: "Admin", Role: types.RoleCompanyAdmin},
		{ID: "membership-1", Name: "Op", Role: types.RoleOperative},
	}

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "user-1", companyID).Return(member, nil)
	mockStorage.EXPECT().ListMembersByCompanyID(gomock.Any(), companyID).Return(roster, nil)

	s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

	members, err := s.GetCompanyMembers(context.Background(), "user-1", companyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
}

func TestService_RequireCompanyAdmin(t *testing.T) {
	tests := []struct {
		name       string
		actor      *types.Membership
		storageErr error
		wantErr    bool
	}{
		{name: "active admin passes", actor: activeAdmin()},
		{name: "active superadmin passes", actor: activeSuperadmin()},
		{name: "active operative fails", actor: &types.Membership{Role: types.RoleOperative, Status: types.MembershipActive}, wantErr: true},
		{name: "missing membership fails", storageErr: storage.ErrNotFound, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockStorage.EXPECT().GetMembership(gomock.Any(), gomock.Any(), companyID).Return(test.actor, test.storageErr)

			s := newTestService(mockStorage, NewMockRecorderInterface(ctrl))

			err := s.RequireCompanyAdmin(context.Background(), "actor", companyID)
			if test.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !test.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_AddMemberActorNameFallsBackToID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	recorder := NewMockRecorderInterface(ctrl)

	user := &types.User{ID: "user-new", Email: "new@site.test"}
	created := &types.Membership{ID: "membership-new", UserID: user.ID, CompanyID: companyID, Role: types.RoleClient, Status: types.MembershipInvited}

	mockStorage.EXPECT().GetMembership(gomock.Any(), adminID, companyID).Return(activeAdmin(), nil)
	mockStorage.EXPECT().UpsertUser(gomock.Any(), "new@site.test", "").Return(user, nil)
	mockStorage.EXPECT().UpsertMembership(gomock.Any(), user.ID, companyID, types.RoleClient, types.MembershipInvited).Return(created, nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), adminID).Return(nil, errors.New("connection reset"))

	var audited *types.AuditEntry
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *types.AuditEntry) {
		audited = e
	})

	s := newTestService(mockStorage, recorder)

	if _, err := s.AddMember(context.Background(), adminID, companyID, "new@site.test", "", types.RoleClient); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if audited.ActorName != adminID {
		t.Errorf("expected actor ID fallback, got %q", audited.ActorName)
	}
}
