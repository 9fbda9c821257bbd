// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/types"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
)

func marshalBody(t *testing.T, body interface{}) []byte {
	t.Helper()

	if str, ok := body.(string); ok {
		return []byte(str)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return raw
}

func TestAPI_CreateCompany(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name:           "invalid body",
			requestBody:    "not-json",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing admin email",
			requestBody:    createCompanyRequest{Name: "Acme", AdminName: "Kim"},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing admin name",
			requestBody:    createCompanyRequest{Name: "Acme", AdminEmail: "a@b.test"},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "unknown plan",
			requestBody: createCompanyRequest{Name: "Acme", Plan: "platinum", AdminEmail: "a@b.test", AdminName: "Kim"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().InitiateProvisioning(gomock.Any(), gomock.Any()).
					Return(nil, types.NewValidationError("invalid plan %q", "platinum"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "success",
			requestBody: createCompanyRequest{Name: "Acme", Plan: "pro", AdminEmail: "a@b.test", AdminName: "Kim"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().InitiateProvisioning(gomock.Any(), &ProvisionRequest{
					CompanyName: "Acme",
					Plan:        types.PlanPro,
					AdminEmail:  "a@b.test",
					AdminName:   "Kim",
				}).Return(&ProvisionResult{
					Company: &types.Company{ID: "company-1", Name: "Acme", Status: types.CompanyPendingInvite},
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "storage failure is opaque",
			requestBody: createCompanyRequest{Name: "Acme", AdminEmail: "a@b.test", AdminName: "Kim"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().InitiateProvisioning(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("pq: connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			api := NewAPI(mockService, logging.NewNoopLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v0/companies", bytes.NewBuffer(marshalBody(t, tt.requestBody)))
			w := httptest.NewRecorder()

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)
			mux.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedStatus {
				body, _ := io.ReadAll(res.Body)
				t.Errorf("expected status %d, got %d. Body: %s", tt.expectedStatus, res.StatusCode, string(body))
			}
		})
	}
}

func TestAPI_InviteAdmin(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		requestBody    interface{}
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name:           "unauthenticated",
			requestBody:    inviteAdminRequest{Email: "next@acme.test"},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing email",
			userID:         "user-admin",
			requestBody:    inviteAdminRequest{Name: "Next"},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "forbidden",
			userID:      "user-peon",
			requestBody: inviteAdminRequest{Email: "next@acme.test"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().InviteCompanyAdmin(gomock.Any(), "user-peon", "company-1", "next@acme.test", "").
					Return(nil, types.NewForbiddenError("company admin role required"))
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:        "already a member",
			userID:      "user-admin",
			requestBody: inviteAdminRequest{Email: "next@acme.test", Name: "Next"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().InviteCompanyAdmin(gomock.Any(), "user-admin", "company-1", "next@acme.test", "Next").
					Return(nil, types.NewConflictError("user is already an active member of this company"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "success",
			userID:      "user-admin",
			requestBody: inviteAdminRequest{Email: "next@acme.test", Name: "Next"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().InviteCompanyAdmin(gomock.Any(), "user-admin", "company-1", "next@acme.test", "Next").
					Return(&ProvisionResult{
						Membership: &types.Membership{ID: "membership-2", Role: types.RoleCompanyAdmin, Status: types.MembershipInvited},
					}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			api := NewAPI(mockService, logging.NewNoopLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v0/companies/company-1/invite-admin", bytes.NewBuffer(marshalBody(t, tt.requestBody)))
			if tt.userID != "" {
				req = req.WithContext(authentication.WithUserID(req.Context(), tt.userID))
			}
			w := httptest.NewRecorder()

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)
			mux.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedStatus {
				body, _ := io.ReadAll(res.Body)
				t.Errorf("expected status %d, got %d. Body: %s", tt.expectedStatus, res.StatusCode, string(body))
			}
		})
	}
}

func TestAPI_AcceptInvitation(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name:           "missing company id",
			requestBody:    acceptInvitationRequest{UserID: "user-1"},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "unknown invitation",
			requestBody: acceptInvitationRequest{CompanyID: "company-1", UserID: "user-1"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().AcceptInvitation(gomock.Any(), "user-1", "company-1").
					Return(nil, types.NewNotFoundError("invitation not found"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "success",
			requestBody: acceptInvitationRequest{CompanyID: "company-1", UserID: "user-1"},
			setupMocks: func(mockSvc *MockServiceInterface) {
				mockSvc.EXPECT().AcceptInvitation(gomock.Any(), "user-1", "company-1").
					Return(&types.Membership{ID: "membership-1", Status: types.MembershipActive}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			api := NewAPI(mockService, logging.NewNoopLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v0/invitations/accept", bytes.NewBuffer(marshalBody(t, tt.requestBody)))
			w := httptest.NewRecorder()

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)
			mux.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedStatus {
				body, _ := io.ReadAll(res.Body)
				t.Errorf("expected status %d, got %d. Body: %s", tt.expectedStatus, res.StatusCode, string(body))
			}
		})
	}
}
