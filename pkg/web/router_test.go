// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
	"github.com/cortexbuild/tenancy-service/pkg/audit"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
	"github.com/cortexbuild/tenancy-service/pkg/company"
	"github.com/cortexbuild/tenancy-service/pkg/membership"
	"github.com/cortexbuild/tenancy-service/pkg/provisioning"
)

type staticVerifier struct {
	userID string
}

var _ authentication.TokenVerifierInterface = (*staticVerifier)(nil)

func (v *staticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	return v.userID, nil
}

func newTestRouter(t *testing.T, ctrl *gomock.Controller) (http.Handler, *company.MockServiceInterface, *provisioning.MockServiceInterface) {
	t.Helper()

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor()

	companyService := company.NewMockServiceInterface(ctrl)
	provisioningService := provisioning.NewMockServiceInterface(ctrl)
	membershipService := membership.NewMockServiceInterface(ctrl)
	auditService := audit.NewMockServiceInterface(ctrl)
	authorizer := audit.NewMockAuthorizerInterface(ctrl)

	router := NewRouter(
		provisioning.NewAPI(provisioningService, logger),
		company.NewAPI(companyService, logger),
		membership.NewAPI(membershipService, logger),
		audit.NewAPI(auditService, authorizer, logger),
		&staticVerifier{userID: "user-1"},
		tracer,
		monitor,
		logger,
	)

	return router, companyService, provisioningService
}

func TestRouter_StatusIsPublic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, _ := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, _ := newTestRouter(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/companies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestRouter_AuthenticatedRequestReachesService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, companyService, _ := newTestRouter(t, ctrl)

	companyService.EXPECT().ListMyCompanies(gomock.Any(), "user-1").DoAndReturn(
		func(ctx context.Context, _ string) ([]*types.Company, error) {
			meta, ok := audit.MetaFromContext(ctx)
			if !ok || meta.UserAgent != "router-test" {
				t.Errorf("expected request meta in context, got %+v", meta)
			}
			return []*types.Company{{ID: "company-1"}}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v0/companies", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("User-Agent", "router-test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
}

func TestRouter_CompanySignupIsPublic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _, provisioningService := newTestRouter(t, ctrl)

	provisioningService.EXPECT().InitiateProvisioning(gomock.Any(), gomock.Any()).Return(&provisioning.ProvisionResult{
		Company: &types.Company{ID: "company-1", Status: types.CompanyPendingInvite},
	}, nil)

	body := bytes.NewBufferString(`{"name":"Acme","adminEmail":"owner@acme.test","adminName":"Kim"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v0/companies", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}
}
