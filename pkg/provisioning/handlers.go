// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/rest"
	"github.com/cortexbuild/tenancy-service/internal/types"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
)

type API struct {
	service  ServiceInterface
	validate *validator.Validate
	logger   logging.LoggerInterface
}

func NewAPI(service ServiceInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/companies", a.create)
	mux.Post("/api/v0/companies/{id}/invite-admin", a.inviteAdmin)
	mux.Post("/api/v0/invitations/accept", a.acceptInvitation)
}

type createCompanyRequest struct {
	Name       string `json:"name" validate:"required"`
	Plan       string `json:"plan"`
	AdminEmail string `json:"adminEmail" validate:"required,email"`
	AdminName  string `json:"adminName" validate:"required"`
}

type inviteAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

type acceptInvitationRequest struct {
	CompanyID string `json:"companyId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, types.NewValidationError("invalid request body"), a.logger)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		rest.WriteError(w, types.NewValidationError("%s", err.Error()), a.logger)
		return
	}

	result, err := a.service.InitiateProvisioning(ctx, &ProvisionRequest{
		CompanyName: req.Name,
		Plan:        types.Plan(req.Plan),
		AdminEmail:  req.AdminEmail,
		AdminName:   req.AdminName,
	})
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, result, a.logger)
}

func (a *API) inviteAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	var req inviteAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, types.NewValidationError("invalid request body"), a.logger)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		rest.WriteError(w, types.NewValidationError("%s", err.Error()), a.logger)
		return
	}

	result, err := a.service.InviteCompanyAdmin(ctx, actorID, chi.URLParam(r, "id"), req.Email, req.Name)
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, result, a.logger)
}

func (a *API) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req acceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, types.NewValidationError("invalid request body"), a.logger)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		rest.WriteError(w, types.NewValidationError("%s", err.Error()), a.logger)
		return
	}

	m, err := a.service.AcceptInvitation(ctx, req.UserID, req.CompanyID)
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, m, a.logger)
}
