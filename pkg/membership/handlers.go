// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

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
	mux.Get("/api/v0/companies/{id}/membership", a.getOwn)
	mux.Get("/api/v0/companies/{id}/members", a.list)
	mux.Post("/api/v0/companies/{id}/members", a.add)
	mux.Patch("/api/v0/companies/{id}/members/{userID}", a.update)
	mux.Delete("/api/v0/companies/{id}/members/{userID}", a.remove)
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Role  string `json:"role" validate:"required"`
}

type updateMemberRequest struct {
	Role string `json:"role" validate:"required"`
}

func (a *API) getOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	m, err := a.service.GetMembership(ctx, actorID, chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, m, a.logger)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	members, err := a.service.GetCompanyMembers(ctx, actorID, chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, members, a.logger)
}

func (a *API) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, types.NewValidationError("invalid request body"), a.logger)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		rest.WriteError(w, types.NewValidationError("%s", err.Error()), a.logger)
		return
	}

	m, err := a.service.AddMember(ctx, actorID, chi.URLParam(r, "id"), req.Email, req.Name, types.Role(req.Role))
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, m, a.logger)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, types.NewValidationError("invalid request body"), a.logger)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		rest.WriteError(w, types.NewValidationError("%s", err.Error()), a.logger)
		return
	}

	m, err := a.service.UpdateMembership(ctx, actorID, chi.URLParam(r, "id"), chi.URLParam(r, "userID"), types.Role(req.Role))
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, m, a.logger)
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	err := a.service.RemoveMember(ctx, actorID, chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, nil, a.logger)
}
