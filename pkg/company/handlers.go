// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package company

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/rest"
	"github.com/cortexbuild/tenancy-service/internal/types"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
)

type API struct {
	service ServiceInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/companies", a.list)
	mux.Get("/api/v0/companies/{id}", a.get)
	mux.Patch("/api/v0/companies/{id}", a.update)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	companies, err := a.service.ListMyCompanies(ctx, userID)
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, companies, a.logger)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	c, err := a.service.GetCompany(ctx, actorID, chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, c, a.logger)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	var patch UpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		rest.WriteError(w, types.NewValidationError("invalid request body"), a.logger)
		return
	}

	c, err := a.service.UpdateCompany(ctx, actorID, chi.URLParam(r, "id"), &patch)
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, c, a.logger)
}
