// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/rest"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
)

type API struct {
	service ServiceInterface
	authz   AuthorizerInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, authz AuthorizerInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		authz:   authz,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/companies/{id}/audit-logs", a.list)
	mux.Get("/api/v0/companies/{id}/audit-logs/export", a.export)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	companyID := chi.URLParam(r, "id")

	if err := a.authz.RequireCompanyAdmin(ctx, actorID, companyID); err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	filter := storage.AuditFilter{
		Action:   r.URL.Query().Get("action"),
		Resource: r.URL.Query().Get("resource"),
		ActorID:  r.URL.Query().Get("actor_id"),
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if n, err := strconv.Atoi(page); err == nil {
			filter.Page = int64(n)
		}
	}

	if size := r.URL.Query().Get("page_size"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			filter.PageSize = int64(n)
		}
	}

	entries, err := a.service.Query(ctx, companyID, filter)
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, entries, a.logger)
}

func (a *API) export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authentication.GetUserID(ctx)
	if !ok {
		rest.WriteJSON(w, http.StatusUnauthorized, nil, a.logger)
		return
	}

	companyID := chi.URLParam(r, "id")

	if err := a.authz.RequireCompanyAdmin(ctx, actorID, companyID); err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}

	payload, contentType, err := a.service.Export(ctx, companyID, format)
	if err != nil {
		rest.WriteError(w, err, a.logger)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=audit-log-%s.%s", companyID, format))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(payload); err != nil {
		a.logger.Errorf("failed to write audit export: %v", err)
	}
}
