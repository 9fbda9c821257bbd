// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/monitoring"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/pkg/audit"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
	"github.com/cortexbuild/tenancy-service/pkg/company"
	"github.com/cortexbuild/tenancy-service/pkg/membership"
	"github.com/cortexbuild/tenancy-service/pkg/metrics"
	"github.com/cortexbuild/tenancy-service/pkg/provisioning"
	"github.com/cortexbuild/tenancy-service/pkg/status"
)

func NewRouter(
	provisioningAPI *provisioning.API,
	companyAPI *company.API,
	membershipAPI *membership.API,
	auditAPI *audit.API,
	verifier authentication.TokenVerifierInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
		middlewareRequestMeta(),
		middlewarePublicRoutes(
			authentication.NewMiddleware(verifier, tracer, monitor, logger).Authenticate(),
		),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	provisioningAPI.RegisterEndpoints(router)
	companyAPI.RegisterEndpoints(router)
	membershipAPI.RegisterEndpoints(router)
	auditAPI.RegisterEndpoints(router)

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

// middlewareRequestMeta stamps the caller address and user agent into the
// context so audit entries can carry them.
func middlewareRequestMeta() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := audit.WithMeta(r.Context(), audit.Meta{
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type publicRoute struct {
	method string
	path   string
}

// Endpoints reachable without a bearer token: observability surfaces,
// the initial company signup, and the invitation accept link.
var publicRoutes = []publicRoute{
	{http.MethodGet, "/api/v0/status"},
	{http.MethodGet, "/api/v0/version"},
	{http.MethodGet, "/api/v0/metrics"},
	{http.MethodPost, "/api/v0/companies"},
	{http.MethodPost, "/api/v0/invitations/accept"},
}

func middlewarePublicRoutes(authn func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authenticated := authn(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, route := range publicRoutes {
				if r.Method == route.method && r.URL.Path == route.path {
					next.ServeHTTP(w, r)
					return
				}
			}

			authenticated.ServeHTTP(w, r)
		})
	}
}
