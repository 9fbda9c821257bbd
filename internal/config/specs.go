// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	// AppURL is the public base URL used to build invitation accept links.
	AppURL string `envconfig:"app_url" default:"http://localhost:8080"`

	AuthenticationEnabled bool   `envconfig:"authentication_enabled" default:"true"`
	OIDCIssuer            string `envconfig:"oidc_issuer"`
	OIDCJWKSURL           string `envconfig:"oidc_jwks_url"`

	MailProviderURL string `envconfig:"mail_provider_url"`
	MailAPIKey      string `envconfig:"mail_api_key"`
	MailFromAddress string `envconfig:"mail_from_address" default:"no-reply@cortexbuild.com"`

	OutboundMaxRetries int           `envconfig:"outbound_max_retries" default:"3"`
	OutboundTimeout    time.Duration `envconfig:"outbound_timeout" default:"30s"`
	OutboundBaseDelay  time.Duration `envconfig:"outbound_base_delay" default:"500ms"`
}
