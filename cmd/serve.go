// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/cortexbuild/tenancy-service/internal/config"
	"github.com/cortexbuild/tenancy-service/internal/db"
	"github.com/cortexbuild/tenancy-service/internal/httpclient"
	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/mail"
	"github.com/cortexbuild/tenancy-service/internal/monitoring/prometheus"
	"github.com/cortexbuild/tenancy-service/internal/schema"
	"github.com/cortexbuild/tenancy-service/internal/storage"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/pkg/audit"
	"github.com/cortexbuild/tenancy-service/pkg/authentication"
	"github.com/cortexbuild/tenancy-service/pkg/company"
	"github.com/cortexbuild/tenancy-service/pkg/membership"
	"github.com/cortexbuild/tenancy-service/pkg/provisioning"
	"github.com/cortexbuild/tenancy-service/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("tenancy-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	var verifier authentication.TokenVerifierInterface
	if specs.AuthenticationEnabled {
		verifier, err = authentication.NewJWTAuthenticator(
			context.Background(),
			specs.OIDCIssuer,
			specs.OIDCJWKSURL,
			nil,
			"",
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return fmt.Errorf("failed to set up JWT authentication: %v", err)
		}
	} else {
		verifier = authentication.NewNoopVerifier()
		logger.Info("Authentication is disabled, using noop verifier")
	}

	var mailer mail.DispatcherInterface
	if specs.MailProviderURL != "" {
		outbound := httpclient.NewClient(httpclient.Config{
			MaxRetries: specs.OutboundMaxRetries,
			Timeout:    specs.OutboundTimeout,
			BaseDelay:  specs.OutboundBaseDelay,
		}, logger)
		mailer = mail.NewDispatcher(mail.Config{
			ProviderURL: specs.MailProviderURL,
			APIKey:      specs.MailAPIKey,
			FromAddress: specs.MailFromAddress,
		}, outbound, logger)
	} else {
		mailer = mail.NewNoopDispatcher()
		logger.Info("No mail provider configured, invitation emails are dropped")
	}

	auditService := audit.NewService(s, tracer, monitor, logger)
	membershipService := membership.NewService(s, auditService, tracer, monitor, logger)
	companyService := company.NewService(s, auditService, tracer, monitor, logger)
	provisioningService := provisioning.NewService(
		s,
		dbClient,
		schema.NewInitializer(tracer, logger),
		dbClient.DDLRunner(),
		mailer,
		auditService,
		specs.AppURL,
		tracer,
		monitor,
		logger,
	)

	router := web.NewRouter(
		provisioning.NewAPI(provisioningService, logger),
		company.NewAPI(companyService, logger),
		membership.NewAPI(membershipService, logger),
		audit.NewAPI(auditService, membershipService, logger),
		verifier,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}
