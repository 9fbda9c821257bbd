// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

// DDLRunner is the minimal store handle needed to run schema statements.
// Both *sql.DB and *sql.Tx satisfy it.
type DDLRunner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type InitializerInterface interface {
	Initialize(ctx context.Context, runner DDLRunner) error
}

var _ InitializerInterface = (*Initializer)(nil)

// Initializer bootstraps the tenant-scoped schema. Every statement uses
// "create if absent" semantics, so re-running on an initialized tenant is a
// no-op and concurrent callers for the same tenant are safe without locks.
type Initializer struct {
	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewInitializer(tracer tracing.TracingInterface, logger logging.LoggerInterface) *Initializer {
	return &Initializer{
		tracer: tracer,
		logger: logger,
	}
}

// Initialize ensures the full tenant table set exists. It stops at the
// first DDL failure; a retry resumes safely because each statement is
// independently idempotent.
func (i *Initializer) Initialize(ctx context.Context, runner DDLRunner) error {
	ctx, span := i.tracer.Start(ctx, "schema.Initializer.Initialize")
	defer span.End()

	i.logger.Debugf("initializing tenant schema, %d statements", len(statements))

	for n, stmt := range statements {
		if _, err := runner.ExecContext(ctx, stmt); err != nil {
			return types.NewProvisioningError(
				fmt.Sprintf("tenant schema bootstrap failed at statement %d of %d", n+1, len(statements)),
				err,
			)
		}
	}

	return nil
}

// StatementCount reports the number of DDL statements applied by
// Initialize.
func StatementCount() int {
	return len(statements)
}
