// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package schema

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/tracing"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

type fakeRunner struct {
	executed []string
	failAt   int
	err      error
}

func (f *fakeRunner) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	if f.err != nil && len(f.executed) == f.failAt {
		return nil, f.err
	}

	f.executed = append(f.executed, query)
	return driver.RowsAffected(0), nil
}

func TestInitializeRunsAllStatements(t *testing.T) {
	runner := new(fakeRunner)
	initializer := NewInitializer(tracing.NewNoopTracer(), logging.NewNoopLogger())

	if err := initializer.Initialize(context.Background(), runner); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(runner.executed) != StatementCount() {
		t.Fatalf("expected %d statements, ran %d", StatementCount(), len(runner.executed))
	}

	for _, stmt := range runner.executed {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Fatalf("statement is not idempotent: %s", stmt)
		}
	}
}

func TestInitializeIsRepeatable(t *testing.T) {
	runner := new(fakeRunner)
	initializer := NewInitializer(tracing.NewNoopTracer(), logging.NewNoopLogger())

	for i := 0; i < 3; i++ {
		if err := initializer.Initialize(context.Background(), runner); err != nil {
			t.Fatalf("run %d: expected no error, got %v", i, err)
		}
	}

	if len(runner.executed) != 3*StatementCount() {
		t.Fatalf("expected %d statements across runs, ran %d", 3*StatementCount(), len(runner.executed))
	}
}

func TestInitializeStopsOnFirstFailure(t *testing.T) {
	ddlErr := errors.New("relation is locked")
	runner := &fakeRunner{failAt: 4, err: ddlErr}
	initializer := NewInitializer(tracing.NewNoopTracer(), logging.NewNoopLogger())

	err := initializer.Initialize(context.Background(), runner)
	if err == nil {
		t.Fatal("expected an error")
	}

	provisioningErr := new(types.ProvisioningError)
	if !errors.As(err, &provisioningErr) {
		t.Fatalf("expected a provisioning error, got %T", err)
	}

	if !errors.Is(err, ddlErr) {
		t.Fatal("expected the DDL failure to be wrapped")
	}

	if !strings.Contains(err.Error(), fmt.Sprintf("statement %d", 5)) {
		t.Fatalf("expected the failing statement index in the message, got %q", err.Error())
	}

	if len(runner.executed) != 4 {
		t.Fatalf("expected execution to stop at the failure, ran %d statements", len(runner.executed))
	}
}

func TestTenantTableSet(t *testing.T) {
	required := []string{
		"projects", "shared_links", "tasks", "team", "documents", "clients",
		"inventory", "equipment", "rfis", "punch_items", "daily_logs",
		"dayworks", "safety_incidents", "safety_hazards", "timesheets",
		"channels", "team_messages", "transactions", "purchase_orders",
		"defects", "project_risks", "ai_assets", "vendors", "cost_codes",
		"invoices", "expense_claims", "notifications", "comments",
		"activity_feed", "task_assignments", "automations",
		"safety_checklists", "safety_checklist_items", "module_installations",
		"tenant_audit_logs",
	}

	all := strings.Join(statements, "\n")
	for _, table := range required {
		if !strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Errorf("missing tenant table %q", table)
		}
	}

	if len(statements) != len(required) {
		t.Fatalf("expected %d tables, have %d", len(required), len(statements))
	}
}
