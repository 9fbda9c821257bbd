// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cortexbuild/tenancy-service/internal/httpclient"
	"github.com/cortexbuild/tenancy-service/internal/logging"
)

func newTestDispatcher(providerURL string) *Dispatcher {
	client := httpclient.NewClient(httpclient.Config{
		MaxRetries: 1,
		Timeout:    5 * time.Second,
		BaseDelay:  time.Millisecond,
	}, logging.NewNoopLogger())

	return NewDispatcher(Config{
		ProviderURL: providerURL,
		APIKey:      "test-key",
		FromAddress: "no-reply@cortexbuild.com",
	}, client, logging.NewNoopLogger())
}

func TestSendInvitationPostsToProvider(t *testing.T) {
	var got invitationPayload
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := newTestDispatcher(srv.URL)

	err := d.SendInvitation(context.Background(), "owner@acme.test", "Company Admin", "Acme", "https://app.test/accept")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth != "Bearer test-key" {
		t.Errorf("unexpected authorization header %q", auth)
	}

	if got.To != "owner@acme.test" || got.From != "no-reply@cortexbuild.com" || got.Template != "company-invitation" {
		t.Errorf("unexpected payload: %+v", got)
	}

	if got.Vars.Company != "Acme" || got.Vars.AcceptLink != "https://app.test/accept" {
		t.Errorf("unexpected template vars: %+v", got.Vars)
	}
}

func TestSendInvitationProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := newTestDispatcher(srv.URL)

	err := d.SendInvitation(context.Background(), "owner@acme.test", "Company Admin", "Acme", "https://app.test/accept")
	if err == nil {
		t.Fatal("expected an error for a provider rejection")
	}
}
