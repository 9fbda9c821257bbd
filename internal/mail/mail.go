// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package mail sends transactional email through an external provider.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cortexbuild/tenancy-service/internal/httpclient"
	"github.com/cortexbuild/tenancy-service/internal/logging"
)

type DispatcherInterface interface {
	SendInvitation(ctx context.Context, email, roleLabel, companyName, acceptLink string) error
}

type Config struct {
	ProviderURL string
	APIKey      string
	FromAddress string
}

var _ DispatcherInterface = (*Dispatcher)(nil)

// Dispatcher delivers mail over the provider's HTTP API. Sends are not
// retried: the provider deduplicates nothing and a duplicate invitation
// is worse than a missing one the caller already logs.
type Dispatcher struct {
	client httpclient.ClientInterface
	cfg    Config
	logger logging.LoggerInterface
}

func NewDispatcher(cfg Config, client httpclient.ClientInterface, logger logging.LoggerInterface) *Dispatcher {
	return &Dispatcher{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

type invitationPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
	Vars     struct {
		Role       string `json:"role"`
		Company    string `json:"company"`
		AcceptLink string `json:"accept_link"`
	} `json:"vars"`
}

func (d *Dispatcher) SendInvitation(ctx context.Context, email, roleLabel, companyName, acceptLink string) error {
	payload := invitationPayload{
		From:     d.cfg.FromAddress,
		To:       email,
		Subject:  fmt.Sprintf("You have been invited to %s", companyName),
		Template: "company-invitation",
	}
	payload.Vars.Role = roleLabel
	payload.Vars.Company = companyName
	payload.Vars.AcceptLink = acceptLink

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding invitation email: %w", err)
	}

	resp, err := d.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    d.cfg.ProviderURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + d.cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("sending invitation email: %w", err)
	}
	defer resp.Body.Close()

	d.logger.Debugf("invitation email dispatched to %s for company %s", email, companyName)

	return nil
}

// NoopDispatcher drops email on the floor. Used in dev environments and
// tests where no provider is configured.
type NoopDispatcher struct{}

func NewNoopDispatcher() *NoopDispatcher { return &NoopDispatcher{} }

func (d *NoopDispatcher) SendInvitation(context.Context, string, string, string, string) error {
	return nil
}
