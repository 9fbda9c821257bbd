// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// SecurityLogger emits structured security audit events, separate from the
// general application log stream so they can be routed independently.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", "system.startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", "system.shutdown"))
}

func (s *SecurityLogger) AuthzFailure(subject, policy string) {
	s.l.Warn("authorization failure",
		zap.String("event", "authz.failure"),
		zap.String("subject", subject),
		zap.String("policy", policy),
	)
}

func (s *SecurityLogger) AuthnFailure(reason string) {
	s.l.Warn("authentication failure",
		zap.String("event", "authn.failure"),
		zap.String("reason", reason),
	)
}
