// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package migrations embeds the platform schema migrations consumed by
// the migrate command.
package migrations

import "embed"

//go:embed *.sql
var EmbedMigrations embed.FS
