// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/cortexbuild/tenancy-service/cmd"

func main() {
	cmd.Execute()
}
