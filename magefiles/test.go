//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const envPostgresDSN = "SETTEE_POSTGRES_DSN"

// Test groups test targets (all, unit, integration, js).
type Test mg.Namespace

// All runs every test. Suites that need external services skip themselves
// when their environment is not configured.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs the tests with the integration suites forced off.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{envPostgresDSN: ""}, binGo, "test", "./...")
}

// Integration runs the Postgres store suite. It needs SETTEE_POSTGRES_DSN.
func (Test) Integration() error {
	if os.Getenv(envPostgresDSN) == "" {
		fmt.Printf("%s is not set; skipping integration tests.\n", envPostgresDSN)
		return nil
	}
	return sh.RunV(binGo, "test", "-v", "-run", "Integration", "./internal/postgres/...")
}

// JS runs the rule engine tests with the goja engine compiled in.
func (Test) JS() error {
	return sh.RunV(binGo, "test", "-v", "-tags", "js_eval", "./pkg/validate/...")
}
