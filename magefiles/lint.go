//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import "github.com/magefile/mage/sh"

const binLint = "golangci-lint"

// Lint runs golangci-lint, including the js_eval build.
func Lint() error {
	if err := sh.RunV(binLint, "run", "./..."); err != nil {
		return err
	}
	return sh.RunV(binLint, "run", "--build-tags", "js_eval", "./pkg/validate/...")
}
