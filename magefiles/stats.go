//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Stats prints Go lines of code per top-level directory as one JSON line.
func Stats() error {
	record := map[string]int{}
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return nil
		case d.IsDir():
			if skipStatsDir(path) {
				return filepath.SkipDir
			}
			return nil
		case filepath.Ext(path) != ".go":
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		n := bytes.Count(data, []byte("\n"))
		top, _, _ := strings.Cut(filepath.ToSlash(path), "/")
		if strings.HasSuffix(path, "_test.go") {
			record["go_loc_test"] += n
		} else {
			record["go_loc_prod"] += n
		}
		record["go_loc"] += n
		record["go_loc_"+top] += n
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk sources: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(record)
}

// skipStatsDir excludes build tooling, output and reference trees.
func skipStatsDir(path string) bool {
	if path == "." {
		return false
	}
	switch path {
	case "vendor", ".git", "magefiles", binaryDir:
		return true
	}
	return strings.HasPrefix(filepath.Base(path), "_")
}
