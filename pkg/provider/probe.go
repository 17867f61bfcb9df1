// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"os"
	"strings"
)

// WorkflowProbe returns a Probe that lists dir and reports whether it holds at
// least one *.json workflow file. A missing or unreadable directory reads as
// "no workflows"; the error is never surfaced.
func WorkflowProbe(dir string) Probe {
	return func() bool {
		if dir == "" {
			return false
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return false
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				return true
			}
		}
		return false
	}
}

// StaticProbe returns a Probe with a fixed answer.
func StaticProbe(v bool) Probe {
	return func() bool { return v }
}
