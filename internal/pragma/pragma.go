// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pragma scans source lines for suppression comments and marks the
// corresponding symbols.File.Ignored line set before any rule runs.
package pragma

import "strings"

// markers lists the line-local substrings that suppress a line, matched
// case-insensitively. "noqa" is carried over from Python's flake8/ruff
// convention since real codebases already use it for the same purpose.
var markers = []string{
	"pragma: no skylos",
	"pragma: no cover",
	"noqa",
}

// Scan returns the set of 1-indexed line numbers in lines that carry a
// suppression marker, suitable for assignment to symbols.File.Ignored.
func Scan(lines []string) map[int]bool {
	ignored := make(map[int]bool)
	for i, line := range lines {
		if hasMarker(line) {
			ignored[i+1] = true
		}
	}
	if len(ignored) == 0 {
		return nil
	}
	return ignored
}

// hasMarker reports whether line contains any recognized suppression
// marker. Matching is substring-based rather than comment-syntax-aware:
// the marker is meaningful wherever it appears on the line, matching how
// noqa/pragma comments are conventionally recognized by existing linters.
func hasMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsIgnored reports whether a specific line number is covered by any
// marker in lines, without allocating a full map — useful for callers that
// only need a single-line check.
func IsIgnored(lines []string, lineNo int) bool {
	if lineNo < 1 || lineNo > len(lines) {
		return false
	}
	return hasMarker(lines[lineNo-1])
}
