// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import "strings"

// goRuleRemap is the authoritative G-prefix to unified-D mapping for rules
// emitted by the external Go engine. Unmapped G IDs pass
// through unchanged.
var goRuleRemap = map[string]string{
	"G207": "D207",
	"G208": "D208",
	"G210": "D210",
	"G211": "D211",
	"G212": "D212",
	"G215": "D215",
	"G216": "D216",
	"G220": "D230",
}

// RemapGoRuleID rewrites a Go-engine rule ID into the unified SKY-D
// namespace, tolerating both bare ("G211") and prefixed ("SKY-G211")
// spellings. IDs with no mapping are returned as given.
func RemapGoRuleID(id string) string {
	bare := strings.TrimPrefix(id, "SKY-")
	mapped, ok := goRuleRemap[bare]
	if !ok {
		return id
	}
	return "SKY-" + mapped
}
