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

import "github.com/skylos-dev/skylos/internal/symbols"

// LogicDetector implements SKY-L001/L002/L003 over the facts the collector
// gathered per function.
type LogicDetector struct{}

// NewLogicDetector builds the logic-rule detector.
func NewLogicDetector() *LogicDetector { return &LogicDetector{} }

// Scan converts the collector's per-function logic facts into findings.
func (d *LogicDetector) Scan(metrics []symbols.FunctionMetrics) []symbols.Finding {
	var findings []symbols.Finding
	for _, m := range metrics {
		for _, line := range m.MutableDefaultLines {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-L001",
				Severity:   symbols.SeverityMedium,
				Confidence: 95,
				Message:    "mutable default argument is shared across calls",
				File:       m.File,
				Line:       line,
				Symbol:     m.QualifiedName,
			})
		}
		for _, line := range m.BareExceptLines {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-L002",
				Severity:   symbols.SeverityWarn,
				Confidence: 95,
				Message:    "bare except swallows all exceptions including KeyboardInterrupt",
				File:       m.File,
				Line:       line,
				Symbol:     m.QualifiedName,
			})
		}
		for _, line := range m.SingletonEqualsLines {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-L003",
				Severity:   symbols.SeverityWarn,
				Confidence: 90,
				Message:    "comparison against a singleton should use is / is not",
				File:       m.File,
				Line:       line,
				Symbol:     m.QualifiedName,
			})
		}
	}
	return findings
}
