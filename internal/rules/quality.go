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

import (
	"fmt"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// Quality thresholds. The complexity ladder escalates severity; the
// remaining limits are flat.
const (
	ComplexityWarn     = 10
	ComplexityHigh     = 15
	ComplexityCritical = 20
	MaxNestingDepth    = 3
	MaxFunctionLines   = 50
	MaxRequiredArgs    = 5
	MaxTotalArgs       = 10
)

// QualityDetector implements the SKY-Q family over function metrics.
type QualityDetector struct{}

// NewQualityDetector builds the quality-rule detector.
func NewQualityDetector() *QualityDetector { return &QualityDetector{} }

// Scan evaluates each function's metrics against the quality thresholds.
// Cyclomatic complexity is the decision-point count plus one.
func (d *QualityDetector) Scan(metrics []symbols.FunctionMetrics) []symbols.Finding {
	var findings []symbols.Finding
	for _, m := range metrics {
		complexity := m.DecisionPoints + 1
		if complexity > ComplexityWarn {
			severity := symbols.SeverityWarn
			switch {
			case complexity > ComplexityCritical:
				severity = symbols.SeverityCritical
			case complexity > ComplexityHigh:
				severity = symbols.SeverityHigh
			}
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-Q001",
				Severity:   severity,
				Confidence: 100,
				Message:    fmt.Sprintf("cyclomatic complexity %d exceeds %d", complexity, ComplexityWarn),
				File:       m.File,
				Line:       m.StartLine,
				Symbol:     m.QualifiedName,
			})
		}
		if m.MaxNestingDepth > MaxNestingDepth {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-Q002",
				Severity:   symbols.SeverityMedium,
				Confidence: 100,
				Message:    fmt.Sprintf("nesting depth %d exceeds %d", m.MaxNestingDepth, MaxNestingDepth),
				File:       m.File,
				Line:       m.StartLine,
				Symbol:     m.QualifiedName,
			})
		}
		if lines := m.LineCount(); lines > MaxFunctionLines {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-Q003",
				Severity:   symbols.SeverityMedium,
				Confidence: 100,
				Message:    fmt.Sprintf("function is %d lines long (limit %d)", lines, MaxFunctionLines),
				File:       m.File,
				Line:       m.StartLine,
				Symbol:     m.QualifiedName,
			})
		}
		if m.RequiredParamCount > MaxRequiredArgs || m.TotalParamCount > MaxTotalArgs {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-Q004",
				Severity:   symbols.SeverityMedium,
				Confidence: 100,
				Message:    fmt.Sprintf("too many parameters (%d required, %d total)", m.RequiredParamCount, m.TotalParamCount),
				File:       m.File,
				Line:       m.StartLine,
				Symbol:     m.QualifiedName,
			})
		}
	}
	return findings
}
