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
	"strings"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// PerfDetector implements the SKY-P family: whole-file reads, unchunked
// dataframe loads, and the quadratic nested-loop heuristic.
type PerfDetector struct{}

// NewPerfDetector builds the performance-rule detector.
func NewPerfDetector() *PerfDetector { return &PerfDetector{} }

// Scan evaluates call sites and function metrics for performance smells.
func (d *PerfDetector) Scan(sites []symbols.CallSite, metrics []symbols.FunctionMetrics) []symbols.Finding {
	var findings []symbols.Finding

	for _, site := range sites {
		switch {
		case calleeMatches(site.Callee, []string{"read", "readlines"}) && len(site.Args) == 0:
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-P001",
				Severity:   symbols.SeverityWarn,
				Confidence: 70,
				Message:    "whole-file read loads the entire file into memory: " + site.Callee,
				File:       site.File,
				Line:       site.Line,
				Col:        site.Col,
			})
		case calleeMatches(site.Callee, []string{"read_csv"}) && !hasChunksize(site.Args):
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-P002",
				Severity:   symbols.SeverityMedium,
				Confidence: 75,
				Message:    "read_csv without chunksize loads the full dataset",
				File:       site.File,
				Line:       site.Line,
				Col:        site.Col,
			})
		}
	}

	for _, m := range metrics {
		for _, line := range m.NestedLoopLines {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-P003",
				Severity:   symbols.SeverityWarn,
				Confidence: 60,
				Message:    "nested loops over the same data look quadratic",
				File:       m.File,
				Line:       line,
				Symbol:     m.QualifiedName,
			})
		}
	}
	return findings
}

func hasChunksize(args []symbols.Arg) bool {
	for _, arg := range args {
		if strings.Contains(arg.Value, "chunksize=") {
			return true
		}
	}
	return false
}
