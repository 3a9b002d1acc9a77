// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package aggregate unifies dead-code verdicts and rule findings into the
// final report: pragma suppression, ignore-list filtering, the confidence
// threshold for dead code, dedupe, and the deterministic sort that makes
// two runs over the same tree byte-identical.
package aggregate

import (
	"bufio"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// DefaultConfidenceThreshold is the dead-code reporting cutoff.
const DefaultConfidenceThreshold = 80

// Dead-code rule IDs, one per definition kind the analyzer reports on.
const (
	RuleUnusedFunction = "SKY-U101"
	RuleUnusedMethod   = "SKY-U102"
	RuleUnusedClass    = "SKY-U103"
	RuleUnusedVariable = "SKY-U104"
	RuleUnusedImport   = "SKY-U105"
)

// DeadCandidate is one definition the resolver found unreachable, carrying
// its scored confidence.
type DeadCandidate struct {
	Definition *symbols.Definition
	Confidence int
}

// Diagnostic is a non-fatal problem surfaced in the report when the caller
// asks for diagnostics: parse errors, engine failures.
type Diagnostic struct {
	Kind    string `json:"kind"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// FindingJSON is the wire shape of one finding.
type FindingJSON struct {
	RuleID     string `json:"rule_id"`
	Severity   string `json:"severity"`
	Confidence int    `json:"confidence"`
	Message    string `json:"message"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Symbol     string `json:"symbol,omitempty"`
}

// Report is the full JSON output shape.
type Report struct {
	Version         string        `json:"version"`
	Findings        []FindingJSON `json:"findings"`
	UnusedFunctions []string      `json:"unused_functions"`
	UnusedClasses   []string      `json:"unused_classes"`
	UnusedVariables []string      `json:"unused_variables"`
	Diagnostics     []Diagnostic  `json:"diagnostics,omitempty"`
}

// IgnoreRule is one parsed .skylosignore line: a path glob plus an
// optional rule ID ("" matches every rule).
type IgnoreRule struct {
	PathGlob string
	RuleID   string
}

// ParseIgnoreRules reads .skylosignore content: one `glob` or
// `glob#RULE_ID` per line, `#`-prefixed lines and blanks skipped.
func ParseIgnoreRules(r io.Reader) []IgnoreRule {
	var out []IgnoreRule
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule := IgnoreRule{PathGlob: line}
		if hash := strings.IndexByte(line, '#'); hash > 0 {
			rule.PathGlob = strings.TrimSpace(line[:hash])
			rule.RuleID = strings.TrimSpace(line[hash+1:])
		}
		out = append(out, rule)
	}
	return out
}

func (r IgnoreRule) matches(file, ruleID string) bool {
	if r.RuleID != "" && r.RuleID != ruleID {
		return false
	}
	if ok, _ := filepath.Match(r.PathGlob, file); ok {
		return true
	}
	return strings.HasPrefix(file, strings.TrimSuffix(r.PathGlob, "/"))
}

// Input bundles everything the aggregation pass consumes.
type Input struct {
	Version     string
	Threshold   int
	Findings    []symbols.Finding // rule-detector findings, already remapped
	Dead        []DeadCandidate
	Files       map[string]*symbols.File // path -> file, for pragma line sets
	Ignore      []IgnoreRule
	Diagnostics []Diagnostic
	// IncludeDiagnostics controls whether Diagnostics appear in the JSON
	// (the --diagnostics flag).
	IncludeDiagnostics bool
}

// Build runs the full aggregation: suppression, threshold filtering,
// dedupe, and deterministic ordering.
func Build(in Input) *Report {
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	report := &Report{
		Version:         in.Version,
		Findings:        []FindingJSON{},
		UnusedFunctions: []string{},
		UnusedClasses:   []string{},
		UnusedVariables: []string{},
	}

	var all []symbols.Finding
	for _, f := range in.Findings {
		if suppressed(in, f.File, f.Line, f.RuleID) {
			continue
		}
		all = append(all, f)
	}

	for _, cand := range in.Dead {
		def := cand.Definition
		if def == nil {
			continue
		}
		// The confidence threshold applies to dead-code findings only;
		// a pragma'd definition scored 0 falls out here too.
		if cand.Confidence < threshold {
			continue
		}
		ruleID := deadRuleID(def.Kind)
		if suppressed(in, def.File, def.StartLine, ruleID) {
			continue
		}
		all = append(all, symbols.Finding{
			RuleID:     ruleID,
			Severity:   symbols.SeverityWarn,
			Confidence: cand.Confidence,
			Message:    "unused " + def.Kind.String() + ": " + def.QualifiedName,
			File:       def.File,
			Line:       def.StartLine,
			Symbol:     def.QualifiedName,
		})
		switch def.Kind {
		case symbols.KindFunction:
			report.UnusedFunctions = append(report.UnusedFunctions, def.QualifiedName)
		case symbols.KindMethod:
			report.UnusedFunctions = append(report.UnusedFunctions, def.QualifiedName)
		case symbols.KindClass:
			report.UnusedClasses = append(report.UnusedClasses, def.QualifiedName)
		case symbols.KindVariable, symbols.KindConstant, symbols.KindImport:
			report.UnusedVariables = append(report.UnusedVariables, def.QualifiedName)
		}
	}

	all = dedupe(all)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Severity != all[j].Severity {
			return all[i].Severity.Rank() > all[j].Severity.Rank()
		}
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].RuleID < all[j].RuleID
	})
	for _, f := range all {
		report.Findings = append(report.Findings, FindingJSON{
			RuleID:     f.RuleID,
			Severity:   string(f.Severity),
			Confidence: f.Confidence,
			Message:    f.Message,
			File:       f.File,
			Line:       f.Line,
			Col:        f.Col,
			Symbol:     f.Symbol,
		})
	}

	sort.Strings(report.UnusedFunctions)
	sort.Strings(report.UnusedClasses)
	sort.Strings(report.UnusedVariables)

	if in.IncludeDiagnostics {
		report.Diagnostics = append([]Diagnostic{}, in.Diagnostics...)
		sort.Slice(report.Diagnostics, func(i, j int) bool {
			if report.Diagnostics[i].File != report.Diagnostics[j].File {
				return report.Diagnostics[i].File < report.Diagnostics[j].File
			}
			return report.Diagnostics[i].Message < report.Diagnostics[j].Message
		})
	}
	return report
}

// suppressed applies pragma line suppression and the ignore list.
func suppressed(in Input, file string, line int, ruleID string) bool {
	if f, ok := in.Files[file]; ok && f.IsIgnored(line) {
		return true
	}
	for _, rule := range in.Ignore {
		if rule.matches(file, ruleID) {
			return true
		}
	}
	return false
}

func deadRuleID(kind symbols.Kind) string {
	switch kind {
	case symbols.KindMethod:
		return RuleUnusedMethod
	case symbols.KindClass:
		return RuleUnusedClass
	case symbols.KindVariable, symbols.KindConstant:
		return RuleUnusedVariable
	case symbols.KindImport:
		return RuleUnusedImport
	default:
		return RuleUnusedFunction
	}
}

// dedupe drops findings sharing (rule_id, file, line, symbol), keeping the
// first occurrence.
func dedupe(findings []symbols.Finding) []symbols.Finding {
	type key struct {
		rule, file, symbol string
		line               int
	}
	seen := make(map[key]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		k := key{rule: f.RuleID, file: f.File, symbol: f.Symbol, line: f.Line}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}
