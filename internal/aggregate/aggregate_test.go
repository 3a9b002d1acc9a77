// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package aggregate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylos-dev/skylos/internal/symbols"
)

func deadFn(name, file string, line, conf int) DeadCandidate {
	return DeadCandidate{
		Definition: &symbols.Definition{
			QualifiedName: name,
			Name:          name[strings.LastIndexByte(name, '.')+1:],
			Kind:          symbols.KindFunction,
			File:          file,
			StartLine:     line,
		},
		Confidence: conf,
	}
}

func TestBuildThresholdFiltersDeadCode(t *testing.T) {
	report := Build(Input{
		Version:   "1.0.0",
		Threshold: 80,
		Dead: []DeadCandidate{
			deadFn("m.reported", "m.py", 1, 95),
			deadFn("m.filtered", "m.py", 5, 60),
		},
	})
	assert.Equal(t, []string{"m.reported"}, report.UnusedFunctions)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, RuleUnusedFunction, report.Findings[0].RuleID)
	assert.GreaterOrEqual(t, report.Findings[0].Confidence, 80)
}

func TestBuildPragmaSuppression(t *testing.T) {
	file := &symbols.File{Path: "m.py", Ignored: map[int]bool{3: true}}
	report := Build(Input{
		Threshold: 80,
		Files:     map[string]*symbols.File{"m.py": file},
		Dead:      []DeadCandidate{deadFn("m.internal", "m.py", 3, 100)},
		Findings: []symbols.Finding{
			{RuleID: "SKY-S101", Severity: symbols.SeverityCritical, File: "m.py", Line: 3},
			{RuleID: "SKY-S101", Severity: symbols.SeverityCritical, File: "m.py", Line: 7},
		},
	})
	assert.Empty(t, report.UnusedFunctions, "pragma line must suppress the dead-code verdict")
	require.Len(t, report.Findings, 1, "pragma line must suppress rule findings too")
	assert.Equal(t, 7, report.Findings[0].Line)
}

func TestBuildKindBuckets(t *testing.T) {
	mk := func(name string, kind symbols.Kind) DeadCandidate {
		return DeadCandidate{
			Definition: &symbols.Definition{QualifiedName: name, Name: name, Kind: kind, File: "m.py", StartLine: 1},
			Confidence: 100,
		}
	}
	report := Build(Input{Threshold: 80, Dead: []DeadCandidate{
		mk("m.fn", symbols.KindFunction),
		mk("m.Cls.method", symbols.KindMethod),
		mk("m.Cls", symbols.KindClass),
		mk("m.NAME", symbols.KindConstant),
		mk("m.os", symbols.KindImport),
	}})
	assert.ElementsMatch(t, []string{"m.fn", "m.Cls.method"}, report.UnusedFunctions)
	assert.Equal(t, []string{"m.Cls"}, report.UnusedClasses)
	assert.ElementsMatch(t, []string{"m.NAME", "m.os"}, report.UnusedVariables)
}

func TestBuildSortDeterministic(t *testing.T) {
	findings := []symbols.Finding{
		{RuleID: "SKY-L002", Severity: symbols.SeverityWarn, File: "b.py", Line: 9},
		{RuleID: "SKY-S101", Severity: symbols.SeverityCritical, File: "z.py", Line: 1},
		{RuleID: "SKY-D211", Severity: symbols.SeverityCritical, File: "a.py", Line: 4},
		{RuleID: "SKY-Q002", Severity: symbols.SeverityMedium, File: "a.py", Line: 2},
	}
	r1 := Build(Input{Threshold: 80, Findings: findings})
	r2 := Build(Input{Threshold: 80, Findings: findings})

	j1, err := json.Marshal(r1)
	require.NoError(t, err)
	j2, err := json.Marshal(r2)
	require.NoError(t, err)
	assert.Equal(t, j1, j2, "two runs must be byte-identical")

	require.Len(t, r1.Findings, 4)
	assert.Equal(t, "SKY-D211", r1.Findings[0].RuleID, "CRITICAL in a.py sorts first")
	assert.Equal(t, "SKY-S101", r1.Findings[1].RuleID)
	assert.Equal(t, "SKY-Q002", r1.Findings[2].RuleID)
	assert.Equal(t, "SKY-L002", r1.Findings[3].RuleID)
}

func TestBuildDedupe(t *testing.T) {
	f := symbols.Finding{RuleID: "SKY-D211", Severity: symbols.SeverityCritical, File: "a.py", Line: 4, Symbol: "q"}
	report := Build(Input{Threshold: 80, Findings: []symbols.Finding{f, f, f}})
	assert.Len(t, report.Findings, 1)
}

func TestParseIgnoreRules(t *testing.T) {
	rules := ParseIgnoreRules(strings.NewReader(`
# comment
generated/*.py#SKY-U101
legacy/
scripts/tool.py#SKY-D211
`))
	require.Len(t, rules, 3)
	assert.Equal(t, "generated/*.py", rules[0].PathGlob)
	assert.Equal(t, "SKY-U101", rules[0].RuleID)
	assert.Equal(t, "legacy/", rules[1].PathGlob)
	assert.Equal(t, "", rules[1].RuleID)
}

func TestBuildIgnoreList(t *testing.T) {
	report := Build(Input{
		Threshold: 80,
		Ignore:    []IgnoreRule{{PathGlob: "generated/*.py", RuleID: RuleUnusedFunction}},
		Dead: []DeadCandidate{
			deadFn("generated.stub", "generated/stub.py", 1, 100),
			deadFn("src.dead", "src/dead.py", 1, 100),
		},
	})
	assert.Equal(t, []string{"src.dead"}, report.UnusedFunctions)
}

func TestBuildDiagnosticsGated(t *testing.T) {
	diags := []Diagnostic{{Kind: "ParseError", File: "bad.py", Message: "syntax"}}
	withOut := Build(Input{Threshold: 80, Diagnostics: diags})
	assert.Nil(t, withOut.Diagnostics)

	withIn := Build(Input{Threshold: 80, Diagnostics: diags, IncludeDiagnostics: true})
	require.Len(t, withIn.Diagnostics, 1)
	assert.Equal(t, "ParseError", withIn.Diagnostics[0].Kind)
}

func TestBuildEmptyReportShape(t *testing.T) {
	report := Build(Input{Version: "1.0.0"})
	data, err := json.Marshal(report)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"findings":[]`)
	assert.Contains(t, s, `"unused_functions":[]`)
	assert.Contains(t, s, `"unused_classes":[]`)
	assert.Contains(t, s, `"unused_variables":[]`)
}
