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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylos-dev/skylos/internal/symbols"
)

func ruleIDs(findings []symbols.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.RuleID)
	}
	return out
}

func TestSecretsPrefixMatch(t *testing.T) {
	findings := NewSecretsDetector().Scan([]symbols.StringLiteral{
		{Value: "sk-1234567890abcdef1234567890abcdef", File: "cfg.py", Line: 3},
	})
	require.Len(t, findings, 1)
	assert.Equal(t, "SKY-S101", findings[0].RuleID)
	assert.Equal(t, symbols.SeverityCritical, findings[0].Severity)
	assert.Equal(t, 3, findings[0].Line)
}

func TestSecretsEntropyRequiresScope(t *testing.T) {
	highEntropy := "zQ8#mK2$vL9@xR4!wT7%yU3^bN6&cE1*"

	t.Run("out of scope ignored", func(t *testing.T) {
		findings := NewSecretsDetector().Scan([]symbols.StringLiteral{
			{Value: highEntropy, EnclosingIdent: "checksum"},
		})
		assert.Empty(t, findings)
	})

	t.Run("secret-scoped identifier flags", func(t *testing.T) {
		findings := NewSecretsDetector().Scan([]symbols.StringLiteral{
			{Value: highEntropy, EnclosingIdent: "db_password"},
		})
		require.Len(t, findings, 1)
		assert.Equal(t, symbols.SeverityHigh, findings[0].Severity)
	})
}

func TestSecretsShortStringsIgnored(t *testing.T) {
	findings := NewSecretsDetector().Scan([]symbols.StringLiteral{
		{Value: "sk-short", EnclosingIdent: "api_key"},
	})
	assert.Empty(t, findings)
}

func TestDangerSQLInjection(t *testing.T) {
	sites := []symbols.CallSite{
		{
			Callee: "db.Query",
			Args:   []symbols.Arg{{Kind: symbols.ArgTainted, Value: `"SELECT * FROM users WHERE id = '" + id + "'"`}},
			File:   "store.go", Line: 17, Col: 2,
		},
		{
			Callee: "db.Query",
			Args:   []symbols.Arg{{Kind: symbols.ArgLiteral, Value: "SELECT 1"}},
			File:   "store.go", Line: 20,
		},
	}
	findings := NewDangerDetector().Scan(sites)
	require.Len(t, findings, 1)
	assert.Equal(t, "SKY-D211", findings[0].RuleID)
	assert.Equal(t, symbols.SeverityCritical, findings[0].Severity)
	assert.Equal(t, 17, findings[0].Line)
}

func TestDangerTLSDisabled(t *testing.T) {
	findings := NewDangerDetector().Scan([]symbols.CallSite{
		{Callee: "requests.get", Args: []symbols.Arg{
			{Kind: symbols.ArgLiteral, Value: "https://internal"},
			{Kind: symbols.ArgLiteral, Value: "verify=False"},
		}, File: "api.py", Line: 9},
	})
	assert.Contains(t, ruleIDs(findings), "SKY-D210")
}

func TestDangerSSRFVariableURL(t *testing.T) {
	findings := NewDangerDetector().Scan([]symbols.CallSite{
		{Callee: "requests.get", Args: []symbols.Arg{{Kind: symbols.ArgTainted, Value: "url"}}, File: "api.py", Line: 4},
	})
	assert.Contains(t, ruleIDs(findings), "SKY-D216")
}

func TestDangerLiteralCallIsSafe(t *testing.T) {
	findings := NewDangerDetector().Scan([]symbols.CallSite{
		{Callee: "subprocess.run", Args: []symbols.Arg{{Kind: symbols.ArgLiteral, Value: "ls"}}},
	})
	assert.Empty(t, findings)
}

func TestDangerWeakHashFiresWithoutTaint(t *testing.T) {
	findings := NewDangerDetector().Scan([]symbols.CallSite{
		{Callee: "hashlib.md5", Args: []symbols.Arg{{Kind: symbols.ArgLiteral, Value: "data"}}},
	})
	assert.Contains(t, ruleIDs(findings), "SKY-D207")
}

func TestLogicRules(t *testing.T) {
	metrics := []symbols.FunctionMetrics{{
		QualifiedName:        "m.f",
		File:                 "m.py",
		MutableDefaultLines:  []int{1},
		BareExceptLines:      []int{5},
		SingletonEqualsLines: []int{7},
	}}
	findings := NewLogicDetector().Scan(metrics)
	ids := ruleIDs(findings)
	assert.Contains(t, ids, "SKY-L001")
	assert.Contains(t, ids, "SKY-L002")
	assert.Contains(t, ids, "SKY-L003")
}

func TestQualityComplexityLadder(t *testing.T) {
	tests := []struct {
		name      string
		decisions int
		severity  symbols.Severity
	}{
		{"warn tier", 12, symbols.SeverityWarn},
		{"high tier", 17, symbols.SeverityHigh},
		{"critical tier", 25, symbols.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := NewQualityDetector().Scan([]symbols.FunctionMetrics{
				{QualifiedName: "m.f", File: "m.py", StartLine: 1, EndLine: 2, DecisionPoints: tt.decisions},
			})
			require.NotEmpty(t, findings)
			assert.Equal(t, "SKY-Q001", findings[0].RuleID)
			assert.Equal(t, tt.severity, findings[0].Severity)
		})
	}
}

func TestQualityBelowThresholdsSilent(t *testing.T) {
	findings := NewQualityDetector().Scan([]symbols.FunctionMetrics{
		{QualifiedName: "m.f", File: "m.py", StartLine: 1, EndLine: 30, DecisionPoints: 4, MaxNestingDepth: 2, RequiredParamCount: 3, TotalParamCount: 4},
	})
	assert.Empty(t, findings)
}

func TestQualityLengthAndArgs(t *testing.T) {
	findings := NewQualityDetector().Scan([]symbols.FunctionMetrics{
		{QualifiedName: "m.f", File: "m.py", StartLine: 1, EndLine: 80, RequiredParamCount: 6, TotalParamCount: 6, MaxNestingDepth: 4},
	})
	ids := ruleIDs(findings)
	assert.Contains(t, ids, "SKY-Q002")
	assert.Contains(t, ids, "SKY-Q003")
	assert.Contains(t, ids, "SKY-Q004")
}

func TestPerfRules(t *testing.T) {
	sites := []symbols.CallSite{
		{Callee: "f.readlines", File: "m.py", Line: 2},
		{Callee: "pd.read_csv", Args: []symbols.Arg{{Kind: symbols.ArgLiteral, Value: "data.csv"}}, File: "m.py", Line: 3},
		{Callee: "pd.read_csv", Args: []symbols.Arg{
			{Kind: symbols.ArgLiteral, Value: "data.csv"},
			{Kind: symbols.ArgLiteral, Value: "chunksize=1000"},
		}, File: "m.py", Line: 4},
	}
	metrics := []symbols.FunctionMetrics{
		{QualifiedName: "m.f", File: "m.py", NestedLoopLines: []int{9}},
	}
	findings := NewPerfDetector().Scan(sites, metrics)
	ids := ruleIDs(findings)
	assert.Contains(t, ids, "SKY-P001")
	assert.Contains(t, ids, "SKY-P002")
	assert.Contains(t, ids, "SKY-P003")

	count := 0
	for _, id := range ids {
		if id == "SKY-P002" {
			count++
		}
	}
	assert.Equal(t, 1, count, "chunked read_csv must not be flagged")
}

func TestRemapGoRuleID(t *testing.T) {
	assert.Equal(t, "SKY-D211", RemapGoRuleID("G211"))
	assert.Equal(t, "SKY-D211", RemapGoRuleID("SKY-G211"))
	assert.Equal(t, "SKY-D230", RemapGoRuleID("G220"))
	assert.Equal(t, "G999", RemapGoRuleID("G999"), "unmapped IDs pass through")
	assert.Equal(t, "SKY-S101", RemapGoRuleID("SKY-S101"))
}
