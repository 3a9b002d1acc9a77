// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules implements the SKY-S/D/L/Q/P pattern detectors that
// piggyback on the Symbol Collector's AST pass.
package rules

import (
	"math"
	"strings"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// DefaultSecretEntropyThreshold is the Shannon-entropy cutoff for the
// heuristic (non-prefix) secret detector. 4.5 bits is the common-practice
// value used by comparable scanners.
const DefaultSecretEntropyThreshold = 4.5

// secretPrefixes are exact-match prefixes that identify a known secret
// format with no ambiguity.
var secretPrefixes = []string{
	"sk-", "sk_live_", "sk_test_", "ghp_", "gho_", "ghu_", "ghs_", "ghr_",
	"xoxb-", "xoxp-", "xoxa-", "AKIA", "eyJ",
}

// secretScopeWords are identifier substrings that put a string literal's
// entropy check in scope at all: without one of these in the enclosing
// identifier, a high-entropy string is just as likely a hash or UUID.
var secretScopeWords = []string{"password", "secret", "apikey", "api_key"}

// SecretsDetector implements S101.
type SecretsDetector struct {
	EntropyThreshold float64
}

// NewSecretsDetector builds a detector with the default entropy threshold.
func NewSecretsDetector() *SecretsDetector {
	return &SecretsDetector{EntropyThreshold: DefaultSecretEntropyThreshold}
}

// WithEntropyThreshold overrides the default Shannon-entropy cutoff.
func (d *SecretsDetector) WithEntropyThreshold(t float64) *SecretsDetector {
	d.EntropyThreshold = t
	return d
}

// Scan inspects every string literal for a hardcoded secret.
func (d *SecretsDetector) Scan(literals []symbols.StringLiteral) []symbols.Finding {
	var findings []symbols.Finding
	for _, lit := range literals {
		if len(lit.Value) < 16 {
			continue
		}
		if prefix, ok := matchesSecretPrefix(lit.Value); ok {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-S101",
				Severity:   symbols.SeverityCritical,
				Confidence: 95,
				Message:    "hardcoded secret matching known prefix " + prefix,
				File:       lit.File,
				Line:       lit.Line,
				Col:        lit.Col,
				Symbol:     lit.EnclosingIdent,
			})
			continue
		}
		if !inSecretScope(lit.EnclosingIdent) {
			continue
		}
		if entropy := shannonEntropy(lit.Value); entropy > d.threshold() {
			findings = append(findings, symbols.Finding{
				RuleID:     "SKY-S101",
				Severity:   symbols.SeverityHigh,
				Confidence: 70,
				Message:    "high-entropy string literal in a secret-scoped identifier",
				File:       lit.File,
				Line:       lit.Line,
				Col:        lit.Col,
				Symbol:     lit.EnclosingIdent,
			})
		}
	}
	return findings
}

func (d *SecretsDetector) threshold() float64 {
	if d.EntropyThreshold <= 0 {
		return DefaultSecretEntropyThreshold
	}
	return d.EntropyThreshold
}

func matchesSecretPrefix(value string) (string, bool) {
	for _, p := range secretPrefixes {
		if strings.HasPrefix(value, p) {
			return p, true
		}
	}
	return "", false
}

func inSecretScope(ident string) bool {
	lower := strings.ToLower(ident)
	for _, w := range secretScopeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// shannonEntropy computes the Shannon entropy (bits per character) of s.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
