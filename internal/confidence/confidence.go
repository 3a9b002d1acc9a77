// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package confidence scores each dead-code candidate: start at 100 and
// apply additive penalties and boosters, producing a final 0-100 "how
// confident are we this is dead" verdict.
package confidence

import (
	"strings"

	"github.com/skylos-dev/skylos/internal/heuristics"
	"github.com/skylos-dev/skylos/internal/symbols"
)

// Penalty values, named rather than inlined so the aggregator's test
// suite (and any future tuning) references one place.
const (
	PenaltyExported           = 40
	PenaltyFrameworkDecorator = 50
	PenaltyUnderscorePrefix   = 5
	PenaltyTestHelper         = 30
	PenaltyCalledAsCallee     = 60
	PenaltyDynamicAccess      = 40
	PenaltyDunderOnlyClass    = 10
	PenaltyGoExportedOnly     = 40
)

// Signals bundles everything the engine needs to know about one candidate
// definition beyond the Definition struct itself.
type Signals struct {
	IsPragmaIgnored                bool
	IsInTestFile                   bool // the defining file was classified as a test file
	IsCalledAsCallee               bool
	IsDynamicallyUsed              bool // referenced via getattr/globals/__all__ string literal
	IsDunderOnlyClass              bool // a class whose only members are dunder methods
	FrameworkBoosted               bool // heuristics.Result.Boosters had an entry for this name
	ReportedByGoEngineExportedOnly bool
}

// Score computes the final clamped [0,100] confidence for def given
// signals. A pragma-ignored line terminates scoring immediately at 0,
// matching "confidence := 0 (terminates scoring)".
func Score(def *symbols.Definition, signals Signals) int {
	if signals.IsPragmaIgnored {
		return 0
	}

	score := 100

	if def.Exported {
		score -= PenaltyExported
	}
	if signals.FrameworkBoosted {
		score -= PenaltyFrameworkDecorator
	}
	if strings.HasPrefix(def.Name, "_") && !strings.HasPrefix(def.Name, "__") {
		score -= PenaltyUnderscorePrefix
	}
	// The helper-name penalty only applies inside test files: a production
	// symbol that merely looks like a test helper gets no discount.
	if signals.IsInTestFile && heuristics.IsTestHelperName(def.Name) {
		score -= PenaltyTestHelper
	}
	if signals.IsCalledAsCallee {
		score -= PenaltyCalledAsCallee
	}
	if signals.IsDynamicallyUsed {
		score -= PenaltyDynamicAccess
	}
	if signals.IsDunderOnlyClass {
		score -= PenaltyDunderOnlyClass
	}
	if signals.ReportedByGoEngineExportedOnly {
		score -= PenaltyGoExportedOnly
	}

	return clamp(score)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// DunderOnlyClass reports whether every method Definition belonging to
// className (by Receiver or enclosing-class qualified prefix) is a dunder,
// given the full method list for that class.
func DunderOnlyClass(methods []*symbols.Definition) bool {
	if len(methods) == 0 {
		return false
	}
	for _, m := range methods {
		if !heuristics.AutoCalledDunders[m.Name] {
			return false
		}
	}
	return true
}
