// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skylos-dev/skylos/internal/symbols"
)

func TestComputeMatchScore(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		symbolName    string
		symbolKind    symbols.Kind
		wantMatchType string
		shouldMatch   bool
	}{
		{"exact match beats everything", "Process", "Process", symbols.KindFunction, "exact", true},
		{"prefix match", "Process", "ProcessData", symbols.KindFunction, "prefix", true},
		{"camelCase in middle", "Process", "getDatesToProcess", symbols.KindFunction, "camelCase", true},
		{"substring match", "Process", "DetectFailedProcessing", symbols.KindFunction, "substring", true},
		{"prefix match on variable", "Process", "ProcessedStatus", symbols.KindVariable, "prefix", true},
		{"no match for unrelated symbol", "Process", "UnrelatedFunction", symbols.KindFunction, "no_match", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, matchType := computeMatchScore(
				tt.query, toLower(tt.query),
				tt.symbolName, toLower(tt.symbolName),
				tt.symbolKind,
			)
			if tt.shouldMatch {
				assert.GreaterOrEqual(t, score, 0)
				assert.Equal(t, tt.wantMatchType, matchType)
			} else {
				assert.Equal(t, -1, score)
			}
		})
	}
}

func TestComputeMatchScoreRanking(t *testing.T) {
	query, queryLower := "Process", "process"

	scoreVar, _ := computeMatchScore(query, queryLower, "ProcessedStatus", "processedstatus", symbols.KindVariable)
	scoreFunc, _ := computeMatchScore(query, queryLower, "ProcessedStatus", "processedstatus", symbols.KindFunction)
	assert.Less(t, scoreFunc, scoreVar, "function should outrank variable for the same match quality")

	scoreEarly, _ := computeMatchScore(query, queryLower, "ProcessData", "processdata", symbols.KindFunction)
	scoreLater, _ := computeMatchScore(query, queryLower, "getDatesToProcess", "getdatestoprocess", symbols.KindFunction)
	assert.Less(t, scoreEarly, scoreLater, "earlier match should score better")

	scoreShort, _ := computeMatchScore(query, queryLower, "ProcessData", "processdata", symbols.KindFunction)
	scoreLong, _ := computeMatchScore(query, queryLower, "ProcessDataWithExtraStuff", "processdatawithextrastuff", symbols.KindFunction)
	assert.Less(t, scoreShort, scoreLong, "shorter name should score better")
}

func TestFindCamelCaseWordMatch(t *testing.T) {
	tests := []struct {
		name       string
		symbolName string
		query      string
		wantPos    int
	}{
		{"match at start", "ProcessData", "Process", 0},
		{"match at camelCase boundary", "getDatesToProcess", "Process", 10},
		{"match at camelCase boundary - Data", "ProcessData", "Data", 7},
		{"no match - not word boundary", "Unprocessed", "process", -1},
		{"case insensitive", "getDatesToProcess", "process", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantPos, findCamelCaseWordMatch(tt.symbolName, tt.query))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("same", "same"))
	assert.Equal(t, 1, levenshteinDistance("cat", "cats"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, levenshteinDistance("", "abcd"))
}

func toLower(s string) string {
	result := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			result[i] = s[i] + 32
		} else {
			result[i] = s[i]
		}
	}
	return string(result)
}
