// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package index holds the in-memory symbol table built from every
// collected symbols.Definition and exposes the fast lookups the resolver
// and confidence engine need: by qualified name, by simple name, by file,
// by kind, and a fuzzy Search backing the CLI's search subcommand.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skylos-dev/skylos/internal/symbols"
)

var tracer = otel.Tracer("github.com/skylos-dev/skylos/internal/index")

// Errors returned by Add/AddBatch.
var (
	ErrInvalidSymbol = fmt.Errorf("%w", symbols.ErrInvalidDefinition)
)

// BatchError aggregates every failure found while validating a batch.
// AddBatch is all-or-nothing: if BatchError is returned, nothing in the
// batch was added.
type BatchError struct {
	Errors []error
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %v", len(e.Errors), e.Errors[0])
}

func (e *BatchError) Unwrap() []error { return e.Errors }

// DefaultMaxSymbols bounds index capacity so a pathological input can't
// exhaust memory silently; callers analyzing larger trees raise it via
// WithMaxSymbols.
const DefaultMaxSymbols = 1_000_000

// searchCheckInterval controls how often Search polls ctx for cancellation.
const searchCheckInterval = 1000

// Options configures a SymbolIndex.
type Options struct {
	MaxSymbols int
}

// DefaultOptions returns the default capacity.
func DefaultOptions() Options {
	return Options{MaxSymbols: DefaultMaxSymbols}
}

// Option is a functional option for NewSymbolIndex.
type Option func(*Options)

// WithMaxSymbols overrides the index capacity.
func WithMaxSymbols(max int) Option {
	return func(o *Options) { o.MaxSymbols = max }
}

// Stats summarizes index occupancy.
type Stats struct {
	TotalSymbols int
	ByKind       map[symbols.Kind]int
	FileCount    int
	MaxSymbols   int
}

// SymbolIndex provides O(1) lookup of symbols.Definition records by
// qualified name, simple name, file, and kind, plus an O(n) fuzzy Search.
//
// The index stores pointers but does not own them: definitions must not be
// mutated after Add/AddBatch. Safe for concurrent use.
type SymbolIndex struct {
	mu sync.RWMutex

	byID        map[string]*symbols.Definition
	byQualified map[string][]*symbols.Definition
	byName      map[string][]*symbols.Definition
	byFile      map[string][]*symbols.Definition
	byKind      map[symbols.Kind][]*symbols.Definition

	totalCount int
	kindCounts map[symbols.Kind]int

	options Options
}

// NewSymbolIndex creates an empty index.
func NewSymbolIndex(opts ...Option) *SymbolIndex {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &SymbolIndex{
		byID:        make(map[string]*symbols.Definition),
		byQualified: make(map[string][]*symbols.Definition),
		byName:      make(map[string][]*symbols.Definition),
		byFile:      make(map[string][]*symbols.Definition),
		byKind:      make(map[symbols.Kind][]*symbols.Definition),
		kindCounts:  make(map[symbols.Kind]int),
		options:     options,
	}
}

// Add validates and inserts a single definition.
func (idx *SymbolIndex) Add(def *symbols.Definition) error {
	if def == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidSymbol)
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSymbol, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.totalCount >= idx.options.MaxSymbols {
		return symbols.ErrMaxSymbolsExceeded
	}
	if _, exists := idx.byID[def.ID()]; exists {
		return fmt.Errorf("%w: %s", symbols.ErrDuplicateSymbol, def.ID())
	}

	idx.addLocked(def)
	return nil
}

// AddBatch validates every definition before writing any of them: either
// all definitions are added, or none are (BatchError reports every
// failure found, not just the first).
func (idx *SymbolIndex) AddBatch(defs []*symbols.Definition) error {
	if len(defs) == 0 {
		return nil
	}

	var errs []error
	seen := make(map[string]int, len(defs))
	for i, d := range defs {
		if d == nil {
			errs = append(errs, fmt.Errorf("definition[%d]: %w: nil", i, ErrInvalidSymbol))
			continue
		}
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("definition[%d]: %w: %v", i, ErrInvalidSymbol, err))
			continue
		}
		if firstIdx, dup := seen[d.ID()]; dup {
			errs = append(errs, fmt.Errorf("definition[%d]: duplicate of definition[%d]: %s", i, firstIdx, d.ID()))
		} else {
			seen[d.ID()] = i
		}
	}
	if len(errs) > 0 {
		return &BatchError{Errors: errs}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.totalCount+len(defs) > idx.options.MaxSymbols {
		return symbols.ErrMaxSymbolsExceeded
	}
	for i, d := range defs {
		if _, exists := idx.byID[d.ID()]; exists {
			errs = append(errs, fmt.Errorf("definition[%d]: %w: %s", i, symbols.ErrDuplicateSymbol, d.ID()))
		}
	}
	if len(errs) > 0 {
		return &BatchError{Errors: errs}
	}

	for _, d := range defs {
		idx.addLocked(d)
	}
	return nil
}

// addLocked inserts def into all indexes. Caller must hold idx.mu.
func (idx *SymbolIndex) addLocked(def *symbols.Definition) {
	idx.byID[def.ID()] = def
	idx.byQualified[def.QualifiedName] = append(idx.byQualified[def.QualifiedName], def)
	idx.byName[def.Name] = append(idx.byName[def.Name], def)
	idx.byFile[def.File] = append(idx.byFile[def.File], def)
	idx.byKind[def.Kind] = append(idx.byKind[def.Kind], def)
	idx.totalCount++
	idx.kindCounts[def.Kind]++
}

// GetByQualifiedName looks up a definition by its module.[Class.]name
// qualified name. When distinct files legitimately share one (re-exported
// bindings), the first-added definition wins, matching the resolver's
// first-match semantics.
func (idx *SymbolIndex) GetByQualifiedName(qualified string) (*symbols.Definition, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ds := idx.byQualified[qualified]
	if len(ds) == 0 {
		return nil, false
	}
	return ds[0], true
}

// GetByName returns every definition sharing the given simple name. Callers
// must not key purely on name across files without also checking File.
func (idx *SymbolIndex) GetByName(name string) []*symbols.Definition {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return copyDefs(idx.byName[name])
}

// GetByFile returns every definition declared in the given file.
func (idx *SymbolIndex) GetByFile(file string) []*symbols.Definition {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return copyDefs(idx.byFile[file])
}

// GetByKind returns every definition of the given kind.
func (idx *SymbolIndex) GetByKind(kind symbols.Kind) []*symbols.Definition {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return copyDefs(idx.byKind[kind])
}

func copyDefs(src []*symbols.Definition) []*symbols.Definition {
	if len(src) == 0 {
		return nil
	}
	out := make([]*symbols.Definition, len(src))
	copy(out, src)
	return out
}

// Search performs fuzzy lookup across all definition names: exact match,
// then prefix, then camelCase word boundary, then substring, then
// Levenshtein-fuzzy, ranked in that order. Used by the --diagnostics
// renderer, not by the resolver (which uses exact qualified-name lookups).
func (idx *SymbolIndex) Search(ctx context.Context, query string, limit int) ([]*symbols.Definition, error) {
	ctx, span := tracer.Start(ctx, "index.Search")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if query == "" {
		return nil, nil
	}

	queryLower := strings.ToLower(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		def   *symbols.Definition
		score int
	}

	var results []scored
	count := 0
	for _, def := range idx.byID {
		count++
		if count%searchCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		nameLower := strings.ToLower(def.Name)
		score, _ := computeMatchScore(query, queryLower, def.Name, nameLower, def.Kind)
		if score >= 0 {
			results = append(results, scored{def: def, score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score < results[j].score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]*symbols.Definition, len(results))
	for i, r := range results {
		out[i] = r.def
	}
	span.SetAttributes(attribute.Int("index.search.results", len(out)))
	return out, nil
}

// computeMatchScore ranks name against query. Lower is better; -1 means no
// match. Score layout: base*10000 + positionPenalty*100 + lengthPenalty*10
// + kindPenalty, so match-type always dominates position/length/kind.
func computeMatchScore(query, queryLower, name, nameLower string, kind symbols.Kind) (int, string) {
	if nameLower == queryLower {
		return 0, "exact"
	}

	var baseScore, matchPos int
	var matchType string

	switch {
	case strings.HasPrefix(nameLower, queryLower):
		baseScore, matchType, matchPos = 1, "prefix", 0
	default:
		if pos := findCamelCaseWordMatch(name, query); pos >= 0 {
			baseScore, matchType, matchPos = 2, "camelCase", pos
		} else if pos := strings.Index(nameLower, queryLower); pos >= 0 {
			baseScore, matchType, matchPos = 3, "substring", pos
		} else {
			threshold := maxInt(2, len(queryLower)/3)
			if d := levenshteinDistance(nameLower, queryLower); d <= threshold {
				baseScore, matchType = 4, "fuzzy"
			} else {
				return -1, "no_match"
			}
		}
	}

	positionPenalty := 0
	if len(name) > 0 && matchPos > 0 {
		positionPenalty = minInt(99, (matchPos*100)/len(name))
	}
	lengthPenalty := minInt(99, absInt(len(name)-len(query)))
	kindPenalty := kindSearchPenalty(kind)

	return baseScore*10000 + positionPenalty*100 + lengthPenalty*10 + kindPenalty, matchType
}

// findCamelCaseWordMatch finds query at a word boundary (uppercase letter
// or string start) inside name, case-insensitively, requiring the match to
// end at a word boundary too.
func findCamelCaseWordMatch(name, query string) int {
	if len(query) == 0 || len(name) == 0 {
		return -1
	}
	queryLower := strings.ToLower(query)
	for i := 0; i < len(name); i++ {
		boundary := i == 0 || (isUpper(name[i]) && !isUpper(name[i-1]))
		if !boundary || i+len(query) > len(name) {
			continue
		}
		if strings.ToLower(name[i:i+len(query)]) != queryLower {
			continue
		}
		end := i + len(query)
		if end == len(name) || isUpper(name[end]) || !isLetter(name[end]) {
			return i
		}
	}
	return -1
}

// kindSearchPenalty favors callable symbols over declarations when ranking
// otherwise-equal matches, since Search backs dead-code diagnostics tools
// where "what calls this" questions center on functions and methods.
func kindSearchPenalty(kind symbols.Kind) int {
	switch kind {
	case symbols.KindFunction, symbols.KindMethod:
		return 0
	case symbols.KindClass:
		return 1
	case symbols.KindVariable, symbols.KindConstant:
		return 2
	case symbols.KindParameter:
		return 3
	default:
		return 5
	}
}

func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// levenshteinDistance computes edit distance with a two-row rolling buffer.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(minInt(prev[j]+1, curr[j-1]+1), prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Stats reports current occupancy using the maintained counters (O(1),
// never a map traversal).
func (idx *SymbolIndex) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	byKind := make(map[symbols.Kind]int, len(idx.kindCounts))
	for k, v := range idx.kindCounts {
		byKind[k] = v
	}
	return Stats{
		TotalSymbols: idx.totalCount,
		ByKind:       byKind,
		FileCount:    len(idx.byFile),
		MaxSymbols:   idx.options.MaxSymbols,
	}
}

