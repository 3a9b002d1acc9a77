// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package heuristics

import (
	"strings"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// AutoCalledDunders lists the Python dunder methods invoked implicitly by
// the runtime; a definition with one of these names is
// always a RootSet member regardless of references.
var AutoCalledDunders = map[string]bool{
	"__init__": true, "__new__": true, "__enter__": true, "__exit__": true,
	"__del__": true, "__iter__": true, "__next__": true, "__call__": true,
	"__repr__": true, "__str__": true, "__eq__": true, "__hash__": true,
	"__len__": true, "__getitem__": true, "__setitem__": true,
}

// GoInterfaceMethods lists method names the Go runtime or standard
// library dispatches through well-known interfaces; a Go method with one
// of these names is live even without a visible caller, the way dunders
// are for Python.
var GoInterfaceMethods = map[string]bool{
	"String": true, "Error": true, "Read": true, "Write": true, "Close": true,
	"ServeHTTP": true, "MarshalJSON": true, "UnmarshalJSON": true,
	"MarshalText": true, "UnmarshalText": true, "Scan": true, "Value": true,
	"Len": true, "Less": true, "Swap": true,
}

// testHelperNames lists exact test-lifecycle names that are roots in any
// test file regardless of framework. Names matching these are never
// reported dead even though they carry no direct reference.
var testHelperNames = map[string]bool{
	"setUp": true, "tearDown": true, "setUpClass": true, "tearDownClass": true,
	"setup_method": true, "teardown_method": true,
}

// IsTestHelperName reports whether name is a conventional test-lifecycle
// or test-case identifier. The root-set heuristics and the test-helper
// confidence penalty share this naming rule.
func IsTestHelperName(name string) bool {
	if testHelperNames[name] {
		return true
	}
	return strings.HasPrefix(name, "test_") || strings.HasPrefix(name, "Test")
}

// MainEntryCaller is the sentinel CallPair.CallerQualified value the
// collector emits for calls made directly inside a Python
// `if __name__ == "__main__":` block or at Go `main` package top level,
// per module. Resolve treats CallPairs with this caller as synthetic
// roots rather than requiring the sentinel itself to be a Definition.
func MainEntryCaller(moduleName string) string {
	return moduleName + ".__main_entry__"
}

// Matcher checks a definition's decorators against the framework registry.
type Matcher struct {
	cfg *FrameworkConfig
}

// NewMatcher builds a Matcher from the process-wide framework registry.
func NewMatcher() (*Matcher, error) {
	cfg, err := GetFrameworkConfig()
	if err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg}, nil
}

// Match reports whether any decorator matches a registered framework
// pattern, returning the confidence booster the registry assigns to that
// framework. A decorator matches a pattern if the
// pattern is a suffix of the decorator (covers "app.route" matching both
// "app.route" and "flask_app.route") or an exact simple-name match.
func (m *Matcher) Match(decorators []string) (booster int, matched bool) {
	if m == nil || m.cfg == nil {
		return 0, false
	}
	for _, dec := range decorators {
		for _, fw := range m.cfg.Frameworks {
			for _, pattern := range fw.Patterns {
				if decoratorMatches(dec, pattern) {
					if fw.Booster > booster {
						booster = fw.Booster
					}
					matched = true
				}
			}
		}
	}
	return booster, matched
}

func decoratorMatches(decorator, pattern string) bool {
	if decorator == pattern {
		return true
	}
	return strings.HasSuffix(decorator, "."+pattern) || strings.HasSuffix(decorator, pattern)
}

// Result is the output of Apply: the set of qualified names added to the
// RootSet, a per-qualified-name confidence booster, and synthetic
// references contributed by entry-point blocks.
type Result struct {
	RootSet   map[string]bool
	Boosters  map[string]int
	Synthetic []*symbols.Reference
}

// Options controls how aggressively heuristics treat test files as roots.
type Options struct {
	// IncludeTests mirrors internal/loader.Options.IncludeTests: when
	// false, test-file definitions never enter the RootSet even if they
	// look like test helpers, since the caller has chosen to exclude test
	// code from the analysis entirely.
	IncludeTests bool
}

// Apply computes the RootSet contribution, confidence boosters, and
// synthetic references for the given definitions and files. mainEntryCalls
// maps a file path to the simple call names the collector found directly
// inside that file's entry-point block (main-guard or Go main-package
// top level).
func Apply(opts Options, defs []*symbols.Definition, files map[string]*symbols.File, mainEntryCalls map[string][]string) (Result, error) {
	matcher, err := NewMatcher()
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RootSet:  make(map[string]bool),
		Boosters: make(map[string]int),
	}

	for _, d := range defs {
		if d == nil {
			continue
		}
		if d.Exported {
			res.RootSet[d.QualifiedName] = true
		}
		if (d.Kind == symbols.KindMethod || d.Kind == symbols.KindFunction) && AutoCalledDunders[d.Name] {
			res.RootSet[d.QualifiedName] = true
		}
		if d.Language == symbols.LanguageGo && d.Kind == symbols.KindMethod && GoInterfaceMethods[d.Name] {
			res.RootSet[d.QualifiedName] = true
		}
		if booster, ok := matcher.Match(d.Decorators); ok {
			res.RootSet[d.QualifiedName] = true
			if booster > res.Boosters[d.QualifiedName] {
				res.Boosters[d.QualifiedName] = booster
			}
		}
		if d.Language == symbols.LanguageGo && d.Package == "main" && d.Name == "main" && d.Kind == symbols.KindFunction {
			res.RootSet[d.QualifiedName] = true
		}

		if opts.IncludeTests {
			if file, ok := files[d.File]; ok && file != nil && file.IsTest {
				if IsTestHelperName(d.Name) || matcherIsFixture(matcher, d.Decorators) {
					res.RootSet[d.QualifiedName] = true
				}
			}
		}
	}

	for path, calls := range mainEntryCalls {
		moduleName := path
		if file, ok := files[path]; ok && file != nil {
			moduleName = file.ModuleName
		}
		// The per-module entry sentinel roots every CallPair the collector
		// attributed to the main-guard block.
		res.RootSet[MainEntryCaller(moduleName)] = true
		for _, call := range calls {
			res.Synthetic = append(res.Synthetic,
				&symbols.Reference{Name: call, File: path, Synthetic: true},
				&symbols.Reference{Name: moduleName + "." + call, File: path, Synthetic: true},
			)
		}
	}

	return res, nil
}

// matcherIsFixture reports whether a decorator set matches the pytest
// fixture/parametrize patterns specifically, used to root test fixtures
// that have no direct caller.
func matcherIsFixture(m *Matcher, decorators []string) bool {
	_, matched := m.Match(decorators)
	return matched
}
