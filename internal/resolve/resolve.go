// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve matches References to Definitions across modules using
// per-file import/alias maps and dotted-name resolution, then computes the
// reachability closure from the RootSet over CallPairs and resolved
// References. Lookups go through the session's index.SymbolIndex, which is
// read-only by the time a resolve pass runs.
package resolve

import (
	"log/slog"
	"strings"

	"github.com/skylos-dev/skylos/internal/index"
	"github.com/skylos-dev/skylos/internal/symbols"
)

// Result is the output of a resolve pass: every definition's liveness, the
// references that resolved ambiguously (kept for diagnostics), and the
// names that were never matched to any definition (dynamic access
// candidates, handled by the confidence engine rather than here).
type Result struct {
	// Live holds the qualified names of every live definition: the
	// RootSet plus everything reachable from it.
	Live map[string]bool

	// AmbiguousCount is how many references matched more than one
	// same-priority candidate and were conservatively marked live.
	AmbiguousCount int

	// CalledAsCallee holds every qualified name that appeared at least
	// once as a CallPair callee, feeding the confidence engine's "-60,
	// appears as callee" penalty independent of full reachability.
	CalledAsCallee map[string]bool
}

// Input bundles everything a resolve pass needs. Index holds the combined
// symbol table from the parallel collection phase.
type Input struct {
	Index      *index.SymbolIndex
	References []*symbols.Reference
	CallPairs  []*symbols.CallPair
	ImportMaps map[string]symbols.ImportMap // file -> alias map
	RootSet    map[string]bool
	Logger     *slog.Logger
}

// Resolve runs per-reference matching, then a reachability closure over
// CallPairs and resolved references starting from in.RootSet.
func Resolve(in Input) Result {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idx := in.Index
	if idx == nil {
		idx = index.NewSymbolIndex()
	}

	liveEdges := make(map[string][]string) // qualified name -> qualified names it makes live
	calledAsCallee := make(map[string]bool)
	ambiguous := 0

	for _, cp := range in.CallPairs {
		if cp == nil {
			continue
		}
		if callee, ok := idx.GetByQualifiedName(cp.CalleeQualified); ok {
			calledAsCallee[callee.QualifiedName] = true
			liveEdges[cp.CallerQualified] = append(liveEdges[cp.CallerQualified], callee.QualifiedName)
		} else if matches := idx.GetByName(simpleName(cp.CalleeQualified)); len(matches) > 0 {
			for _, m := range matches {
				calledAsCallee[m.QualifiedName] = true
				liveEdges[cp.CallerQualified] = append(liveEdges[cp.CallerQualified], m.QualifiedName)
			}
		}
	}

	for _, ref := range in.References {
		if ref == nil {
			continue
		}
		matches, amb := resolveReference(idx, in.ImportMaps[ref.File], ref)
		if amb {
			ambiguous++
		}
		for _, m := range matches {
			calledAsCallee[m.QualifiedName] = true
			// A resolved reference makes its target reachable from any
			// root directly (references carry no caller identity of their
			// own beyond the file), so attach it to a synthetic per-file
			// root edge rather than requiring a CallPair.
			liveEdges[fileRootKey(ref.File)] = append(liveEdges[fileRootKey(ref.File)], m.QualifiedName)
		}
	}

	// Every referencing file's synthetic root key participates in the
	// closure so that any resolved reference inside that file reaches
	// liveness, mirroring "references make their target live" without
	// requiring every reference to originate from a known caller
	// Definition.
	roots := make(map[string]bool, len(in.RootSet))
	for k := range in.RootSet {
		roots[k] = true
	}
	for _, ref := range in.References {
		if ref != nil {
			roots[fileRootKey(ref.File)] = true
		}
	}

	live := closure(roots, liveEdges)

	logger.Debug("resolve complete",
		slog.Int("definitions", idx.Stats().TotalSymbols),
		slog.Int("live", len(live)),
		slog.Int("ambiguous_references", ambiguous),
	)

	return Result{
		Live:           live,
		AmbiguousCount: ambiguous,
		CalledAsCallee: calledAsCallee,
	}
}

// fileRootKey is a synthetic graph node representing "reachable simply by
// being referenced somewhere in this file", distinct from any real
// qualified name (files never share the "\x00file:" prefix).
func fileRootKey(file string) string { return "\x00file:" + file }

// resolveReference runs the five-step match for one reference: exact
// qualified match, same-module simple-name match, import-alias rewrite,
// then ambiguous-conservative-live fallback.
func resolveReference(idx *index.SymbolIndex, imports symbols.ImportMap, ref *symbols.Reference) ([]*symbols.Definition, bool) {
	// 1. Already fully qualified.
	if d, ok := idx.GetByQualifiedName(ref.Name); ok {
		return []*symbols.Definition{d}, false
	}

	// 2. Unique simple name within the current file's module.
	sameModule := filterByName(idx.GetByFile(ref.File), ref.Name)
	if len(sameModule) == 1 {
		return sameModule, false
	}

	// 3. Import alias rewrite: name begins with a known alias.
	if imports != nil {
		if target, rewritten := rewriteViaImport(ref.Name, imports); rewritten {
			if d, ok := idx.GetByQualifiedName(target); ok {
				return []*symbols.Definition{d}, false
			}
			if matches := idx.GetByName(simpleName(target)); len(matches) > 0 {
				return matches, len(matches) > 1
			}
		}
	}

	// 4/5. Ambiguous or globally-scattered simple name: conservative live —
	// all candidates are marked used so an unresolved ambiguity can never
	// produce a false dead-code verdict.
	if len(sameModule) > 1 {
		return sameModule, true
	}
	if matches := idx.GetByName(simpleName(ref.Name)); len(matches) > 0 {
		return matches, len(matches) > 1
	}
	return nil, false
}

func filterByName(defs []*symbols.Definition, name string) []*symbols.Definition {
	var out []*symbols.Definition
	for _, d := range defs {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// rewriteViaImport rewrites "alias.rest" into "target.rest" when alias is a
// known import in this file's ImportMap, or rewrites a bare alias name
// itself when it maps directly to a qualified definition.
func rewriteViaImport(name string, imports symbols.ImportMap) (string, bool) {
	if target, ok := imports[name]; ok {
		return target, true
	}
	if dot := strings.IndexByte(name, '.'); dot > 0 {
		alias, rest := name[:dot], name[dot+1:]
		if target, ok := imports[alias]; ok {
			return target + "." + rest, true
		}
	}
	return "", false
}

func simpleName(qualifiedOrSimple string) string {
	if dot := strings.LastIndexByte(qualifiedOrSimple, '.'); dot >= 0 {
		return qualifiedOrSimple[dot+1:]
	}
	return qualifiedOrSimple
}

// closure computes the set of qualified names reachable from roots over
// edges, via iterative BFS. Defensive against cycles (visited set).
func closure(roots map[string]bool, edges map[string][]string) map[string]bool {
	live := make(map[string]bool, len(roots))
	queue := make([]string, 0, len(roots))
	for r := range roots {
		if !live[r] {
			live[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range edges[cur] {
			if !live[next] {
				live[next] = true
				queue = append(queue, next)
			}
		}
	}
	return live
}
