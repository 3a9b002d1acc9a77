// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser wraps the per-language tree-sitter grammars behind a
// uniform Collector and performs the single symbol-collection AST walk per
// file: definitions, references, call pairs, import maps, and the raw
// material the rule detectors consume (string literals, call sites,
// function metrics).
package parser

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// Errors a Collect call can return. A syntax error inside the file is NOT
// one of these: tree-sitter is error-tolerant and partial results are the
// contract.
var (
	ErrFileTooLarge    = errors.New("file exceeds maximum parse size")
	ErrInvalidContent  = errors.New("content is not valid UTF-8")
	ErrUnsupportedLang = errors.New("no collector for language")
)

// DefaultMaxFileSize bounds what a single Collect call will parse.
const DefaultMaxFileSize = int64(10 * 1024 * 1024)

// Collection is the complete per-file output of one collection walk. All
// slices are append-only during the walk and never mutated afterward; the
// session merges Collections from the parallel phase into the global
// symbol table after the join.
type Collection struct {
	Definitions []*symbols.Definition
	References  []*symbols.Reference
	CallPairs   []*symbols.CallPair
	Imports     symbols.ImportMap

	// Exports holds names the file explicitly exports: __all__ entries in
	// Python, `export` declarations in TS/JS. The session flips Exported
	// on the matching Definitions after the join.
	Exports []string

	// DynamicNames holds string literals that name symbols accessed
	// dynamically (getattr/globals arguments, __all__ entries); the
	// confidence engine applies its dynamic-access penalty from this set.
	DynamicNames []string

	// MainEntryCalls holds the simple call names found directly inside an
	// entry-point guard (`if __name__ == "__main__"` or the Node
	// `require.main === module` equivalent).
	MainEntryCalls []string

	StringLiterals []symbols.StringLiteral
	CallSites      []symbols.CallSite
	Metrics        []symbols.FunctionMetrics

	// Errors carries non-fatal walk diagnostics (syntax errors found by
	// tree-sitter); the file still contributes whatever was collectable.
	Errors []string
}

// Collector is one language's symbol-collection adapter.
type Collector interface {
	// Collect parses content and performs the full single-pass collection
	// walk for file. Partial results with Collection.Errors set are normal
	// for syntactically invalid sources.
	Collect(ctx context.Context, file *symbols.File, content []byte) (*Collection, error)

	// Language returns the language this collector handles.
	Language() symbols.Language
}

// ForLanguage returns the in-process collector for lang, or
// ErrUnsupportedLang. Go sources have no in-process collector: they are
// delegated to the external engine.
func ForLanguage(lang symbols.Language) (Collector, error) {
	switch lang {
	case symbols.LanguagePython:
		return NewPythonCollector(), nil
	case symbols.LanguageJavaScript, symbols.LanguageTypeScript:
		return NewEcmaCollector(lang), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLang, lang)
	}
}

// parseTree runs tree-sitter over content with the given grammar, applying
// the shared size and encoding guards. Caller must Close the returned tree.
func parseTree(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	if int64(len(content)) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidContent
	}
	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

// nodeText returns the source text covered by node.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// nodeLine returns the 1-indexed start line of node.
func nodeLine(node *sitter.Node) int { return int(node.StartPoint().Row) + 1 }

// nodeEndLine returns the 1-indexed end line of node.
func nodeEndLine(node *sitter.Node) int { return int(node.EndPoint().Row) + 1 }

// nodeCol returns the 0-indexed start column of node.
func nodeCol(node *sitter.Node) int { return int(node.StartPoint().Column) }
