// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loader discovers source files under a root, classifies them by
// language and test-vs-production status, and reads them into immutable
// symbols.File records.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// ErrRootNotFound is a ConfigError: the analysis root does not exist.
var ErrRootNotFound = errors.New("analysis root not found")

// DefaultExcludeDirs lists directory basenames skipped during discovery:
// version-control metadata, dependency vendoring, build output, and
// caches never contain project source worth analyzing.
var DefaultExcludeDirs = map[string]bool{
	".git":         true,
	"venv":         true,
	".venv":        true,
	"build":        true,
	"dist":         true,
	"__pycache__":  true,
	"node_modules": true,
	"vendor":       true,
	"testdata":     true,
	".github":      true,
}

// languageByExt maps a recognized extension to its Language and whether
// the Go external engine (rather than an in-process parser) handles it.
var languageByExt = map[string]symbols.Language{
	".py":  symbols.LanguagePython,
	".pyi": symbols.LanguagePython,
	".js":  symbols.LanguageJavaScript,
	".jsx": symbols.LanguageJavaScript,
	".mjs": symbols.LanguageJavaScript,
	".cjs": symbols.LanguageJavaScript,
	".ts":  symbols.LanguageTypeScript,
	".tsx": symbols.LanguageTypeScript,
	".go":  symbols.LanguageGo,
}

// Options configures a discovery walk.
type Options struct {
	// Exclude lists additional glob patterns (matched against the path
	// relative to Root) to skip, layered on top of DefaultExcludeDirs.
	Exclude []string

	// IncludeTests controls whether test files are loaded at all. When
	// false, test files are skipped entirely during discovery; when true
	// (default), they are loaded and marked IsTest for downstream discount.
	IncludeTests bool

	// Logger overrides the package default slog logger.
	Logger *slog.Logger
}

// Warning describes a non-fatal problem encountered while loading a file.
type Warning struct {
	Path    string
	Message string
}

// Loader walks a root directory and produces File records.
type Loader struct {
	root     string
	opts     Options
	logger   *slog.Logger
	warnings []Warning
}

// New creates a Loader rooted at root. Root must exist and be a directory;
// discovery itself happens in Load, not here, so construction never fails
// on a transient filesystem race.
func New(root string, opts Options) (*Loader, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	return &Loader{root: absRoot, opts: opts, logger: logger}, nil
}

// Warnings returns the warnings accumulated by the most recent Load call.
func (l *Loader) Warnings() []Warning { return l.warnings }

// Load walks the root and returns one File per recognized source file.
// Unreadable files are skipped with a warning rather than aborting the
// run.
func (l *Loader) Load() ([]*symbols.File, error) {
	var files []*symbols.File
	l.warnings = nil

	err := filepath.WalkDir(l.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			l.warnings = append(l.warnings, Warning{Path: path, Message: err.Error()})
			return nil
		}
		rel, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if l.shouldSkipDir(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		if l.isExcluded(rel) {
			return nil
		}

		isTest := IsTestFile(path)
		if isTest && !l.opts.IncludeTests {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			l.warnings = append(l.warnings, Warning{Path: rel, Message: readErr.Error()})
			l.logger.Warn("skipping unreadable file", slog.String("path", rel), slog.String("error", readErr.Error()))
			return nil
		}

		files = append(files, &symbols.File{
			Path:        rel,
			Language:    lang,
			IsTest:      isTest,
			SourceLines: splitLines(content),
			ModuleName:  moduleName(rel, lang),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", l.root, err)
	}
	return files, nil
}

// shouldSkipDir reports whether a directory should be pruned entirely: the
// default exclusion set, any dotdir other than the root itself, or an
// explicit --exclude match.
func (l *Loader) shouldSkipDir(rel, base string) bool {
	if rel == "." {
		return false
	}
	if DefaultExcludeDirs[base] {
		return true
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	return l.isExcluded(rel)
}

// isExcluded matches rel (slash-separated, root-relative) against the
// configured --exclude patterns using shell globbing per path segment.
func (l *Loader) isExcluded(rel string) bool {
	for _, pattern := range l.opts.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if strings.Contains(rel, pattern) {
			return true
		}
	}
	return false
}

// IsTestFile reports whether path is conventionally a test file:
// basenames starting with test_ or ending with _test across the four
// languages, plus the JS/TS *.test.*/*.spec.* double-extension convention.
// Deliberately filename-based only; directory names like tests/ are too
// ambiguous to classify on.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	nameNoExt := strings.TrimSuffix(base, ext)
	lowerName := strings.ToLower(nameNoExt)

	switch ext {
	case ".go":
		return strings.HasSuffix(nameNoExt, "_test")
	case ".py", ".pyi":
		return strings.HasPrefix(lowerName, "test_") || strings.HasSuffix(lowerName, "_test")
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		if strings.HasPrefix(lowerName, "test_") || strings.HasSuffix(lowerName, "_test") {
			return true
		}
		return strings.Contains(nameNoExt, ".test") || strings.Contains(nameNoExt, ".spec")
	default:
		return false
	}
}

// moduleName derives a dotted module path from a root-relative file path,
// Python-import style: "pkg/sub/mod.py" -> "pkg.sub.mod", with __init__
// collapsing to its containing package per Python convention.
func moduleName(rel string, lang symbols.Language) string {
	noExt := strings.TrimSuffix(rel, filepath.Ext(rel))
	if lang == symbols.LanguagePython && strings.HasSuffix(noExt, "/__init__") {
		noExt = strings.TrimSuffix(noExt, "/__init__")
	}
	return strings.ReplaceAll(noExt, "/", ".")
}

// splitLines splits content into lines without the trailing line
// terminator, preserving a final empty-line-free slice the way most
// editors and line-number-based tools expect.
func splitLines(content []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
