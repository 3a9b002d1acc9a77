// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package goengine is the client side of the external Go analysis engine
// contract: it shells out to the skylos-go binary, decodes its
// JSON, converts its symbol records into this module's model, and remaps
// G-prefixed rule IDs into the unified SKY-D namespace.
package goengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skylos-dev/skylos/internal/rules"
	"github.com/skylos-dev/skylos/internal/symbols"
)

// ErrEngineFailed wraps any subprocess or decode failure; callers treat it
// as an EngineError: the Go language is omitted from the run
// with a warning, never a fatal abort.
var ErrEngineFailed = errors.New("go engine failed")

// DefaultBinary is the engine executable resolved from PATH when no
// explicit path is configured.
const DefaultBinary = "skylos-go"

// EngineOutput is the engine's stdout JSON shape.
type EngineOutput struct {
	Engine   string     `json:"engine"`
	Version  string     `json:"version"`
	Findings []Finding  `json:"findings"`
	Symbols  *SymbolSet `json:"symbols"`
}

// Finding is one rule hit as the engine reports it, before remapping.
type Finding struct {
	RuleID     string `json:"rule_id"`
	Severity   string `json:"severity"`
	Confidence int    `json:"confidence"`
	Message    string `json:"message"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Symbol     string `json:"symbol,omitempty"`
}

// SymbolSet carries the engine's pre-computed defs/refs/call-pairs.
type SymbolSet struct {
	Defs      []Def      `json:"defs"`
	Refs      []Ref      `json:"refs"`
	CallPairs []CallPair `json:"call_pairs"`
}

// Def mirrors the engine's symbol definition record.
type Def struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	IsExported bool   `json:"is_exported"`
	Receiver   string `json:"receiver,omitempty"`
}

// Ref mirrors the engine's reference record.
type Ref struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// CallPair mirrors the engine's caller/callee record.
type CallPair struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// Result is the converted engine output: findings already remapped, and
// symbols in this module's shared model.
type Result struct {
	Findings    []symbols.Finding
	Definitions []*symbols.Definition
	References  []*symbols.Reference
	CallPairs   []*symbols.CallPair
}

// Client invokes the engine binary per Go module root.
type Client struct {
	binary  string
	version string
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the engine executable path.
func WithBinary(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds an engine client. version is the orchestrating skylos
// version forwarded to the engine via --skylos-version.
func NewClient(version string, opts ...Option) *Client {
	c := &Client{
		binary:  DefaultBinary,
		version: version,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze runs the engine against root and converts its output. The
// subprocess inherits ctx, so tripping the session's cancellation token
// kills the child.
func (c *Client) Analyze(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	cmd := exec.CommandContext(ctx, c.binary,
		"analyze",
		"--root", absRoot,
		"--format", "json",
		"--skylos-version", c.version,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.logger.Warn("go engine invocation failed",
			slog.String("binary", c.binary),
			slog.String("root", absRoot),
			slog.String("stderr", strings.TrimSpace(stderr.String())),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		c.logger.Warn("go engine warnings", slog.String("stderr", msg))
	}

	var out EngineOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON output: %v", ErrEngineFailed, err)
	}
	return Convert(&out), nil
}

// Convert maps the engine's JSON records into the shared model, applying
// the rule remap table and the Go package/qualified-name conventions.
func Convert(out *EngineOutput) *Result {
	res := &Result{}

	for _, f := range out.Findings {
		res.Findings = append(res.Findings, symbols.Finding{
			RuleID:     rules.RemapGoRuleID(f.RuleID),
			Severity:   symbols.Severity(strings.ToUpper(f.Severity)),
			Confidence: f.Confidence,
			Message:    f.Message,
			File:       f.File,
			Line:       f.Line,
			Col:        f.Col,
			Symbol:     f.Symbol,
		})
	}

	if out.Symbols == nil {
		return res
	}
	for _, d := range out.Symbols.Defs {
		res.Definitions = append(res.Definitions, convertDef(d))
	}
	for _, r := range out.Symbols.Refs {
		res.References = append(res.References, &symbols.Reference{
			Name: r.Name,
			File: r.File,
		})
	}
	for _, cp := range out.Symbols.CallPairs {
		res.CallPairs = append(res.CallPairs, &symbols.CallPair{
			CallerQualified: cp.Caller,
			CalleeQualified: cp.Callee,
		})
	}
	return res
}

// convertDef maps an engine Def onto a Definition. The engine's Name is
// already package-qualified for functions ("pkg.Fn") and receiver-scoped
// for methods; when it is not, the package is derived from the file path.
func convertDef(d Def) *symbols.Definition {
	qualified := d.Name
	pkg := ""
	if dot := strings.IndexByte(d.Name, '.'); dot > 0 {
		pkg = d.Name[:dot]
	} else {
		pkg = goPackageFromPath(d.File)
		if pkg != "" {
			qualified = pkg + "." + d.Name
		}
	}
	simple := d.Name
	if dot := strings.LastIndexByte(simple, '.'); dot >= 0 {
		simple = simple[dot+1:]
	}
	return &symbols.Definition{
		QualifiedName: qualified,
		Name:          simple,
		Kind:          kindFromEngineType(d.Type),
		File:          d.File,
		StartLine:     d.Line,
		EndLine:       d.Line,
		Receiver:      d.Receiver,
		Exported:      d.IsExported,
		Language:      symbols.LanguageGo,
		Package:       pkg,
	}
}

func kindFromEngineType(t string) symbols.Kind {
	switch t {
	case "function":
		return symbols.KindFunction
	case "method":
		return symbols.KindMethod
	case "type":
		return symbols.KindClass
	case "constant":
		return symbols.KindConstant
	case "variable":
		return symbols.KindVariable
	default:
		return symbols.KindVariable
	}
}

// goPackageFromPath guesses the package name from the file's directory,
// which matches Go convention for everything except intentionally
// mismatched package clauses.
func goPackageFromPath(file string) string {
	dir := filepath.Base(filepath.Dir(file))
	if dir == "." || dir == "/" {
		return "main"
	}
	return dir
}
