// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session owns one analyzer invocation end to end: discovery,
// the parallel per-file collection phase, the single-threaded
// resolve-and-score phase after the join, and final aggregation
//.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/skylos-dev/skylos/internal/aggregate"
	"github.com/skylos-dev/skylos/internal/confidence"
	"github.com/skylos-dev/skylos/internal/goengine"
	"github.com/skylos-dev/skylos/internal/heuristics"
	"github.com/skylos-dev/skylos/internal/index"
	"github.com/skylos-dev/skylos/internal/loader"
	"github.com/skylos-dev/skylos/internal/parser"
	"github.com/skylos-dev/skylos/internal/pragma"
	"github.com/skylos-dev/skylos/internal/resolve"
	"github.com/skylos-dev/skylos/internal/rules"
	"github.com/skylos-dev/skylos/internal/symbols"
)

var tracer = otel.Tracer("github.com/skylos-dev/skylos/internal/session")

// IgnoreFileName is the per-root baseline file consulted before
// confidence filtering.
const IgnoreFileName = ".skylosignore"

// Config is one invocation's settings, populated by the CLI front end.
type Config struct {
	Roots     []string
	Exclude   []string
	Threshold int

	IncludeTests bool

	DeadCode bool
	Secrets  bool
	Danger   bool
	Logic    bool
	Quality  bool
	Perf     bool

	// GoEngineBinary overrides the skylos-go executable; empty means PATH
	// lookup of the default name.
	GoEngineBinary string

	Version            string
	IncludeDiagnostics bool
	Workers            int
	Logger             *slog.Logger
}

// DefaultConfig returns a Config with every detector family enabled and
// the documented defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:    aggregate.DefaultConfidenceThreshold,
		IncludeTests: true,
		DeadCode:     true,
		Secrets:      true,
		Danger:       true,
		Logic:        true,
		Quality:      true,
		Perf:         true,
	}
}

// Session carries the state of one run and is discarded afterward.
type Session struct {
	cfg    Config
	logger *slog.Logger
	idx    *index.SymbolIndex

	files map[string]*symbols.File

	diagMu      sync.Mutex
	diagnostics []aggregate.Diagnostic
}

// New creates a Session. Root validation happens in Run, where a missing
// root surfaces as loader.ErrRootNotFound.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = aggregate.DefaultConfidenceThreshold
	}
	return &Session{
		cfg:    cfg,
		logger: logger,
		idx:    index.NewSymbolIndex(),
		files:  make(map[string]*symbols.File),
	}
}

// Index exposes the populated symbol table for tooling (fuzzy search over
// analyzed symbols) after Run completes.
func (s *Session) Index() *index.SymbolIndex { return s.idx }

// Diagnostics returns the non-fatal problems collected during Run.
func (s *Session) Diagnostics() []aggregate.Diagnostic { return s.diagnostics }

// fileResult is one worker's per-file output slot. Slots are written by
// exactly one goroutine and read only after the join.
type fileResult struct {
	file     *symbols.File
	col      *parser.Collection
	findings []symbols.Finding
}

// Run executes the full pipeline and returns the final report. Only a
// total failure (bad root, cancellation) returns an error; per-file and
// per-engine problems degrade to diagnostics.
func (s *Session) Run(ctx context.Context) (*aggregate.Report, error) {
	ctx, span := tracer.Start(ctx, "session.Run")
	defer span.End()

	files, err := s.discover()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	results, engineResults := s.collect(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	report := s.resolveAndScore(results, engineResults)
	return report, nil
}

// discover walks every configured root, applies pragma scanning, and
// registers files keyed by path.
func (s *Session) discover() ([]*symbols.File, error) {
	var all []*symbols.File
	for _, root := range s.cfg.Roots {
		l, err := loader.New(root, loader.Options{
			Exclude:      s.cfg.Exclude,
			IncludeTests: s.cfg.IncludeTests,
			Logger:       s.logger,
		})
		if err != nil {
			return nil, err
		}
		files, err := l.Load()
		if err != nil {
			return nil, err
		}
		for _, w := range l.Warnings() {
			s.diagnostics = append(s.diagnostics, aggregate.Diagnostic{
				Kind: "LoadWarning", File: w.Path, Message: w.Message,
			})
		}
		for _, f := range files {
			f.Ignored = pragma.Scan(f.SourceLines)
			s.files[f.Path] = f
			all = append(all, f)
		}
	}
	return all, nil
}

// collect runs the parallel per-file phase: parsing, symbol collection,
// and rule detection for each non-Go file on a bounded worker pool, plus
// one external-engine invocation per root containing Go sources.
func (s *Session) collect(ctx context.Context, files []*symbols.File) ([]*fileResult, []*goengine.Result) {
	results := make([]*fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, file := range files {
		if file.Language == symbols.LanguageGo {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = s.collectFile(gctx, file)
			return nil
		})
	}

	var engineResults []*goengine.Result
	if s.hasGoFiles(files) {
		engineResults = s.runGoEngine(ctx)
	}

	// Workers never return errors; the group exists for the limit and the
	// shared cancellation context.
	_ = g.Wait()
	return results, engineResults
}

func (s *Session) hasGoFiles(files []*symbols.File) bool {
	for _, f := range files {
		if f.Language == symbols.LanguageGo {
			return true
		}
	}
	return false
}

func (s *Session) collectFile(ctx context.Context, file *symbols.File) *fileResult {
	collector, err := parser.ForLanguage(file.Language)
	if err != nil {
		s.addDiagnostic("ParseError", file.Path, err.Error())
		return &fileResult{file: file}
	}
	content := []byte(strings.Join(file.SourceLines, "\n"))
	col, err := collector.Collect(ctx, file, content)
	if err != nil {
		// ParseError: the file contributes nothing to the symbol table
		//, and the run continues.
		s.addDiagnostic("ParseError", file.Path, err.Error())
		s.logger.Warn("parse failed", slog.String("file", file.Path), slog.String("error", err.Error()))
		return &fileResult{file: file}
	}
	for _, msg := range col.Errors {
		s.addDiagnostic("ParseError", file.Path, msg)
	}

	res := &fileResult{file: file, col: col}
	if s.cfg.Secrets {
		res.findings = append(res.findings, rules.NewSecretsDetector().Scan(col.StringLiterals)...)
	}
	if s.cfg.Danger {
		res.findings = append(res.findings, rules.NewDangerDetector().Scan(col.CallSites)...)
	}
	if s.cfg.Logic {
		res.findings = append(res.findings, rules.NewLogicDetector().Scan(col.Metrics)...)
	}
	if s.cfg.Quality {
		res.findings = append(res.findings, rules.NewQualityDetector().Scan(col.Metrics)...)
	}
	if s.cfg.Perf {
		res.findings = append(res.findings, rules.NewPerfDetector().Scan(col.CallSites, col.Metrics)...)
	}
	return res
}

// runGoEngine invokes the external engine once per configured root. An
// EngineError omits Go findings for that root with a warning.
func (s *Session) runGoEngine(ctx context.Context) []*goengine.Result {
	opts := []goengine.Option{goengine.WithLogger(s.logger)}
	if s.cfg.GoEngineBinary != "" {
		opts = append(opts, goengine.WithBinary(s.cfg.GoEngineBinary))
	}
	client := goengine.NewClient(s.cfg.Version, opts...)

	var out []*goengine.Result
	for _, root := range s.cfg.Roots {
		res, err := client.Analyze(ctx, root)
		if err != nil {
			s.addDiagnostic("EngineError", root, err.Error())
			continue
		}
		out = append(out, res)
	}
	return out
}

// addDiagnostic records a non-fatal problem. Workers in the parallel
// phase call this concurrently, hence the mutex.
func (s *Session) addDiagnostic(kind, file, message string) {
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	s.diagnostics = append(s.diagnostics, aggregate.Diagnostic{Kind: kind, File: file, Message: message})
}

// resolveAndScore is the single-threaded phase after the join: merge the
// per-file collections, apply heuristics, resolve references, score dead
// candidates, and aggregate.
func (s *Session) resolveAndScore(results []*fileResult, engineResults []*goengine.Result) *aggregate.Report {
	var (
		defs       []*symbols.Definition
		refs       []*symbols.Reference
		callPairs  []*symbols.CallPair
		findings   []symbols.Finding
		importMaps = make(map[string]symbols.ImportMap)
		mainEntry  = make(map[string][]string)
		dynamic    = make(map[string]bool)
	)

	for _, res := range results {
		if res == nil || res.col == nil {
			if res != nil {
				findings = append(findings, res.findings...)
			}
			continue
		}
		col := res.col
		s.applyExports(res.file, col)
		defs = append(defs, col.Definitions...)
		refs = append(refs, col.References...)
		callPairs = append(callPairs, col.CallPairs...)
		findings = append(findings, res.findings...)
		if len(col.Imports) > 0 {
			importMaps[res.file.Path] = col.Imports
		}
		if len(col.MainEntryCalls) > 0 {
			mainEntry[res.file.Path] = col.MainEntryCalls
		}
		for _, name := range col.DynamicNames {
			dynamic[name] = true
		}
	}
	for _, res := range engineResults {
		defs = append(defs, res.Definitions...)
		refs = append(refs, res.References...)
		callPairs = append(callPairs, res.CallPairs...)
		findings = append(findings, res.Findings...)
	}

	if err := s.idx.AddBatch(defs); err != nil {
		// AddBatch is all-or-nothing; on duplicates fall back to indexing
		// the valid definitions one by one and record the rest.
		s.addDiagnostic("ParseError", "", err.Error())
		for _, d := range defs {
			_ = s.idx.Add(d)
		}
	}

	heur, err := heuristics.Apply(heuristics.Options{IncludeTests: s.cfg.IncludeTests}, defs, s.files, mainEntry)
	if err != nil {
		s.addDiagnostic("ConfigError", "", err.Error())
		heur = heuristics.Result{RootSet: map[string]bool{}, Boosters: map[string]int{}}
	}
	refs = append(refs, heur.Synthetic...)

	resolved := resolve.Resolve(resolve.Input{
		Index:      s.idx,
		References: refs,
		CallPairs:  callPairs,
		ImportMaps: importMaps,
		RootSet:    heur.RootSet,
		Logger:     s.logger,
	})

	var dead []aggregate.DeadCandidate
	if s.cfg.DeadCode {
		dead = s.scoreDead(resolved, heur, dynamic)
	}

	return aggregate.Build(aggregate.Input{
		Version:            s.cfg.Version,
		Threshold:          s.cfg.Threshold,
		Findings:           findings,
		Dead:               dead,
		Files:              s.files,
		Ignore:             s.loadIgnoreRules(),
		Diagnostics:        s.diagnostics,
		IncludeDiagnostics: s.cfg.IncludeDiagnostics,
	})
}

// applyExports flips Exported on definitions named by the file's export
// hints (__all__ entries, export clauses) before heuristics run.
func (s *Session) applyExports(file *symbols.File, col *parser.Collection) {
	if len(col.Exports) == 0 {
		return
	}
	exported := make(map[string]bool, len(col.Exports))
	for _, name := range col.Exports {
		exported[name] = true
	}
	for _, def := range col.Definitions {
		if exported[def.Name] {
			def.Exported = true
		}
	}
}

// deadCandidateKinds is the fixed enumeration order for dead-code
// candidates, so output stays deterministic across runs.
var deadCandidateKinds = []symbols.Kind{
	symbols.KindFunction, symbols.KindMethod, symbols.KindClass,
	symbols.KindVariable, symbols.KindConstant, symbols.KindImport,
}

// scoreDead walks every unreachable definition in the symbol index through
// the confidence engine.
func (s *Session) scoreDead(resolved resolve.Result, heur heuristics.Result, dynamic map[string]bool) []aggregate.DeadCandidate {
	methodsByClass := make(map[string][]*symbols.Definition)
	for _, def := range s.idx.GetByKind(symbols.KindMethod) {
		if dot := strings.LastIndexByte(def.QualifiedName, '.'); dot > 0 {
			classQualified := def.QualifiedName[:dot]
			methodsByClass[classQualified] = append(methodsByClass[classQualified], def)
		}
	}

	var dead []aggregate.DeadCandidate
	for _, kind := range deadCandidateKinds {
		for _, def := range s.idx.GetByKind(kind) {
			if resolved.Live[def.QualifiedName] {
				continue
			}
			file := s.files[def.File]
			signals := confidence.Signals{
				IsPragmaIgnored:   file.IsIgnored(def.StartLine),
				IsInTestFile:      file != nil && file.IsTest,
				IsCalledAsCallee:  resolved.CalledAsCallee[def.QualifiedName],
				IsDynamicallyUsed: dynamic[def.Name],
				FrameworkBoosted:  heur.Boosters[def.QualifiedName] > 0,
				ReportedByGoEngineExportedOnly: def.Language == symbols.LanguageGo && def.Exported &&
					!resolved.CalledAsCallee[def.QualifiedName],
			}
			if def.Kind == symbols.KindClass {
				signals.IsDunderOnlyClass = confidence.DunderOnlyClass(methodsByClass[def.QualifiedName])
			}
			score := confidence.Score(def, signals)
			def.Confidence = score
			dead = append(dead, aggregate.DeadCandidate{Definition: def, Confidence: score})
		}
	}
	return dead
}

// loadIgnoreRules reads .skylosignore from each root when present.
func (s *Session) loadIgnoreRules() []aggregate.IgnoreRule {
	var out []aggregate.IgnoreRule
	for _, root := range s.cfg.Roots {
		f, err := os.Open(filepath.Join(root, IgnoreFileName))
		if err != nil {
			continue
		}
		out = append(out, aggregate.ParseIgnoreRules(f)...)
		f.Close()
	}
	return out
}
