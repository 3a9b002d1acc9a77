// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command skylos analyzes Python, TypeScript/JavaScript, and Go source
// trees for dead code, hardcoded secrets, dangerous patterns, and
// code-quality issues.
//
// Usage:
//
//	skylos <root>... [flags]
//
// Exit codes: 0 when no findings survive the confidence threshold, 1 when
// findings are present, 2 on usage or internal error.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skylos-dev/skylos/internal/aggregate"
	"github.com/skylos-dev/skylos/internal/session"
)

// Version is stamped at build time via -ldflags.
var Version = "0.9.0"

const (
	exitClean    = 0
	exitFindings = 1
	exitError    = 2
)

var flags struct {
	jsonOutput   bool
	confidence   int
	secrets      bool
	danger       bool
	quality      bool
	deadCode     bool
	exclude      []string
	includeTests bool
	diagnostics  bool
	goEngine     string
	searchLimit  int
}

func main() {
	os.Exit(run())
}

func run() int {
	var exitCode = exitClean

	rootCmd := &cobra.Command{
		Use:           "skylos <root>...",
		Short:         "Multi-language dead code and static analysis",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runAnalysis(cmd.Context(), args)
			exitCode = code
			return err
		},
	}

	rootCmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "emit the JSON report instead of text")
	rootCmd.Flags().IntVar(&flags.confidence, "confidence", aggregate.DefaultConfidenceThreshold, "dead-code confidence threshold (0-100)")
	rootCmd.Flags().BoolVar(&flags.secrets, "secrets", true, "run the hardcoded-secret detector")
	rootCmd.Flags().BoolVar(&flags.danger, "danger", true, "run the dangerous-pattern detectors")
	rootCmd.Flags().BoolVar(&flags.quality, "quality", true, "run the quality/complexity detectors")
	rootCmd.Flags().BoolVar(&flags.deadCode, "dead-code", true, "run dead-code detection")
	rootCmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "path globs to skip during discovery")
	rootCmd.Flags().BoolVar(&flags.includeTests, "include-tests", true, "analyze test files (discounted)")
	rootCmd.Flags().BoolVar(&flags.diagnostics, "diagnostics", false, "include parse/engine diagnostics in the report")
	rootCmd.Flags().StringVar(&flags.goEngine, "go-engine", "", "path to the skylos-go engine binary")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the skylos version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("skylos %s\n", Version)
		},
	})
	searchCmd := &cobra.Command{
		Use:           "search <query> <root>...",
		Short:         "Fuzzy-search analyzed symbols by name",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0], args[1:])
		},
	}
	searchCmd.Flags().IntVar(&flags.searchLimit, "limit", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
	rootCmd.SetVersionTemplate("skylos {{.Version}}\n")
	rootCmd.Version = Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "skylos: %v\n", err)
		return exitError
	}
	return exitCode
}

func runAnalysis(ctx context.Context, roots []string) (int, error) {
	if flags.confidence < 0 || flags.confidence > 100 {
		return exitError, fmt.Errorf("--confidence must be between 0 and 100, got %d", flags.confidence)
	}

	cfg := session.DefaultConfig()
	cfg.Roots = roots
	cfg.Exclude = flags.exclude
	cfg.Threshold = flags.confidence
	cfg.IncludeTests = flags.includeTests
	cfg.DeadCode = flags.deadCode
	cfg.Secrets = flags.secrets
	cfg.Danger = flags.danger
	cfg.Quality = flags.quality
	cfg.Logic = flags.danger || flags.quality
	cfg.Perf = flags.quality
	cfg.GoEngineBinary = flags.goEngine
	cfg.Version = Version
	cfg.IncludeDiagnostics = flags.diagnostics

	report, err := session.New(cfg).Run(ctx)
	if err != nil {
		// ConfigError (bad root) and total failures both exit 2.
		return exitError, err
	}

	if flags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return exitError, err
		}
	} else {
		renderText(report)
	}

	if len(report.Findings) > 0 {
		return exitFindings, nil
	}
	return exitClean, nil
}

// runSearch collects symbols from the given roots (detectors off, this is
// a lookup, not an audit) and fuzzy-searches the session's symbol index.
func runSearch(ctx context.Context, query string, roots []string) error {
	cfg := session.DefaultConfig()
	cfg.Roots = roots
	cfg.DeadCode = false
	cfg.Secrets = false
	cfg.Danger = false
	cfg.Logic = false
	cfg.Quality = false
	cfg.Perf = false
	cfg.Version = Version

	s := session.New(cfg)
	if _, err := s.Run(ctx); err != nil {
		return err
	}

	idx := s.Index()
	results, err := idx.Search(ctx, query, flags.searchLimit)
	if err != nil {
		return err
	}
	stats := idx.Stats()
	if len(results) == 0 {
		fmt.Printf("No symbols matching %q (%d indexed).\n", query, stats.TotalSymbols)
		return nil
	}
	for _, d := range results {
		fmt.Printf("%-10s %-40s %s:%d\n", d.Kind, d.QualifiedName, d.File, d.StartLine)
	}
	fmt.Printf("\n%d of %d indexed symbols matched.\n", len(results), stats.TotalSymbols)
	return nil
}

// renderText prints the human-readable report: findings grouped in their
// sorted order, then the unused-symbol summary.
func renderText(report *aggregate.Report) {
	if len(report.Findings) == 0 {
		fmt.Println("No findings.")
	}
	for _, f := range report.Findings {
		loc := fmt.Sprintf("%s:%d", f.File, f.Line)
		if f.Col > 0 {
			loc = fmt.Sprintf("%s:%d", loc, f.Col)
		}
		fmt.Printf("%-8s %-12s %s  %s\n", f.Severity, f.RuleID, loc, f.Message)
	}

	printList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("\n%s (%d):\n", label, len(items))
		for _, item := range items {
			fmt.Printf("  %s\n", item)
		}
	}
	printList("Unused functions", report.UnusedFunctions)
	printList("Unused classes", report.UnusedClasses)
	printList("Unused variables", report.UnusedVariables)

	for _, d := range report.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s %s: %s\n", d.Kind, d.File, d.Message)
	}
}
