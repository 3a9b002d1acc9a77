// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"strings"

	"github.com/skylos-dev/skylos/internal/symbols"
)

// dangerRule is one SKY-D pattern: a set of sink callee suffixes, the
// taint condition, and the finding shape to emit when it fires.
type dangerRule struct {
	id           string
	severity     symbols.Severity
	confidence   int
	message      string
	sinks        []string // matched as exact callee or dotted suffix
	requireTaint bool     // fire only when the flagged argument is tainted
	flagLiterals []string // fire when any argument's text contains one of these
}

// dangerRules implements the taint-lite D2xx family: the
// sink lists cover the Python and JS/TS call spellings; Go sinks arrive
// pre-analyzed from the external engine and are remapped, not re-detected.
var dangerRules = []dangerRule{
	{
		id: "SKY-D201", severity: symbols.SeverityCritical, confidence: 90,
		message:      "dynamic code execution with non-literal input",
		sinks:        []string{"eval", "exec", "compile", "Function"},
		requireTaint: true,
	},
	{
		id: "SKY-D202", severity: symbols.SeverityCritical, confidence: 90,
		message: "command execution with non-literal input",
		sinks: []string{
			"os.system", "os.popen", "subprocess.call", "subprocess.run",
			"subprocess.Popen", "subprocess.check_output",
			"child_process.exec", "child_process.execSync", "child_process.spawn",
		},
		requireTaint: true,
	},
	{
		id: "SKY-D207", severity: symbols.SeverityMedium, confidence: 85,
		message: "weak cryptographic hash",
		sinks:   []string{"hashlib.md5", "hashlib.sha1", "crypto.createHash"},
	},
	{
		id: "SKY-D210", severity: symbols.SeverityHigh, confidence: 90,
		message:      "TLS certificate verification disabled",
		flagLiterals: []string{"verify=False", "rejectUnauthorized:false", "InsecureSkipVerify:true"},
	},
	{
		id: "SKY-D211", severity: symbols.SeverityCritical, confidence: 95,
		message: "SQL query built from non-literal input",
		sinks: []string{
			"execute", "executemany", "executescript",
			"db.query", "db.Query", "db.Exec", "connection.query", "pool.query",
			"session.execute", "raw",
		},
		requireTaint: true,
	},
	{
		id: "SKY-D212", severity: symbols.SeverityHigh, confidence: 85,
		message: "unsafe deserialization of untrusted data",
		sinks: []string{
			"pickle.loads", "pickle.load", "marshal.loads", "yaml.load",
			"shelve.open",
		},
		requireTaint: true,
	},
	{
		id: "SKY-D215", severity: symbols.SeverityHigh, confidence: 80,
		message: "filesystem path built from non-literal input",
		sinks: []string{
			"open", "os.remove", "os.unlink", "shutil.rmtree",
			"fs.readFile", "fs.readFileSync", "fs.writeFile", "fs.unlink",
		},
		requireTaint: true,
	},
	{
		id: "SKY-D216", severity: symbols.SeverityHigh, confidence: 80,
		message: "outbound request with non-literal URL",
		sinks: []string{
			"requests.get", "requests.post", "requests.put", "requests.delete",
			"requests.request", "urllib.request.urlopen", "urlopen",
			"fetch", "axios.get", "axios.post", "http.get", "https.get",
		},
		requireTaint: true,
	},
}

// DangerDetector implements the SKY-D family over collected call sites.
type DangerDetector struct {
	rules []dangerRule
}

// NewDangerDetector builds a detector with the built-in rule table.
func NewDangerDetector() *DangerDetector {
	return &DangerDetector{rules: dangerRules}
}

// Scan evaluates every call site against the rule table. A rule with
// requireTaint fires only when the first matching argument is tainted
// (variable, concat, or format); literal-only calls are safe by the
// taint-lite contract.
func (d *DangerDetector) Scan(sites []symbols.CallSite) []symbols.Finding {
	var findings []symbols.Finding
	for _, site := range sites {
		for _, rule := range d.rules {
			if f, ok := rule.apply(site); ok {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

func (r *dangerRule) apply(site symbols.CallSite) (symbols.Finding, bool) {
	if len(r.flagLiterals) > 0 {
		for _, arg := range site.Args {
			for _, flag := range r.flagLiterals {
				if strings.Contains(arg.Value, flag) {
					return r.finding(site), true
				}
			}
		}
		return symbols.Finding{}, false
	}

	if !calleeMatches(site.Callee, r.sinks) {
		return symbols.Finding{}, false
	}
	if !r.requireTaint {
		return r.finding(site), true
	}
	for _, arg := range site.Args {
		if arg.Kind == symbols.ArgTainted {
			return r.finding(site), true
		}
	}
	return symbols.Finding{}, false
}

func (r *dangerRule) finding(site symbols.CallSite) symbols.Finding {
	return symbols.Finding{
		RuleID:     r.id,
		Severity:   r.severity,
		Confidence: r.confidence,
		Message:    r.message + ": " + site.Callee,
		File:       site.File,
		Line:       site.Line,
		Col:        site.Col,
	}
}

// calleeMatches reports whether callee equals a sink or ends with
// ".<sink>" (so cursor.execute matches the execute sink and
// client.requests.get does not falsely match get).
func calleeMatches(callee string, sinks []string) bool {
	for _, sink := range sinks {
		if callee == sink {
			return true
		}
		if strings.HasSuffix(callee, "."+sink) {
			return true
		}
	}
	return false
}
