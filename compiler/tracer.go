package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"silk/atom"
	"silk/canon"
)

// TraceFile is the name of the trace written by Flush.
const TraceFile = "compile-trace.txt"

// Tracer records compilation steps for debugging. When enabled (via non-empty
// workDir) it captures parsed trees, canonical declarations, merges and
// registered identifiers for every style object. The trace is written to the
// working directory so it gets included in the debug report archive.
type Tracer struct {
	mu       sync.Mutex
	enabled  bool
	workDir  string
	entries  []traceEntry
	sections map[string]int
}

type traceEntry struct {
	operation string
	origin    string
	details   string
}

// NewTracer creates a new tracer. If workDir is empty, tracing is disabled.
func NewTracer(workDir string) *Tracer {
	return &Tracer{
		workDir:  workDir,
		enabled:  workDir != "",
		sections: make(map[string]int),
	}
}

// IsEnabled returns true if tracing is active.
func (t *Tracer) IsEnabled() bool {
	if t == nil {
		return false
	}
	return t.enabled
}

func (t *Tracer) add(section, operation, origin, details string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, traceEntry{operation: operation, origin: origin, details: details})
	t.sections[section]++
}

// TraceParse logs parsed style tree.
func (t *Tracer) TraceParse(origin, dump string) {
	if !t.IsEnabled() {
		return
	}
	t.add("parsed", "PARSE", origin, strings.TrimRight(dump, "\n"))
}

// TraceCanonical logs canonical declarations and diagnostics.
func (t *Tracer) TraceCanonical(origin string, decls []canon.Declaration, diags []canon.Diagnostic) {
	if !t.IsEnabled() {
		return
	}
	var details strings.Builder
	details.WriteString(formatDeclarations(decls))
	for _, d := range diags {
		details.WriteString("\n! " + d.String())
	}
	t.add("canonicalized", "CANON", origin, details.String())
}

// TraceOptimize logs result of shorthand merging.
func (t *Tracer) TraceOptimize(origin string, before int, decls []canon.Declaration) {
	if !t.IsEnabled() {
		return
	}
	if before == len(decls) {
		t.add("optimized", "OPTIMIZE", origin, "(unchanged)")
		return
	}
	details := fmt.Sprintf("%d -> %d declarations\n%s", before, len(decls), formatDeclarations(decls))
	t.add("optimized", "OPTIMIZE", origin, details)
}

// TraceRegister logs identifiers assigned to style object.
func (t *Tracer) TraceRegister(origin string, ids []atom.Identifier) {
	if !t.IsEnabled() {
		return
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, string(id))
	}
	t.add("registered", "REGISTER", origin, strings.Join(parts, " "))
}

// TraceMerge logs merging of unit registry into the shared one.
func (t *Tracer) TraceMerge(unit string, stats atom.Stats) {
	if !t.IsEnabled() {
		return
	}
	t.add("merged", "MERGE", unit, stats.String())
}

// Flush writes trace to file in working directory and clears it. Returns path
// of written file or empty string if nothing was written.
func (t *Tracer) Flush() string {
	if !t.IsEnabled() {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("=== Style Compilation Trace ===\n\n")

	sb.WriteString("Summary:\n")
	sections := make([]string, 0, len(t.sections))
	for section := range t.sections {
		sections = append(sections, section)
	}
	slices.Sort(sections)
	for _, section := range sections {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", section, t.sections[section]))
	}
	sb.WriteString("\n")

	sb.WriteString("Detailed Trace:\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for i, entry := range t.entries {
		sb.WriteString(fmt.Sprintf("[%04d] %s: %s\n", i+1, entry.operation, entry.origin))
		if entry.details != "" {
			for line := range strings.SplitSeq(entry.details, "\n") {
				sb.WriteString("       " + line + "\n")
			}
		}
		sb.WriteString("\n")
	}

	tracePath := filepath.Join(t.workDir, TraceFile)
	if err := os.WriteFile(tracePath, []byte(sb.String()), 0644); err != nil {
		return ""
	}

	t.entries = nil
	t.sections = make(map[string]int)

	return tracePath
}

func formatDeclarations(decls []canon.Declaration) string {
	if len(decls) == 0 {
		return "(no declarations)"
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n")
}
