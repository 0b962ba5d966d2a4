// Package patch applies small textual corrections to a source tree.
//
// Rules are written so that applying them is idempotent: a replacement is
// skipped when its old text is gone (fixed upstream) or its new text is
// already present (patched by a previous run). Re-applying a rule set to a
// patched tree writes nothing.
package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/goplus/usdbuild/internal/logging"
)

// Replacement rewrites the first occurrence of Old with New.
//
// A deletion (empty New) must target text that occurs once, otherwise a
// second run deletes the next occurrence.
type Replacement struct {
	Old string
	New string
}

// Rule groups the replacements of one file. Replacements run in order,
// each against the content produced by the previous one.
type Rule struct {
	File         string
	Replacements []Replacement
}

// Report lists what happened to every rule target.
type Report struct {
	Patched []string
	Skipped []string
	Missing []string
}

// Error is returned when a target file exists but cannot be read or
// written.
type Error struct {
	Op   string
	File string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("patch: %s %s: %v", e.Op, e.File, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ApplyContent applies reps to content and reports whether it changed.
func ApplyContent(content string, reps []Replacement) (string, bool) {
	out := content
	for _, r := range reps {
		if !strings.Contains(out, r.Old) {
			continue
		}
		if r.New != "" && strings.Contains(out, r.New) {
			continue
		}
		out = strings.Replace(out, r.Old, r.New, 1)
	}
	return out, out != content
}

// Engine applies rules to files on disk.
type Engine struct {
	Logger *slog.Logger
}

// Apply runs every rule. Targets that do not exist are reported as missing
// and skipped. The first read or write failure aborts with an *Error.
func (e *Engine) Apply(rules []Rule) (Report, error) {
	logger := logging.Ensure(e.Logger)
	var report Report
	for _, rule := range rules {
		fi, err := os.Stat(rule.File)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.Mode().IsRegular()) {
			logger.Info("patch target not found, skipping", "file", rule.File)
			report.Missing = append(report.Missing, rule.File)
			continue
		}
		if err != nil {
			return report, &Error{Op: "stat", File: rule.File, Err: err}
		}

		data, err := os.ReadFile(rule.File)
		if err != nil {
			return report, &Error{Op: "read", File: rule.File, Err: err}
		}
		content, changed := ApplyContent(string(data), rule.Replacements)
		if !changed {
			logger.Info("already patched", "file", rule.File)
			report.Skipped = append(report.Skipped, rule.File)
			continue
		}
		if err := os.WriteFile(rule.File, []byte(content), fi.Mode().Perm()); err != nil {
			return report, &Error{Op: "write", File: rule.File, Err: err}
		}
		logger.Info("patched", "file", rule.File)
		report.Patched = append(report.Patched, rule.File)
	}
	return report, nil
}
