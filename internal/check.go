package internal

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/storage"
)

// CheckOptions controls the one-shot contract check.
type CheckOptions struct {
	// JSON emits the full report as JSON instead of per-issue lines.
	JSON bool
	// Strict treats warnings as failures.
	Strict bool
}

// RunCheck runs the authoring contract against the corpus once and writes
// the result to out. It returns an error when the corpus fails the check,
// so callers can map that to a non-zero exit code.
func RunCheck(cfg *Config, opts CheckOptions, out io.Writer) error {
	store, err := storage.NewFS(cfg.Corpus.Path, cfg.Corpus.Ignore...)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	report, err := lint.CheckCorpus(store, cfg.Lint.Options())
	if err != nil {
		return fmt.Errorf("check corpus: %w", err)
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		for _, issue := range report.Issues {
			if issue.Line > 0 {
				fmt.Fprintf(out, "%s:%d: %s %s: %s\n", issue.Path, issue.Line, issue.Severity, issue.Rule, issue.Message)
			} else {
				fmt.Fprintf(out, "%s: %s %s: %s\n", issue.Path, issue.Severity, issue.Rule, issue.Message)
			}
		}
		fmt.Fprintf(out, "%d guides checked, %d errors, %d warnings\n", report.Checked, report.Errors, report.Warnings)
	}

	if report.HasErrors() {
		return fmt.Errorf("contract check failed: %d errors", report.Errors)
	}
	if opts.Strict && report.Warnings > 0 {
		return fmt.Errorf("contract check failed: %d warnings (strict)", report.Warnings)
	}
	return nil
}
