package commands

import (
	"fmt"
	"strings"

	"github.com/ayasyrev/nbmetaclean/internal/batch"
)

// cleanReport renders a clean result as text.
type cleanReport struct {
	result            *batch.CleanResult
	paths             []string
	verbose           bool
	preserveTimestamp bool
}

func (r cleanReport) TextLines() []string {
	var lines []string
	if r.verbose {
		lines = append(lines,
			fmt.Sprintf("Path: %s, preserve timestamp: %s", strings.Join(r.paths, ", "), titleBool(r.preserveTimestamp)),
			fmt.Sprintf("checked: %d notebooks", r.result.Checked),
		)
	}

	switch cleaned := r.result.Cleaned; len(cleaned) {
	case 0:
	case 1:
		lines = append(lines, "cleaned: "+cleaned[0])
	default:
		lines = append(lines, fmt.Sprintf("cleaned: %d notebooks", len(cleaned)))
		lines = appendList(lines, cleaned)
	}

	if failed := r.result.Failed; len(failed) > 0 {
		lines = append(lines, fmt.Sprintf("with errors: %d", len(failed)))
		for _, f := range failed {
			lines = append(lines, "- "+f.Message)
		}
	}
	return lines
}

// titleBool spells b as True or False.
func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// checkReport renders a check result as text.
type checkReport struct {
	result *batch.CheckResult
}

func (r checkReport) TextLines() []string {
	var lines []string
	lines = appendFailures(lines, r.result.WrongExecutionCount, "wrong execution_count")
	lines = appendFailures(lines, r.result.WithErrors, "errors in outputs")
	lines = appendFailures(lines, r.result.WithWarnings, "warnings in outputs")
	if errs := r.result.ReadErrors; len(errs) > 0 {
		lines = append(lines, fmt.Sprintf("%d notebooks with read error:", len(errs)))
		for _, e := range errs {
			lines = append(lines, "- "+e.Message)
		}
	}
	return lines
}

func appendFailures(lines, paths []string, what string) []string {
	if len(paths) == 0 {
		return lines
	}
	lines = append(lines, fmt.Sprintf("%d notebooks with %s:", len(paths), what))
	return appendList(lines, paths)
}

func appendList(lines, items []string) []string {
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return lines
}
