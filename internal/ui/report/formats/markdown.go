package formats

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"serialguard/internal/core/ports"
)

type MarkdownReportData struct {
	TotalFiles int
	Findings   []ports.Finding
}

type MarkdownReportOptions struct {
	ProjectName         string
	ProjectRoot         string
	Version             string
	GeneratedAt         time.Time
	Verbosity           string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(data MarkdownReportData, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)
	byEvidence := countByEvidence(data.Findings)

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Serialization Inspection Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Inspection Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Executive Summary](#executive-summary)\n")
		b.WriteString("- [Serialization-Sensitive Classes](#serialization-sensitive-classes)\n\n")
	}

	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files Inspected | %d |\n", data.TotalFiles))
	b.WriteString(fmt.Sprintf("| Sensitive Classes | %d |\n", len(data.Findings)))
	for _, evidence := range sortedKeys(byEvidence) {
		b.WriteString(fmt.Sprintf("| Via %s | %d |\n", evidence, byEvidence[evidence]))
	}
	b.WriteString("\n")

	m.writeFindings(&b, data.Findings, opts.ProjectRoot, opts.CollapsibleSections, verbosity)
	return b.String(), nil
}

func (m *MarkdownGenerator) writeFindings(b *strings.Builder, rows []ports.Finding, projectRoot string, collapsible bool, verbosity string) {
	b.WriteString("## Serialization-Sensitive Classes\n")
	if len(rows) == 0 {
		b.WriteString("No serialization-sensitive classes detected.\n\n")
		return
	}
	rendered := make([]string, 0, len(rows))
	for _, row := range rows {
		location := fmt.Sprintf("%s:%d:%d", relPath(projectRoot, row.Path), row.Line, row.Column)
		if verbosity == "summary" {
			rendered = append(rendered, fmt.Sprintf("| `%s` | `%s` |\n", row.Class, location))
			continue
		}
		rendered = append(rendered, fmt.Sprintf("| `%s` | %s | `%s` | `%s` |\n",
			row.Class, nonEmpty(row.Evidence, "-"), nonEmpty(row.Marker, "-"), location))
	}
	header := []string{"| Class | Evidence | Marker | Location |\n", "| --- | --- | --- | --- |\n"}
	if verbosity == "summary" {
		header = []string{"| Class | Location |\n", "| --- | --- |\n"}
	}
	m.writeTableWithCollapse(b, "Class details", collapsible, len(rendered) > 10, header, rendered)
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func countByEvidence(findings []ports.Finding) map[string]int {
	out := make(map[string]int)
	for _, f := range findings {
		out[nonEmpty(f.Evidence, "unknown")]++
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func relPath(root, path string) string {
	root = strings.TrimSpace(root)
	path = strings.TrimSpace(path)
	if root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func normalizeReportVerbosity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return "summary"
	case "detailed":
		return "detailed"
	default:
		return "standard"
	}
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
