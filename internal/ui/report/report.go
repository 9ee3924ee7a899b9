// Package report renders inspection findings and warning history.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"serialguard/internal/core/ports"
	"serialguard/internal/shared/version"
	"serialguard/internal/ui/report/formats"
)

type Format string

const (
	FormatText     Format = "text"
	FormatSARIF    Format = "sarif"
	FormatMarkdown Format = "markdown"
	FormatTSV      Format = "tsv"
	FormatJSON     Format = "json"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatSARIF, FormatMarkdown, FormatTSV, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want text, sarif, markdown, tsv or json)", raw)
	}
}

type Options struct {
	ProjectRoot string
	ProjectName string
	TotalFiles  int
	// ContextLines adds that many source lines around each text finding.
	ContextLines int
	ReadFile     func(string) ([]byte, error)
}

// WriteFindings renders findings to w in the requested format.
func WriteFindings(w io.Writer, format Format, findings []ports.Finding, opts Options) error {
	var (
		out []byte
		err error
	)
	switch format {
	case FormatSARIF:
		out, err = formats.GenerateSARIF(opts.ProjectRoot, findings)
		out = append(out, '\n')
	case FormatMarkdown:
		var md string
		md, err = formats.NewMarkdownGenerator().Generate(
			formats.MarkdownReportData{TotalFiles: opts.TotalFiles, Findings: findings},
			formats.MarkdownReportOptions{
				ProjectName:         opts.ProjectName,
				ProjectRoot:         opts.ProjectRoot,
				Version:             version.Version,
				TableOfContents:     true,
				CollapsibleSections: true,
			},
		)
		out = []byte(md)
	case FormatTSV:
		var tsv string
		tsv, err = formats.NewTSVGenerator(opts.ProjectRoot).GenerateFindings(findings)
		out = []byte(tsv)
	case FormatText, "":
		out = []byte(textWithContext(findings, opts))
	default:
		return fmt.Errorf("format %q is not supported for findings", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func textWithContext(findings []ports.Finding, opts Options) string {
	text := formats.GenerateText(opts.ProjectRoot, findings)
	if opts.ContextLines <= 0 || len(findings) == 0 {
		return text
	}
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	var b strings.Builder
	for _, f := range findings {
		b.WriteString(formats.FormatFinding(opts.ProjectRoot, f))
		content, err := readFile(f.Path)
		if err != nil {
			continue
		}
		for _, line := range SourceContext(content, f.Line, f.Column, opts.ContextLines) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString(formats.TextTotal(len(findings)))
	return b.String()
}
