// # internal/ui/report/formats/tsv.go
package formats

import (
	"fmt"
	"strings"
	"time"

	"serialguard/internal/core/ports"
)

// TSVGenerator renders findings and history as tab separated rows for
// scripts and spreadsheets.
type TSVGenerator struct {
	projectRoot string
}

func NewTSVGenerator(projectRoot string) *TSVGenerator {
	return &TSVGenerator{projectRoot: projectRoot}
}

func (t *TSVGenerator) GenerateFindings(rows []ports.Finding) (string, error) {
	var buf strings.Builder

	buf.WriteString("Class\tFile\tLine\tColumn\tEvidence\tMarker\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%s\t%s\n",
			row.Class,
			relPath(t.projectRoot, row.Path),
			row.Line,
			row.Column,
			row.Evidence,
			row.Marker,
		))
	}

	return buf.String(), nil
}

func (t *TSVGenerator) GenerateHistory(rows []ports.Notification) (string, error) {
	var buf strings.Builder

	buf.WriteString("Time\tSeverity\tTitle\tFile\tClass\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
			row.At.UTC().Format(time.RFC3339),
			row.Severity,
			row.Title,
			relPath(t.projectRoot, row.Path),
			tsvEscape(row.Class),
		))
	}

	return buf.String(), nil
}

func tsvEscape(value string) string {
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(value)
}
