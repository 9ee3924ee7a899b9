package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"serialguard/internal/core/ports"
	"serialguard/internal/ui/report/formats"

	"github.com/charmbracelet/lipgloss"
)

var (
	historyTimeStyle = lipgloss.NewStyle().Faint(true)
	historyWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	historyErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	historyInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// HistorySummary aggregates stored notifications.
type HistorySummary struct {
	Total      int                    `json:"total"`
	BySeverity map[ports.Severity]int `json:"by_severity"`
	// TopFiles lists the most frequently warned paths, most first.
	TopFiles []FileCount `json:"top_files"`
}

type FileCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func SummarizeHistory(items []ports.Notification, top int) HistorySummary {
	summary := HistorySummary{Total: len(items), BySeverity: make(map[ports.Severity]int)}
	perFile := make(map[string]int)
	for _, n := range items {
		summary.BySeverity[n.Severity]++
		if n.Path != "" {
			perFile[n.Path]++
		}
	}
	for path, count := range perFile {
		summary.TopFiles = append(summary.TopFiles, FileCount{Path: path, Count: count})
	}
	sort.Slice(summary.TopFiles, func(i, j int) bool {
		if summary.TopFiles[i].Count != summary.TopFiles[j].Count {
			return summary.TopFiles[i].Count > summary.TopFiles[j].Count
		}
		return summary.TopFiles[i].Path < summary.TopFiles[j].Path
	})
	if top > 0 && len(summary.TopFiles) > top {
		summary.TopFiles = summary.TopFiles[:top]
	}
	return summary
}

// WriteHistory renders stored notifications, newest first as loaded.
func WriteHistory(w io.Writer, format Format, items []ports.Notification, projectRoot string) error {
	switch format {
	case FormatJSON:
		data, err := RenderHistoryJSON(items)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatTSV:
		out, err := formats.NewTSVGenerator(projectRoot).GenerateHistory(items)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatText, "":
		_, err := io.WriteString(w, RenderHistoryText(items, projectRoot))
		return err
	default:
		return fmt.Errorf("format %q is not supported for history", format)
	}
}

func RenderHistoryText(items []ports.Notification, projectRoot string) string {
	if len(items) == 0 {
		return "No warnings recorded.\n"
	}
	var b strings.Builder
	for _, n := range items {
		fmt.Fprintf(&b, "%s  %s  %s",
			historyTimeStyle.Render(n.At.Local().Format(time.DateTime)),
			severityBadge(n.Severity),
			n.Title,
		)
		if n.Path != "" {
			fmt.Fprintf(&b, "  %s", relPath(projectRoot, n.Path))
		}
		if n.Class != "" {
			fmt.Fprintf(&b, " (%s)", n.Class)
		}
		b.WriteByte('\n')
	}

	summary := SummarizeHistory(items, 5)
	fmt.Fprintf(&b, "\n%d notification(s): %d warning, %d error, %d info\n",
		summary.Total,
		summary.BySeverity[ports.SeverityWarning],
		summary.BySeverity[ports.SeverityError],
		summary.BySeverity[ports.SeverityInfo],
	)
	if len(summary.TopFiles) > 0 {
		b.WriteString("Most warned files:\n")
		for _, fc := range summary.TopFiles {
			fmt.Fprintf(&b, "  %4d  %s\n", fc.Count, relPath(projectRoot, fc.Path))
		}
	}
	return b.String()
}

type historyJSON struct {
	Summary HistorySummary       `json:"summary"`
	Items   []ports.Notification `json:"items"`
}

func RenderHistoryJSON(items []ports.Notification) ([]byte, error) {
	if items == nil {
		items = []ports.Notification{}
	}
	return json.MarshalIndent(historyJSON{Summary: SummarizeHistory(items, 10), Items: items}, "", "  ")
}

func severityBadge(severity ports.Severity) string {
	label := fmt.Sprintf("%-7s", strings.ToUpper(string(severity)))
	switch severity {
	case ports.SeverityError:
		return historyErrStyle.Render(label)
	case ports.SeverityWarning:
		return historyWarnStyle.Render(label)
	default:
		return historyInfoStyle.Render(label)
	}
}

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	if rel, ok := strings.CutPrefix(path, strings.TrimSuffix(root, "/")+"/"); ok {
		return rel
	}
	return path
}
