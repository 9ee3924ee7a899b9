// # internal/ui/report/snippet.go
package report

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// SourceContext returns radius lines either side of line (1-based), each
// formatted as "<linenum>: <source>". The hit line is followed by a caret
// under column when column is known.
func SourceContext(content []byte, line, column, radius int) []string {
	lines := splitLines(content)
	if line < 1 || line > len(lines) {
		return nil
	}
	hit := line - 1
	start := max(hit-radius, 0)
	end := min(hit+radius+1, len(lines))

	out := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		out = append(out, formatContextLine(i+1, lines[i]))
		if i == hit && column > 0 {
			// 6 digits plus ": "
			out = append(out, strings.Repeat(" ", 8+caretOffset(lines[i], column))+"^")
		}
	}
	return out
}

// caretOffset converts a 1-based byte column into the display offset of
// the same position once tabs are expanded.
func caretOffset(source string, column int) int {
	prefix := source
	if column-1 < len(prefix) {
		prefix = prefix[:column-1]
	}
	return utf8.RuneCountInString(expandTabs(prefix))
}

func expandTabs(source string) string {
	return strings.ReplaceAll(source, "\t", "    ")
}

// formatContextLine returns a "<linenum>: <source>" string.
func formatContextLine(lineNum int, source string) string {
	var b strings.Builder
	b.Grow(8 + len(source))
	b.WriteString(formatLineNum(lineNum))
	b.WriteString(": ")
	b.WriteString(expandTabs(source))
	return b.String()
}

func formatLineNum(n int) string {
	s := strings.Repeat(" ", 6)
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if len(digits) == 0 {
		digits = []byte{'0'}
	}
	pad := 6 - len(digits)
	if pad < 0 {
		pad = 0
	}
	return s[:pad] + string(digits)
}

// splitLines splits content on newlines, preserving empty lines.
func splitLines(content []byte) []string {
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = strings.TrimSuffix(string(b), "\r")
	}
	// Trim trailing empty line that Split adds for a final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
