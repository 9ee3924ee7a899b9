package formats

import (
	"fmt"
	"strings"

	"serialguard/internal/core/ports"
)

// GenerateText renders findings in the compiler-style path:line:col form
// that editors can jump to.
func GenerateText(projectRoot string, findings []ports.Finding) string {
	if len(findings) == 0 {
		return "No serialization-sensitive classes found.\n"
	}
	var b strings.Builder
	for _, f := range findings {
		b.WriteString(FormatFinding(projectRoot, f))
	}
	b.WriteString(TextTotal(len(findings)))
	return b.String()
}

// FormatFinding renders one finding, newline terminated.
func FormatFinding(projectRoot string, f ports.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: warning: %s [%s]\n",
		relPath(projectRoot, f.Path), f.Line, f.Column, f.Message, ruleIDSerialization)
	if f.Class != "" {
		fmt.Fprintf(&b, "    class %s (%s", f.Class, nonEmpty(f.Evidence, "unknown"))
		if f.Marker != "" {
			fmt.Fprintf(&b, ", marker %s", f.Marker)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

func TextTotal(n int) string {
	return fmt.Sprintf("\n%d serialization-sensitive class(es) found.\n", n)
}
