package formats

import (
	"strings"
	"testing"
	"time"

	"serialguard/internal/core/ports"
)

func TestGenerateText(t *testing.T) {
	out := GenerateText("/project", sampleFindings())
	if !strings.HasPrefix(out, "src/com/acme/Order.java:6:14: warning: This class uses @Autoserializable.") {
		t.Errorf("unexpected first line: %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, "class com.acme.RushOrder (inherited, marker com.yourcompany.Autoserializable)") {
		t.Errorf("expected evidence line, got:\n%s", out)
	}
	if !strings.Contains(out, "2 serialization-sensitive class(es) found.") {
		t.Errorf("expected total line, got:\n%s", out)
	}

	if got := GenerateText("/project", nil); got != "No serialization-sensitive classes found.\n" {
		t.Errorf("empty output = %q", got)
	}
}

func TestTSVGenerator(t *testing.T) {
	gen := NewTSVGenerator("/project")

	out, err := gen.GenerateFindings(sampleFindings())
	if err != nil {
		t.Fatalf("findings: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(lines))
	}
	if lines[1] != "com.acme.Order\tsrc/com/acme/Order.java\t6\t14\tannotation\tcom.yourcompany.Autoserializable" {
		t.Errorf("row = %q", lines[1])
	}

	out, err = gen.GenerateHistory([]ports.Notification{{
		At:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Severity: ports.SeverityWarning,
		Title:    "Serialization-Sensitive Class Modified",
		Path:     "/project/src/Order.java",
		Class:    "a\tb",
	}})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "2024-03-01T12:00:00Z\twarning\tSerialization-Sensitive Class Modified\tsrc/Order.java\ta b\n") {
		t.Errorf("history row missing: %q", out)
	}
}
