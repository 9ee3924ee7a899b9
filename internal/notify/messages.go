// Package notify builds user-facing notifications and delivers them to sinks.
package notify

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"serialguard/internal/core/ports"
	"serialguard/internal/shared/util"

	"github.com/google/uuid"
)

const (
	TitleModified        = "Serialization-Sensitive Class Modified"
	TitleAnalysisDone    = "Analysis Complete"
	TitleNotJava         = "Not a Java File"
	TitleCheckFailed     = "Serialization Check Failed"
	TitleSensitiveFound  = "Serialization-Sensitive Classes Found"
	InspectionMessage    = "This class uses @Autoserializable. Be careful when modifying to maintain serialization compatibility."
	inspectionMarkerName = "@Autoserializable"
)

// ModifiedWarning is raised by the watch pipeline when a file holding a
// serialization-sensitive class changes.
func ModifiedWarning(scope, path, class string, at time.Time) ports.Notification {
	body := fmt.Sprintf(`You modified %s, which contains the serialization-sensitive class %s.

Remember to:
  - keep the serialized form backward compatible
  - update serialVersionUID if the serialized form changes
  - document the change for consumers of persisted data`, filepath.Base(path), class)
	return ports.Notification{
		ID:       uuid.NewString(),
		Title:    TitleModified,
		Body:     body,
		Severity: ports.SeverityWarning,
		Scope:    scope,
		Path:     path,
		Class:    class,
		At:       at,
	}
}

// CheckSummary reports the result of an on-demand check. classes lists the
// qualifying classes; an empty list yields an informational notification.
func CheckSummary(scope, path string, classes []string, at time.Time) ports.Notification {
	n := ports.Notification{
		ID:    uuid.NewString(),
		Scope: scope,
		Path:  path,
		At:    at,
	}
	if len(classes) == 0 {
		n.Title = TitleAnalysisDone
		n.Body = fmt.Sprintf("No serialization-sensitive classes found in %s.", filepath.Base(path))
		n.Severity = ports.SeverityInfo
		return n
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s contains %d serialization-sensitive class(es):\n", filepath.Base(path), len(classes))
	for _, class := range classes {
		fmt.Fprintf(&b, "  - %s\n", class)
	}
	b.WriteString("\nChanges to these classes may break compatibility with previously serialized data.")
	n.Title = TitleSensitiveFound
	n.Body = b.String()
	n.Severity = ports.SeverityWarning
	n.Class = strings.Join(classes, ", ")
	return n
}

func NotJavaFile(scope, path string, at time.Time) ports.Notification {
	return ports.Notification{
		ID:       uuid.NewString(),
		Title:    TitleNotJava,
		Body:     fmt.Sprintf("%s is not a Java source file.", filepath.Base(path)),
		Severity: ports.SeverityWarning,
		Scope:    scope,
		Path:     path,
		At:       at,
	}
}

func CheckFailed(scope, path string, err error, at time.Time) ports.Notification {
	return ports.Notification{
		ID:       uuid.NewString(),
		Title:    TitleCheckFailed,
		Body:     fmt.Sprintf("Could not analyse %s: %v", filepath.Base(path), err),
		Severity: ports.SeverityError,
		Scope:    scope,
		Path:     path,
		At:       at,
	}
}

// InspectionText is the message attached to a qualifying class name. The
// default marker keeps the familiar wording; custom markers are named.
func InspectionText(marker string) string {
	name := util.SimpleName(marker)
	if marker == "" || name == inspectionMarkerName[1:] {
		return InspectionMessage
	}
	return strings.Replace(InspectionMessage, inspectionMarkerName, "@"+name, 1)
}
