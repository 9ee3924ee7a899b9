package ports

import (
	"context"
	"time"
)

// Location is a 1-based position inside a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// ClassDeclaration is a read-only handle to one class of the structural model.
// Handles are only valid inside a StructureProvider read section.
type ClassDeclaration interface {
	// ID is stable for the lifetime of the declaration's current revision.
	ID() string
	Name() string
	QualifiedName() string
	// Supertype returns the declared superclass, resolved inside the model
	// when possible. ok is false when the class has no explicit superclass.
	Supertype() (ClassDeclaration, bool)
	// Annotations returns annotation names, qualified when resolvable.
	Annotations() []string
	// Interfaces returns implemented interface names, qualified when resolvable.
	Interfaces() []string
	// Location points at the class name token.
	Location() Location
}

// RevisionSource exposes the global structural revision. It only moves forward.
type RevisionSource interface {
	Revision() uint64
}

// StructureView is the snapshot visible inside a read section.
type StructureView interface {
	Classes(path string) ([]ClassDeclaration, error)
	AllClasses() []ClassDeclaration
}

// StructureProvider owns the structural model and all of its mutations.
type StructureProvider interface {
	RevisionSource
	// Read runs fn with a snapshot-consistent view; mutations wait until fn returns.
	Read(fn func(view StructureView) error) error
	// Touch marks a file for reparse before the next read section.
	Touch(path string)
	// Forget drops a file from the model.
	Forget(path string)
}

// ChangeKind classifies a file change event.
type ChangeKind uint8

const (
	ContentChanged ChangeKind = iota
	Created
	Removed
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case ContentChanged:
		return "content_changed"
	case Created:
		return "created"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is one entry of a change batch.
type ChangeEvent struct {
	Path string
	Kind ChangeKind
}

// ChangeHandler receives batches from a change-event source.
type ChangeHandler func(events []ChangeEvent)

// Severity of a user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is what the core hands to a sink.
type Notification struct {
	ID       string
	Title    string
	Body     string
	Severity Severity
	// Scope identifies the workspace/session the notification belongs to.
	Scope string
	Path  string
	Class string
	At    time.Time
}

// NotificationSink is fire-and-forget; implementations must not block for long.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

// Finding is an inspection warning attached to the name token of a
// serialization-sensitive class.
type Finding struct {
	Path    string
	Line    int
	Column  int
	Class   string
	Message string
	// Evidence is the qualification evidence kind, e.g. "annotation".
	Evidence string
	Marker   string
}

// NotificationStore abstracts warning history persistence.
type NotificationStore interface {
	SaveNotification(n Notification) error
	LoadNotifications(scope string, since time.Time, limit int) ([]Notification, error)
}
