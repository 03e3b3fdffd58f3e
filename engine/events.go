package engine

import "time"

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	EventAuditOpened EventType = iota + 1
	EventAuditRowUpdated
	EventAuditCommitted
	EventAuditDiscarded
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// AuditOpenedEvent is emitted when a session enters reviewing.
type AuditOpenedEvent struct {
	Token    string
	Operator string
	AuditNo  int
	RowCount int
}

// AuditRowUpdatedEvent is emitted on every checklist answer change.
type AuditRowUpdatedEvent struct {
	Token  string
	RowID  int
	Status string
}

// AuditCommittedEvent is emitted after a commit lands on disk.
type AuditCommittedEvent struct {
	Token       string
	Operator    string
	AuditNo     int
	TotalItems  int
	IssuesFound int
}

// AuditDiscardedEvent is emitted when an operator abandons a session.
type AuditDiscardedEvent struct {
	Token    string
	Operator string
}
