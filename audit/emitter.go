package audit

// EventEmitter is the interface the audit package uses to emit events.
type EventEmitter interface {
	EmitAuditOpened(token, operator string, auditNo, rowCount int)
	EmitAuditRowUpdated(token string, rowID int, status string)
	EmitAuditCommitted(token, operator string, auditNo, totalItems, issuesFound int)
	EmitAuditDiscarded(token, operator string)
}
