package engine

// auditEmitter adapts the engine's EventBus to the audit.EventEmitter interface.
type auditEmitter struct {
	bus *EventBus
}

func (e *auditEmitter) EmitAuditOpened(token, operator string, auditNo, rowCount int) {
	e.bus.Emit(Event{Type: EventAuditOpened, Payload: AuditOpenedEvent{
		Token: token, Operator: operator, AuditNo: auditNo, RowCount: rowCount,
	}})
}

func (e *auditEmitter) EmitAuditRowUpdated(token string, rowID int, status string) {
	e.bus.Emit(Event{Type: EventAuditRowUpdated, Payload: AuditRowUpdatedEvent{
		Token: token, RowID: rowID, Status: status,
	}})
}

func (e *auditEmitter) EmitAuditCommitted(token, operator string, auditNo, totalItems, issuesFound int) {
	e.bus.Emit(Event{Type: EventAuditCommitted, Payload: AuditCommittedEvent{
		Token: token, Operator: operator, AuditNo: auditNo,
		TotalItems: totalItems, IssuesFound: issuesFound,
	}})
}

func (e *auditEmitter) EmitAuditDiscarded(token, operator string) {
	e.bus.Emit(Event{Type: EventAuditDiscarded, Payload: AuditDiscardedEvent{
		Token: token, Operator: operator,
	}})
}
