package engine

// wireEventHandlers hooks audit lifecycle events into the engine log.
// The www layer adds its own subscribers (SSE) on top of these.
func (e *Engine) wireEventHandlers() {
	e.Events.Subscribe(func(evt Event) {
		opened := evt.Payload.(AuditOpenedEvent)
		e.logFn("audit #%d opened by %s (%d checklist rows)",
			opened.AuditNo, opened.Operator, opened.RowCount)
	}, EventAuditOpened)

	e.Events.Subscribe(func(evt Event) {
		row := evt.Payload.(AuditRowUpdatedEvent)
		e.debugFn("audit row %d updated: status=%s", row.RowID, row.Status)
	}, EventAuditRowUpdated)

	e.Events.Subscribe(func(evt Event) {
		c := evt.Payload.(AuditCommittedEvent)
		e.logFn("audit #%d committed by %s: %d items checked, %d issues logged",
			c.AuditNo, c.Operator, c.TotalItems, c.IssuesFound)
	}, EventAuditCommitted)

	e.Events.Subscribe(func(evt Event) {
		d := evt.Payload.(AuditDiscardedEvent)
		e.logFn("audit session discarded by %s", d.Operator)
	}, EventAuditDiscarded)
}
