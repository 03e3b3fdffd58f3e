package audit

import (
	"time"

	"fixtureaudit/store"
)

// Session states
const (
	StateEmpty     = "empty"
	StateSelecting = "selecting"
	StateReviewing = "reviewing"
)

// Checklist row statuses. Every row starts as StatusYes; flipping a row to
// StatusNo is what makes its remark and image meaningful.
const (
	StatusYes = "Yes"
	StatusNo  = "No"
)

// Selection is the path the operator walks to pick a component: line,
// sub-assembly, kind, then a fixture or station number depending on kind.
// RowID optionally narrows the checklist to a single registry row (the
// dashboard's "start audit for this item" shortcut).
type Selection struct {
	Line        string `json:"line"`
	SubAssembly string `json:"sub_assembly"`
	Kind        string `json:"kind"`
	FixtureNo   string `json:"fixture_no"`
	StationNo   string `json:"station_no"`
	RowID       *int   `json:"row_id"`
}

// RowState holds the operator's in-progress answers for one checklist row.
type RowState struct {
	Status        string    `json:"status"`
	Remark        string    `json:"remark"`
	ImagePath     string    `json:"image_path"`
	ChangedBefore time.Time `json:"changed_before_date"`
}

// RowView pairs a checklist row's fixed registry record with its current
// in-session answers, for rendering.
type RowView struct {
	Seq           int                   `json:"seq"`
	Record        store.ComponentRecord `json:"record"`
	State         RowState              `json:"state"`
	CurrentCycles int                   `json:"current_cycles"`
}

// Summary reports a committed audit back to the operator.
type Summary struct {
	AuditNo     int `json:"audit_no"`
	TotalItems  int `json:"total_items"`
	IssuesFound int `json:"issues_found"`
}
