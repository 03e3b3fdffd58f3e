package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fixtureaudit/cycles"
	"fixtureaudit/store"
)

// --- Mock emitter ---

type mockEmitter struct {
	opened     []emitOpened
	rowUpdates []emitRowUpdated
	committed  []emitCommitted
	discarded  int
}

type emitOpened struct {
	auditNo  int
	rowCount int
}
type emitRowUpdated struct {
	rowID  int
	status string
}
type emitCommitted struct {
	auditNo     int
	totalItems  int
	issuesFound int
}

func (m *mockEmitter) EmitAuditOpened(_, _ string, auditNo, rowCount int) {
	m.opened = append(m.opened, emitOpened{auditNo, rowCount})
}
func (m *mockEmitter) EmitAuditRowUpdated(_ string, rowID int, status string) {
	m.rowUpdates = append(m.rowUpdates, emitRowUpdated{rowID, status})
}
func (m *mockEmitter) EmitAuditCommitted(_, _ string, auditNo, totalItems, issuesFound int) {
	m.committed = append(m.committed, emitCommitted{auditNo, totalItems, issuesFound})
}
func (m *mockEmitter) EmitAuditDiscarded(_, _ string) {
	m.discarded++
}

// --- Fixtures ---

const testMaster = `line,sub_assembly,kind,fixture_no,station_no,station_name,fixture_part_desc,check_point,qty,frequency_cycles,Changed before date
J Line,Crank,Fixture,F-12,,,Clamp block,Check wear,2,20000,20-05-2024
J Line,Crank,Fixture,F-12,,,Clamp spring,Check tension,1,20000,20-05-2024
J Line,Crank,Fixture,F-12,,,Base plate,Check flatness,1,20000,
J Line,Crank,Tool,,ST-04,Torque station,Torque head,Check calibration,1,15000,01-05-2024
`

type fixture struct {
	registry *store.Registry
	history  *store.History
	emitter  *mockEmitter
	session  *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "config_master.csv")
	if err := os.WriteFile(masterPath, []byte(testMaster), 0644); err != nil {
		t.Fatalf("write master: %v", err)
	}
	registry, err := store.OpenRegistry(masterPath)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	history := store.NewHistory(filepath.Join(dir, "audit_history.csv"))
	evidence, err := store.NewEvidence(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatalf("evidence: %v", err)
	}
	emitter := &mockEmitter{}
	calc := cycles.Calculator{RatePerDay: 1800, RestDay: time.Sunday}
	return &fixture{
		registry: registry,
		history:  history,
		emitter:  emitter,
		session:  NewSession(registry, history, evidence, calc, emitter, "EMP-7"),
	}
}

func fixtureSelection() Selection {
	return Selection{Line: "J Line", SubAssembly: "Crank", Kind: store.KindFixture, FixtureNo: "F-12"}
}

func openReviewing(t *testing.T, f *fixture, sel Selection, today time.Time) {
	t.Helper()
	if err := f.session.Select(sel); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.session.Review(today); err != nil {
		t.Fatalf("review: %v", err)
	}
}

var commitDay = time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

// --- Tests ---

func TestSessionStartsEmpty(t *testing.T) {
	f := newFixture(t)
	if got := f.session.State(); got != StateEmpty {
		t.Errorf("state = %s, want %s", got, StateEmpty)
	}
	if f.session.Token() == "" {
		t.Error("token should be assigned")
	}
}

func TestSelectThenReviewPopulatesDefaults(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)

	if got := f.session.State(); got != StateReviewing {
		t.Fatalf("state = %s, want %s", got, StateReviewing)
	}
	if f.session.AuditNo() != 1 {
		t.Errorf("audit no = %d, want 1", f.session.AuditNo())
	}

	rows := f.session.Rows(commitDay)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (tool row excluded)", len(rows))
	}
	for _, rv := range rows {
		if rv.State.Status != StatusYes {
			t.Errorf("row %d default status = %s, want Yes", rv.Record.ID, rv.State.Status)
		}
		if rv.State.Remark != "" || rv.State.ImagePath != "" {
			t.Errorf("row %d has non-empty remark/image by default", rv.Record.ID)
		}
	}
	// Row with a registry date defaults to it; row without defaults to today.
	if got := rows[0].State.ChangedBefore.Format("02-01-2006"); got != "20-05-2024" {
		t.Errorf("row 0 default date = %s, want 20-05-2024", got)
	}
	if got := rows[2].State.ChangedBefore.Format("02-01-2006"); got != "01-06-2024" {
		t.Errorf("row 2 default date = %s, want 01-06-2024 (today)", got)
	}
}

func TestSelectTwiceRejected(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Select(fixtureSelection()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.session.Select(fixtureSelection()); err == nil {
		t.Error("second select should fail")
	}
}

func TestReviewWithoutSelectRejected(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Review(commitDay); err == nil {
		t.Error("review from empty should fail")
	}
}

func TestRowRestriction(t *testing.T) {
	f := newFixture(t)
	sel := fixtureSelection()
	rowID := 1
	sel.RowID = &rowID
	openReviewing(t, f, sel, commitDay)

	rows := f.session.Rows(commitDay)
	if len(rows) != 1 || rows[0].Record.ID != 1 {
		t.Fatalf("restricted rows = %+v, want exactly row 1", rows)
	}
}

func TestRowRestrictionOutsideSubsetIgnored(t *testing.T) {
	f := newFixture(t)
	sel := fixtureSelection()
	rowID := 3 // the tool row, not in the fixture subset
	sel.RowID = &rowID
	openReviewing(t, f, sel, commitDay)

	if got := len(f.session.Rows(commitDay)); got != 3 {
		t.Fatalf("rows = %d, want full subset when restriction misses", got)
	}
}

func TestNoMatchYieldsEmptyChecklist(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, Selection{Line: "X Line", SubAssembly: "Nope", Kind: store.KindFixture}, commitDay)

	if got := len(f.session.Rows(commitDay)); got != 0 {
		t.Fatalf("rows = %d, want 0", got)
	}
	_, err := f.session.Commit(commitDay)
	if !errors.Is(err, ErrNothingToAudit) {
		t.Fatalf("commit err = %v, want ErrNothingToAudit", err)
	}
	if got := f.session.State(); got != StateReviewing {
		t.Errorf("state after rejected commit = %s, want %s", got, StateReviewing)
	}
}

func TestUpdateUnknownRowRejected(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)
	if err := f.session.SetStatus(42, StatusNo); err == nil {
		t.Error("unknown row should fail")
	}
	if err := f.session.SetStatus(0, "Maybe"); err == nil {
		t.Error("invalid status should fail")
	}
}

func TestCommitFailingRowResetsClock(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)

	// Operator types a date, then fails the row; the typed date must lose.
	typed := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if err := f.session.SetChangedBefore(0, typed); err != nil {
		t.Fatalf("set date: %v", err)
	}
	if err := f.session.SetStatus(0, StatusNo); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := f.session.SetRemark(0, "worn"); err != nil {
		t.Fatalf("set remark: %v", err)
	}

	summary, err := f.session.Commit(commitDay)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if summary.TotalItems != 3 || summary.IssuesFound != 1 {
		t.Errorf("summary = %+v, want total 3 issues 1", summary)
	}

	rec, _ := f.registry.Record(0)
	if rec.ChangedBefore == nil || rec.ChangedBefore.Format("02-01-2006") != "01-06-2024" {
		t.Errorf("row 0 date = %v, want commit date 01-06-2024", rec.ChangedBefore)
	}

	findings, err := f.history.Records()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	got := findings[0]
	if got.Status != StatusNo || got.AuditNo != 1 || got.EmployeeID != "EMP-7" {
		t.Errorf("finding = %+v", got)
	}
	if got.ChangedBefore == nil || got.ChangedBefore.Format("02-01-2006") != "01-06-2024" {
		t.Errorf("finding date = %v, want commit date", got.ChangedBefore)
	}
	if got.Remarks != "worn" {
		t.Errorf("finding remarks = %q", got.Remarks)
	}

	if got := f.session.State(); got != StateEmpty {
		t.Errorf("state after commit = %s, want %s", got, StateEmpty)
	}
}

func TestCommitPassingRowKeepsOperatorDate(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)

	edited := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := f.session.SetChangedBefore(1, edited); err != nil {
		t.Fatalf("set date: %v", err)
	}

	if _, err := f.session.Commit(commitDay); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rec, _ := f.registry.Record(1)
	if rec.ChangedBefore == nil || !rec.ChangedBefore.Equal(edited) {
		t.Errorf("row 1 date = %v, want %v", rec.ChangedBefore, edited)
	}

	// Passing rows produce no history entries at all.
	findings, _ := f.history.Records()
	if len(findings) != 0 {
		t.Errorf("findings = %d, want 0", len(findings))
	}
}

func TestCommitRemarkOnPassingRowIgnored(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)

	// Remark typed while status was No, then flipped back to Yes: the value
	// stays in the session but never reaches the trail.
	f.session.SetStatus(0, StatusNo)
	f.session.SetRemark(0, "false alarm")
	f.session.SetStatus(0, StatusYes)

	if _, err := f.session.Commit(commitDay); err != nil {
		t.Fatalf("commit: %v", err)
	}
	findings, _ := f.history.Records()
	if len(findings) != 0 {
		t.Errorf("findings = %d, want 0", len(findings))
	}
}

func TestCommitSummaryCounts(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)

	f.session.SetStatus(1, StatusNo)

	summary, err := f.session.Commit(commitDay)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if summary.TotalItems != 3 || summary.IssuesFound != 1 || summary.AuditNo != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(f.emitter.committed) != 1 {
		t.Fatalf("committed events = %d, want 1", len(f.emitter.committed))
	}
	if e := f.emitter.committed[0]; e.totalItems != 3 || e.issuesFound != 1 {
		t.Errorf("committed event = %+v", e)
	}
}

func TestAuditNumbersAdvancePerCommit(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)
	f.session.SetStatus(0, StatusNo)
	if _, err := f.session.Commit(commitDay); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	openReviewing(t, f, fixtureSelection(), commitDay)
	if f.session.AuditNo() != 2 {
		t.Errorf("second audit no = %d, want 2", f.session.AuditNo())
	}
}

func TestAttachImage(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)

	f.session.SetStatus(1, StatusNo)
	path, err := f.session.AttachImage(1, []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if filepath.Base(path) != "audit_1_row_2.jpg" {
		t.Errorf("image name = %s, want audit_1_row_2.jpg", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("image content = %q, %v", data, err)
	}

	if _, err := f.session.Commit(commitDay); err != nil {
		t.Fatalf("commit: %v", err)
	}
	findings, _ := f.history.Records()
	if len(findings) != 1 || findings[0].ImageInfo != path {
		t.Errorf("finding image = %+v", findings)
	}
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	openReviewing(t, f, fixtureSelection(), commitDay)
	f.session.SetStatus(0, StatusNo)

	f.session.Discard()

	if got := f.session.State(); got != StateEmpty {
		t.Errorf("state = %s, want %s", got, StateEmpty)
	}
	if f.emitter.discarded != 1 {
		t.Errorf("discarded events = %d, want 1", f.emitter.discarded)
	}
	// Nothing persisted.
	rec, _ := f.registry.Record(0)
	if rec.ChangedBefore == nil || rec.ChangedBefore.Format("02-01-2006") != "20-05-2024" {
		t.Error("registry mutated by discarded session")
	}
	findings, _ := f.history.Records()
	if len(findings) != 0 {
		t.Error("history written by discarded session")
	}
}

func TestCommitWithoutReviewRejected(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.Commit(commitDay); err == nil {
		t.Error("commit from empty should fail")
	}
}
