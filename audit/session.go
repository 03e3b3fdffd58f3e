// Package audit implements the interactive audit session: a state machine
// that walks one operator through selecting a component, answering its
// checklist, and committing the results to the registry and history trail.
package audit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fixtureaudit/cycles"
	"fixtureaudit/store"

	"github.com/google/uuid"
)

// ErrNothingToAudit is returned by Commit when the session holds no rows.
// The session stays in reviewing; the caller reports and moves on.
var ErrNothingToAudit = errors.New("nothing to audit")

// Session manages the audit state machine for a single operator.
// Transitions: empty -> selecting -> reviewing -> (commit) -> empty.
// Sessions are not shared between operators.
type Session struct {
	mu       sync.Mutex
	registry *store.Registry
	history  *store.History
	evidence *store.Evidence
	calc     cycles.Calculator
	emitter  EventEmitter
	operator string
	token    string

	state     string
	auditNo   int
	selection Selection
	order     []int                         // row ids, registry order
	subset    map[int]store.ComponentRecord // fixed at review time
	rows      map[int]*RowState
}

// NewSession creates an audit session for one operator.
func NewSession(registry *store.Registry, history *store.History, evidence *store.Evidence, calc cycles.Calculator, emitter EventEmitter, operator string) *Session {
	return &Session{
		registry: registry,
		history:  history,
		evidence: evidence,
		calc:     calc,
		emitter:  emitter,
		operator: operator,
		token:    uuid.New().String(),
		state:    StateEmpty,
	}
}

// Token returns the session's opaque handle.
func (s *Session) Token() string { return s.token }

// Operator returns the operator id the session belongs to.
func (s *Session) Operator() string { return s.operator }

// State returns the current session state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AuditNo returns the audit number minted when the session entered
// reviewing, or 0 before that.
func (s *Session) AuditNo() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auditNo
}

// Selection returns the selection path supplied to Select.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Select records the selection path and moves the session from empty to
// selecting. The checklist subset is not resolved until Review.
func (s *Session) Select(sel Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEmpty {
		return fmt.Errorf("audit already in progress (state %s)", s.state)
	}
	s.selection = sel
	s.state = StateSelecting
	return nil
}

// Review resolves the selection against the registry, fixes the checklist
// subset, populates default answers, and mints the audit number. A
// selection that matches nothing yields an empty checklist, not an error.
func (s *Session) Review(today time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSelecting {
		return fmt.Errorf("no selection to review (state %s)", s.state)
	}

	auditNo, err := s.history.NextAuditNo()
	if err != nil {
		return fmt.Errorf("derive audit number: %w", err)
	}

	order, subset := resolveSubset(s.registry.Records(), s.selection)

	today = dateOnly(today)
	rows := make(map[int]*RowState, len(order))
	for _, id := range order {
		changed := today
		if d := subset[id].ChangedBefore; d != nil {
			changed = dateOnly(*d)
		}
		rows[id] = &RowState{Status: StatusYes, ChangedBefore: changed}
	}

	s.auditNo = auditNo
	s.order = order
	s.subset = subset
	s.rows = rows
	s.state = StateReviewing

	s.emitter.EmitAuditOpened(s.token, s.operator, auditNo, len(order))
	return nil
}

// resolveSubset filters registry records down to the selected component's
// checklist rows, optionally narrowed to one row.
func resolveSubset(records []store.ComponentRecord, sel Selection) ([]int, map[int]store.ComponentRecord) {
	var order []int
	subset := make(map[int]store.ComponentRecord)
	for _, rec := range records {
		if rec.Line != sel.Line || rec.SubAssembly != sel.SubAssembly || rec.Kind != sel.Kind {
			continue
		}
		if rec.Kind == store.KindFixture {
			if sel.FixtureNo != "" && rec.FixtureNo != sel.FixtureNo {
				continue
			}
		} else if sel.StationNo != "" && rec.StationNo != sel.StationNo {
			continue
		}
		order = append(order, rec.ID)
		subset[rec.ID] = rec
	}

	if sel.RowID != nil {
		if rec, ok := subset[*sel.RowID]; ok {
			order = []int{rec.ID}
			subset = map[int]store.ComponentRecord{rec.ID: rec}
		}
	}
	return order, subset
}

// Rows returns the checklist in registry order with current answers and
// accrued cycles as of asOf.
func (s *Session) Rows(asOf time.Time) []RowView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]RowView, 0, len(s.order))
	for i, id := range s.order {
		rec := s.subset[id]
		views = append(views, RowView{
			Seq:           i + 1,
			Record:        rec,
			State:         *s.rows[id],
			CurrentCycles: s.calc.WorkingCycles(rec.ChangedBefore, asOf),
		})
	}
	return views
}

// SetStatus records a row's pass/fail answer.
func (s *Session) SetStatus(rowID int, status string) error {
	if status != StatusYes && status != StatusNo {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.updateRow(rowID, func(row *RowState) {
		row.Status = status
	})
}

// SetRemark records a row's free-text remark. Only meaningful for rows that
// end up StatusNo; values on passing rows are ignored at commit, not erased.
func (s *Session) SetRemark(rowID int, remark string) error {
	return s.updateRow(rowID, func(row *RowState) {
		row.Remark = remark
	})
}

// SetChangedBefore records the operator's date for a row.
func (s *Session) SetChangedBefore(rowID int, d time.Time) error {
	return s.updateRow(rowID, func(row *RowState) {
		row.ChangedBefore = dateOnly(d)
	})
}

// AttachImage stores image evidence for a row and records its path.
func (s *Session) AttachImage(rowID int, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewing {
		return "", fmt.Errorf("no audit in progress (state %s)", s.state)
	}
	seq := 0
	for i, id := range s.order {
		if id == rowID {
			seq = i + 1
			break
		}
	}
	if seq == 0 {
		return "", fmt.Errorf("unknown checklist row %d", rowID)
	}
	path, err := s.evidence.Save(s.auditNo, seq, data)
	if err != nil {
		return "", err
	}
	s.rows[rowID].ImagePath = path
	s.emitter.EmitAuditRowUpdated(s.token, rowID, s.rows[rowID].Status)
	return path, nil
}

func (s *Session) updateRow(rowID int, apply func(*RowState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewing {
		return fmt.Errorf("no audit in progress (state %s)", s.state)
	}
	row, ok := s.rows[rowID]
	if !ok {
		return fmt.Errorf("unknown checklist row %d", rowID)
	}
	apply(row)
	s.emitter.EmitAuditRowUpdated(s.token, rowID, row.Status)
	return nil
}

// Commit applies every row's outcome and persists it.
//
// A failing row resets the component's maintenance clock to the commit
// date, discarding whatever date the operator typed; a passing row keeps
// the operator's date. The full registry snapshot is saved first; only
// failing rows are then appended to the history trail. If the registry save
// fails nothing is observable and the session stays in reviewing for a
// retry. A history append failure is likewise fatal for the attempt and
// retried whole.
func (s *Session) Commit(now time.Time) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewing {
		return Summary{}, fmt.Errorf("no audit in progress (state %s)", s.state)
	}
	if len(s.order) == 0 {
		return Summary{}, ErrNothingToAudit
	}

	today := dateOnly(now)
	updates := make(map[int]*time.Time, len(s.order))
	var findings []store.HistoryRecord
	for _, id := range s.order {
		row := s.rows[id]
		if row.Status == StatusNo {
			d := today
			updates[id] = &d
			rec := s.subset[id]
			findings = append(findings, store.HistoryRecord{
				Timestamp:     now,
				AuditNo:       s.auditNo,
				EmployeeID:    s.operator,
				Line:          s.selection.Line,
				SubAssembly:   s.selection.SubAssembly,
				Kind:          s.selection.Kind,
				FixtureNo:     rec.FixtureNo,
				StationNo:     rec.StationNo,
				PartDesc:      rec.PartDesc,
				CheckPoint:    rec.CheckPoint,
				Qty:           rec.Qty,
				Status:        StatusNo,
				ChangedBefore: &d,
				Remarks:       row.Remark,
				ImageInfo:     row.ImagePath,
			})
		} else {
			d := row.ChangedBefore
			updates[id] = &d
		}
	}

	if err := s.registry.ApplyChangedBefore(updates); err != nil {
		return Summary{}, fmt.Errorf("save registry: %w", err)
	}
	if err := s.history.Append(findings); err != nil {
		return Summary{}, fmt.Errorf("append history: %w", err)
	}

	summary := Summary{
		AuditNo:     s.auditNo,
		TotalItems:  len(s.order),
		IssuesFound: len(findings),
	}

	s.reset()
	s.emitter.EmitAuditCommitted(s.token, s.operator, summary.AuditNo, summary.TotalItems, summary.IssuesFound)
	return summary, nil
}

// Discard abandons the session from any state and returns it to empty.
func (s *Session) Discard() {
	s.mu.Lock()
	wasActive := s.state != StateEmpty
	s.reset()
	s.mu.Unlock()

	if wasActive {
		s.emitter.EmitAuditDiscarded(s.token, s.operator)
	}
}

// reset clears all per-audit state. Caller holds the lock.
func (s *Session) reset() {
	s.state = StateEmpty
	s.auditNo = 0
	s.selection = Selection{}
	s.order = nil
	s.subset = nil
	s.rows = nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
