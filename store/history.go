package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// historyHeader is the column order of the audit history file.
var historyHeader = []string{
	"timestamp", "audit_no", "employee_id", "line", "sub_assembly", "kind",
	"fixture_no", "station_no", "fixture_part_desc", "check_point", "qty",
	"status", "changed_before_date", "remarks", "image_info",
}

// HistoryRecord is one immutable finding in the audit trail. Records are
// written only for checklist rows whose final status is "No".
type HistoryRecord struct {
	Timestamp     time.Time  `json:"timestamp"`
	AuditNo       int        `json:"audit_no"`
	EmployeeID    string     `json:"employee_id"`
	Line          string     `json:"line"`
	SubAssembly   string     `json:"sub_assembly"`
	Kind          string     `json:"kind"`
	FixtureNo     string     `json:"fixture_no"`
	StationNo     string     `json:"station_no"`
	PartDesc      string     `json:"fixture_part_desc"`
	CheckPoint    string     `json:"check_point"`
	Qty           int        `json:"qty"`
	Status        string     `json:"status"`
	ChangedBefore *time.Time `json:"changed_before_date"`
	Remarks       string     `json:"remarks"`
	ImageInfo     string     `json:"image_info"`
}

// History is the append-only audit trail backed by a CSV file. Entries are
// never rewritten or reordered; appends are serialized under a lock so
// concurrent commits cannot interleave partial lines.
//
// NextAuditNo and Append are deliberately not one transaction: two sessions
// opened at the same instant can derive the same number. Known limitation;
// an audit number is consumed once, so a duplicate only doubles up a label
// in the trail, it never corrupts the file.
type History struct {
	mu   sync.Mutex
	path string
}

// NewHistory returns a History over the given file path. The file is
// created on first append.
func NewHistory(path string) *History {
	return &History{path: path}
}

// NextAuditNo returns one greater than the highest audit number on file, or
// 1 when the file is absent, empty, or carries no numeric audit numbers.
// Rows with junk in the audit_no column are skipped, never fatal.
func (h *History) NextAuditNo() (int, error) {
	rows, err := h.readAll()
	if err != nil {
		return 0, err
	}
	max := 0
	for _, row := range rows {
		n, err := strconv.Atoi(strings.TrimSpace(row.col("audit_no")))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

// Append adds records to the end of the log, creating it with a header
// first if needed.
func (h *History) Append(records []HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}

	cw := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := cw.Write(historyHeader); err != nil {
			return fmt.Errorf("write history header: %w", err)
		}
	}
	for _, rec := range records {
		row := []string{
			rec.Timestamp.Format(timestampLayout),
			strconv.Itoa(rec.AuditNo),
			rec.EmployeeID,
			rec.Line, rec.SubAssembly, rec.Kind,
			rec.FixtureNo, rec.StationNo,
			rec.PartDesc, rec.CheckPoint,
			strconv.Itoa(rec.Qty),
			rec.Status,
			formatDate(rec.ChangedBefore),
			rec.Remarks,
			rec.ImageInfo,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("append history row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush history: %w", err)
	}
	return f.Sync()
}

// CountSince counts entries whose timestamp starts with the given prefix
// (typically a YYYY-MM-DD day). Read-side aggregate only.
func (h *History) CountSince(prefix string) (int, error) {
	rows, err := h.readAll()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		if strings.HasPrefix(row.col("timestamp"), prefix) {
			count++
		}
	}
	return count, nil
}

// Records returns all history entries, oldest first. Malformed numeric
// fields coerce to 0; nothing in the trail is dropped on read.
func (h *History) Records() ([]HistoryRecord, error) {
	rows, err := h.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]HistoryRecord, 0, len(rows))
	for _, row := range rows {
		ts, _ := time.Parse(timestampLayout, row.col("timestamp"))
		auditNo, _ := strconv.Atoi(strings.TrimSpace(row.col("audit_no")))
		out = append(out, HistoryRecord{
			Timestamp:     ts,
			AuditNo:       auditNo,
			EmployeeID:    row.col("employee_id"),
			Line:          row.col("line"),
			SubAssembly:   row.col("sub_assembly"),
			Kind:          row.col("kind"),
			FixtureNo:     row.col("fixture_no"),
			StationNo:     row.col("station_no"),
			PartDesc:      row.col("fixture_part_desc"),
			CheckPoint:    row.col("check_point"),
			Qty:           parseCount(row.col("qty")),
			Status:        row.col("status"),
			ChangedBefore: parseDate(row.col("changed_before_date")),
			Remarks:       row.col("remarks"),
			ImageInfo:     row.col("image_info"),
		})
	}
	return out, nil
}

// historyRow pairs a raw CSV row with its file's header mapping.
type historyRow struct {
	cols map[string]int
	row  []string
}

func (r historyRow) col(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

// readAll parses the whole history file. An absent file reads as empty.
func (h *History) readAll() ([]historyRow, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[name] = i
	}
	out := make([]historyRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, historyRow{cols: cols, row: row})
	}
	return out, nil
}
