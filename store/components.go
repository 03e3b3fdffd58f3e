package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Component kinds. A record's fixture number is meaningful only for
// fixtures, its station number/name only for tools.
const (
	KindFixture = "Fixture"
	KindTool    = "Tool"
)

// ComponentRecord is one trackable fixture/tool checklist line in the
// master registry. ID is the record's position at load time and is stable
// for the record's lifetime; saves never renumber.
type ComponentRecord struct {
	ID              int        `json:"id"`
	Line            string     `json:"line"`
	SubAssembly     string     `json:"sub_assembly"`
	Kind            string     `json:"kind"`
	FixtureNo       string     `json:"fixture_no"`
	StationNo       string     `json:"station_no"`
	StationName     string     `json:"station_name"`
	PartDesc        string     `json:"fixture_part_desc"`
	CheckPoint      string     `json:"check_point"`
	Qty             int        `json:"qty"`
	FrequencyCycles int        `json:"frequency_cycles"`
	ChangedBefore   *time.Time `json:"changed_before_date"`
}

// masterHeader is the canonical column order of the master registry file.
var masterHeader = []string{
	"line", "sub_assembly", "kind", "fixture_no", "station_no", "station_name",
	"fixture_part_desc", "check_point", "qty", "frequency_cycles",
	"Changed before date",
}

// Registry is the master component registry backed by a CSV file. The file
// is hand-edited operational data, so loads are lenient: malformed counts
// coerce to 0 and unparsable dates become absent. Saves rewrite the whole
// table through a temp-file-then-rename so readers never observe a
// half-written registry.
type Registry struct {
	mu      sync.Mutex
	path    string
	records []ComponentRecord
}

// OpenRegistry loads the master registry from path.
func OpenRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}
	if len(rows) == 0 {
		r.records = nil
		return nil
	}

	// Resolve columns by header name so a reordered export still loads.
	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]ComponentRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		records = append(records, ComponentRecord{
			ID:              n,
			Line:            field(row, "line"),
			SubAssembly:     field(row, "sub_assembly"),
			Kind:            field(row, "kind"),
			FixtureNo:       field(row, "fixture_no"),
			StationNo:       field(row, "station_no"),
			StationName:     field(row, "station_name"),
			PartDesc:        field(row, "fixture_part_desc"),
			CheckPoint:      field(row, "check_point"),
			Qty:             parseCount(field(row, "qty")),
			FrequencyCycles: parseCount(field(row, "frequency_cycles")),
			ChangedBefore:   parseDate(field(row, "Changed before date")),
		})
	}
	r.records = records
	return nil
}

// Records returns a copy of all records in row-id order.
func (r *Registry) Records() []ComponentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ComponentRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Record returns the record with the given row id.
func (r *Registry) Record(id int) (ComponentRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.records) {
		return ComponentRecord{}, false
	}
	return r.records[id], true
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// ApplyChangedBefore sets the changed-before date on the given rows and
// persists the full registry snapshot. Either the whole updated table lands
// on disk and in memory, or neither does.
func (r *Registry) ApplyChangedBefore(updates map[int]*time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]ComponentRecord, len(r.records))
	copy(next, r.records)
	for id, d := range updates {
		if id < 0 || id >= len(next) {
			return fmt.Errorf("unknown registry row %d", id)
		}
		next[id].ChangedBefore = d
	}

	if err := writeSnapshot(r.path, next); err != nil {
		return err
	}
	r.records = next
	return nil
}

// writeSnapshot serializes all records and atomically replaces the registry
// file via rename, preserving row order and the canonical header.
func writeSnapshot(path string, records []ComponentRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	cw := csv.NewWriter(tmp)
	if err := cw.Write(masterHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write registry header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Line, rec.SubAssembly, rec.Kind, rec.FixtureNo, rec.StationNo,
			rec.StationName, rec.PartDesc, rec.CheckPoint,
			fmt.Sprintf("%d", rec.Qty), fmt.Sprintf("%d", rec.FrequencyCycles),
			formatDate(rec.ChangedBefore),
		}
		if err := cw.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write registry row %d: %w", rec.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close registry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
