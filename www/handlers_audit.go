package www

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fixtureaudit/audit"
	"fixtureaudit/store"
)

// handleAudit renders the component selection drill-down and, once the
// selection is complete, opens (or reopens) the operator's audit session
// against the resolved checklist.
func (h *Handlers) handleAudit(w http.ResponseWriter, r *http.Request) {
	operator, _ := h.sessions.getOperator(r)
	q := r.URL.Query()

	sel := audit.Selection{
		Line:        q.Get("line"),
		SubAssembly: q.Get("sub_assembly"),
		Kind:        q.Get("kind"),
		FixtureNo:   q.Get("fixture_no"),
		StationNo:   q.Get("station_no"),
	}
	if rowParam := q.Get("row_id"); rowParam != "" {
		if id, err := strconv.Atoi(rowParam); err == nil {
			// Dashboard shortcut: derive the full path from the record itself.
			if rec, ok := h.engine.Registry().Record(id); ok {
				sel = audit.Selection{
					Line:        rec.Line,
					SubAssembly: rec.SubAssembly,
					Kind:        rec.Kind,
					FixtureNo:   rec.FixtureNo,
					StationNo:   rec.StationNo,
					RowID:       &id,
				}
			}
		}
	}

	// Fill unset levels with the first available option, the way the
	// original drill-down preselects.
	lines := h.engine.Lines()
	if sel.Line == "" && len(lines) > 0 {
		sel.Line = lines[0]
	}
	subAssemblies := h.engine.SubAssemblies(sel.Line)
	if sel.SubAssembly == "" && len(subAssemblies) > 0 {
		sel.SubAssembly = subAssemblies[0]
	}
	if sel.Kind == "" {
		sel.Kind = store.KindFixture
	}
	fixtures := h.engine.FixtureNos(sel.Line, sel.SubAssembly)
	stations := h.engine.Stations(sel.Line, sel.SubAssembly)
	if sel.Kind == store.KindFixture {
		if sel.FixtureNo == "" && len(fixtures) > 0 {
			sel.FixtureNo = fixtures[0]
		}
	} else if sel.StationNo == "" && len(stations) > 0 {
		sel.StationNo = stations[0].No
	}

	sess, err := h.engine.OpenAudit(operator, sel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var stationName string
	for _, st := range stations {
		if st.No == sel.StationNo {
			stationName = st.Name
		}
	}

	h.renderTemplate(w, "audit.html", h.pageData(r, "audit", map[string]interface{}{
		"Selection":     sel,
		"Lines":         lines,
		"SubAssemblies": subAssemblies,
		"Fixtures":      fixtures,
		"Stations":      stations,
		"StationName":   stationName,
		"AuditNo":       sess.AuditNo(),
		"Rows":          sess.Rows(h.engine.Now()),
	}))
}

// handleAuditSave applies the posted checklist answers to the operator's
// session and commits it.
func (h *Handlers) handleAuditSave(w http.ResponseWriter, r *http.Request) {
	operator, _ := h.sessions.getOperator(r)
	sess := h.engine.Session(operator)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}

	for _, rv := range sess.Rows(h.engine.Now()) {
		id := rv.Record.ID
		status := r.FormValue(fmt.Sprintf("status_%d", id))
		if status == "" {
			status = audit.StatusYes
		}
		if err := sess.SetStatus(id, status); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if remark := r.FormValue(fmt.Sprintf("remark_%d", id)); remark != "" {
			sess.SetRemark(id, remark)
		}
		if dateStr := r.FormValue(fmt.Sprintf("date_%d", id)); dateStr != "" {
			if d, err := time.Parse("2006-01-02", dateStr); err == nil {
				sess.SetChangedBefore(id, d)
			}
		}
		if file, _, err := r.FormFile(fmt.Sprintf("image_%d", id)); err == nil {
			data, readErr := io.ReadAll(file)
			file.Close()
			if readErr == nil && len(data) > 0 {
				if _, err := sess.AttachImage(id, data); err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
			}
		}
	}

	summary, err := sess.Commit(h.engine.Now())
	if errors.Is(err, audit.ErrNothingToAudit) {
		http.Redirect(w, r, "/audit?msg="+url.QueryEscape("No items to audit."), http.StatusSeeOther)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	msg := fmt.Sprintf("Audit #%d completed! %d items checked, %d issues logged",
		summary.AuditNo, summary.TotalItems, summary.IssuesFound)
	http.Redirect(w, r, "/?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}
