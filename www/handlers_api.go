package www

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"fixtureaudit/audit"
)

// --- Dashboard data ---

func (h *Handlers) apiDueItems(w http.ResponseWriter, r *http.Request) {
	completed, _ := h.engine.CompletedToday()
	writeJSON(w, map[string]interface{}{
		"due":             h.engine.DueItems(),
		"completed_today": completed,
		"threshold":       h.engine.AppConfig().Cycles.DueThreshold,
	})
}

// apiSelections returns the drill-down vocabulary for the audit page.
func (h *Handlers) apiSelections(w http.ResponseWriter, r *http.Request) {
	line := r.URL.Query().Get("line")
	subAssembly := r.URL.Query().Get("sub_assembly")
	writeJSON(w, map[string]interface{}{
		"lines":          h.engine.Lines(),
		"sub_assemblies": h.engine.SubAssemblies(line),
		"fixtures":       h.engine.FixtureNos(line, subAssembly),
		"stations":       h.engine.Stations(line, subAssembly),
	})
}

// --- Audit session operations ---

func (h *Handlers) operatorSession(r *http.Request) *audit.Session {
	operator, _ := h.sessions.getOperator(r)
	return h.engine.Session(operator)
}

func (h *Handlers) apiAuditOpen(w http.ResponseWriter, r *http.Request) {
	var sel audit.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	operator, _ := h.sessions.getOperator(r)
	sess, err := h.engine.OpenAudit(operator, sel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"token":    sess.Token(),
		"audit_no": sess.AuditNo(),
		"rows":     sess.Rows(h.engine.Now()),
	})
}

func (h *Handlers) apiAuditState(w http.ResponseWriter, r *http.Request) {
	sess := h.operatorSession(r)
	writeJSON(w, map[string]interface{}{
		"state":     sess.State(),
		"audit_no":  sess.AuditNo(),
		"selection": sess.Selection(),
		"rows":      sess.Rows(h.engine.Now()),
	})
}

func (h *Handlers) apiRowStatus(w http.ResponseWriter, r *http.Request) {
	rowID, err := parseRowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row ID")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.operatorSession(r).SetStatus(rowID, req.Status); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiRowRemark(w http.ResponseWriter, r *http.Request) {
	rowID, err := parseRowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row ID")
		return
	}
	var req struct {
		Remark string `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.operatorSession(r).SetRemark(rowID, req.Remark); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiRowDate(w http.ResponseWriter, r *http.Request) {
	rowID, err := parseRowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row ID")
		return
	}
	var req struct {
		Date string `json:"date"` // YYYY-MM-DD
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if err := h.operatorSession(r).SetChangedBefore(rowID, d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiRowImage(w http.ResponseWriter, r *http.Request) {
	rowID, err := parseRowID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row ID")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	path, err := h.operatorSession(r).AttachImage(rowID, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "path": path})
}

func (h *Handlers) apiAuditCommit(w http.ResponseWriter, r *http.Request) {
	summary, err := h.operatorSession(r).Commit(h.engine.Now())
	if errors.Is(err, audit.ErrNothingToAudit) {
		writeError(w, http.StatusBadRequest, "nothing to audit")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, summary)
}

func (h *Handlers) apiAuditDiscard(w http.ResponseWriter, r *http.Request) {
	h.operatorSession(r).Discard()
	writeJSON(w, map[string]string{"status": "ok"})
}
