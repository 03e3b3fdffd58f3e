package www

import (
	"log"
	"net/http"
)

func (h *Handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dueItems := h.engine.DueItems()

	completedToday, err := h.engine.CompletedToday()
	if err != nil {
		log.Printf("completed-today count: %v", err)
	}

	h.renderTemplate(w, "dashboard.html", h.pageData(r, "dashboard", map[string]interface{}{
		"DueItems":       dueItems,
		"PendingAudits":  len(dueItems),
		"CompletedToday": completedToday,
		"Threshold":      h.engine.AppConfig().Cycles.DueThreshold,
	}))
}

func (h *Handlers) handleConfigure(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, "configure.html", h.pageData(r, "configure", map[string]interface{}{
		"Records": h.engine.Registry().Records(),
	}))
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.engine.History().Records()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.renderTemplate(w, "history.html", h.pageData(r, "history", map[string]interface{}{
		"Records": records,
	}))
}
