package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func parseRowID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "rowID"))
}

// pageData assembles the fields every page template expects.
func (h *Handlers) pageData(r *http.Request, page string, extra map[string]interface{}) map[string]interface{} {
	operator, _ := h.sessions.getOperator(r)
	data := map[string]interface{}{
		"Page":     page,
		"Operator": operator,
		"Flash":    r.URL.Query().Get("msg"),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}
