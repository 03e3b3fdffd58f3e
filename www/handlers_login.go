package www

import "net/http"

func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// If already signed in, go straight to the dashboard
	if operator, ok := h.sessions.getOperator(r); ok && operator != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderTemplate(w, "login.html", map[string]interface{}{
		"Page": "login",
	})
}

// handleLogin records the employee id. There is no credential check; the
// gate exists only so findings carry an operator id.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	employeeID := r.FormValue("employee_id")
	if employeeID == "" {
		h.renderTemplate(w, "login.html", map[string]interface{}{
			"Page":  "login",
			"Error": "Employee ID is required",
		})
		return
	}
	h.sessions.setOperator(w, r, employeeID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if operator, ok := h.sessions.getOperator(r); ok && operator != "" {
		h.engine.Session(operator).Discard()
	}
	h.sessions.clear(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
