package www

import (
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"fixtureaudit/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	sessions *sessionStore
	tmpl     *template.Template
	eventHub *EventHub
}

// NewRouter creates the chi router and returns it along with a stop function.
func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: NewEventHub(),
	}

	funcMap := template.FuncMap{
		"fmtDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("02-01-2006")
		},
		"inputDate": func(t time.Time) string { return t.Format("2006-01-02") },
		"fmtStamp":  func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		// Evidence paths are stored as written (dir/file); serve by basename.
		"imageURL": func(p string) string { return "/images/" + filepath.Base(p) },
	}
	h.tmpl = template.Must(template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html"))

	h.eventHub.Start()
	h.eventHub.SetupEngineListeners(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Static files and evidence images (no auth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(StaticFS()))))
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(eng.Evidence().Dir()))))

	// SSE (no auth — shop floor dashboards)
	r.Get("/events", h.eventHub.HandleSSE)

	// Login/logout
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	// Pages and API require a signed-in operator
	r.Group(func(r chi.Router) {
		r.Use(h.operatorMiddleware)

		r.Get("/", h.handleDashboard)
		r.Get("/audit", h.handleAudit)
		r.Post("/audit/save", h.handleAuditSave)
		r.Get("/configure", h.handleConfigure)
		r.Get("/history", h.handleHistory)

		r.Route("/api", func(r chi.Router) {
			r.Get("/due", h.apiDueItems)
			r.Get("/selections", h.apiSelections)

			r.Post("/audit/open", h.apiAuditOpen)
			r.Get("/audit", h.apiAuditState)
			r.Post("/audit/rows/{rowID}/status", h.apiRowStatus)
			r.Post("/audit/rows/{rowID}/remark", h.apiRowRemark)
			r.Post("/audit/rows/{rowID}/date", h.apiRowDate)
			r.Post("/audit/rows/{rowID}/image", h.apiRowImage)
			r.Post("/audit/commit", h.apiAuditCommit)
			r.Post("/audit/discard", h.apiAuditDiscard)
		})
	})

	return r, func() {
		h.eventHub.Stop()
	}
}

func (h *Handlers) operatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator, ok := h.sessions.getOperator(r)
		if !ok || operator == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
