package engine

import (
	"sync"
	"time"

	"fixtureaudit/audit"
	"fixtureaudit/config"
	"fixtureaudit/cycles"
	"fixtureaudit/due"
	"fixtureaudit/store"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...interface{})

// Engine centralizes the audit business logic: it owns the stores, the
// per-operator sessions, and the event bus the presentation shell listens
// on. The shell supplies operator input and renders what the engine returns.
type Engine struct {
	cfg      *config.Config
	registry *store.Registry
	history  *store.History
	evidence *store.Evidence
	calc     cycles.Calculator
	logFn    LogFunc
	debugFn  LogFunc
	now      func() time.Time

	sessionMu sync.Mutex
	sessions  map[string]*audit.Session

	Events *EventBus
	emit   *auditEmitter
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig *config.Config
	Registry  *store.Registry
	History   *store.History
	Evidence  *store.Evidence
	LogFunc   LogFunc
	Debug     bool
	Now       func() time.Time // defaults to time.Now
}

// New creates a new Engine. Call Start() to wire event handlers.
func New(c Config) (*Engine, error) {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	debugFn := LogFunc(func(string, ...interface{}) {})
	if c.Debug {
		debugFn = logFn
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}
	restDay, err := c.AppConfig.RestWeekday()
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      c.AppConfig,
		registry: c.Registry,
		history:  c.History,
		evidence: c.Evidence,
		calc:     cycles.Calculator{RatePerDay: c.AppConfig.Cycles.RatePerDay, RestDay: restDay},
		logFn:    logFn,
		debugFn:  debugFn,
		now:      now,
		sessions: make(map[string]*audit.Session),
		Events:   NewEventBus(),
	}, nil
}

// Start wires the event chain and logs readiness.
func (e *Engine) Start() {
	e.emit = &auditEmitter{bus: e.Events}
	e.wireEventHandlers()
	e.logFn("Engine started: registry=%d rows threshold=%d rate=%d/day",
		e.registry.Len(), e.cfg.Cycles.DueThreshold, e.calc.RatePerDay)
}

// AppConfig returns the application configuration.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// Registry returns the master component registry.
func (e *Engine) Registry() *store.Registry { return e.registry }

// History returns the audit history trail.
func (e *Engine) History() *store.History { return e.history }

// Evidence returns the evidence image store.
func (e *Engine) Evidence() *store.Evidence { return e.evidence }

// Calculator returns the configured cycle calculator.
func (e *Engine) Calculator() cycles.Calculator { return e.calc }

// Now returns the engine's notion of current time.
func (e *Engine) Now() time.Time { return e.now() }

// DueItems computes the current due list from the registry.
func (e *Engine) DueItems() []due.Item {
	return due.Select(e.registry.Records(), e.calc, e.now(), e.cfg.Cycles.DueThreshold)
}

// CompletedToday counts history entries stamped with today's date.
func (e *Engine) CompletedToday() (int, error) {
	return e.history.CountSince(e.now().Format("2006-01-02"))
}

// Session returns the operator's audit session, creating it on first use.
// One session per operator; a committed or discarded session is reused for
// the operator's next audit.
func (e *Engine) Session(operator string) *audit.Session {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()
	s, ok := e.sessions[operator]
	if !ok {
		s = audit.NewSession(e.registry, e.history, e.evidence, e.calc, e.emit, operator)
		e.sessions[operator] = s
	}
	return s
}

// OpenAudit resets any stale session state for the operator, records the
// selection, and resolves it into a reviewing checklist.
func (e *Engine) OpenAudit(operator string, sel audit.Selection) (*audit.Session, error) {
	s := e.Session(operator)
	if s.State() != audit.StateEmpty {
		s.Discard()
	}
	if err := s.Select(sel); err != nil {
		return nil, err
	}
	if err := s.Review(e.now()); err != nil {
		s.Discard()
		return nil, err
	}
	return s, nil
}
