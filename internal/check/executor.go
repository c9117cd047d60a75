package check

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/buemura/advaudit/internal/requirement"
	"github.com/buemura/advaudit/internal/site"
	"github.com/buemura/advaudit/pkg/types"
	"go.uber.org/zap"
)

// State is a step of a single check execution.
type State string

const (
	StatePending    State = "pending"
	StateValidating State = "validating_requirements"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateSkipped || s == StateFailed
}

// ExecutionFault wraps anything a check did that breaks its contract: a
// returned error, a panic or a malformed result.
type ExecutionFault struct {
	CheckID  string
	Err      error
	Panic    any
	Location string
}

func (f *ExecutionFault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "check %q failed to execute: ", f.CheckID)
	if f.Panic != nil {
		fmt.Fprintf(&b, "panic: %v", f.Panic)
	} else {
		b.WriteString(f.Err.Error())
	}
	if f.Location != "" {
		fmt.Fprintf(&b, " (at %s)", f.Location)
	}
	return b.String()
}

func (f *ExecutionFault) Unwrap() error {
	return f.Err
}

// Executor runs one check at a time and always produces a result.
type Executor struct {
	registry  *Registry
	site      *site.Facts
	validator *requirement.Validator
	settings  SettingsStore
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSettings makes the executor honor per-check overrides.
func WithSettings(store SettingsStore) ExecutorOption {
	return func(e *Executor) { e.settings = store }
}

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeout bounds the time a single check may run.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// NewExecutor creates an executor for the checks of reg run against facts.
func NewExecutor(reg *Registry, facts *site.Facts, opts ...ExecutorOption) *Executor {
	if facts == nil {
		facts = &site.Facts{}
	}
	e := &Executor{
		registry:  reg,
		site:      facts,
		validator: requirement.NewValidator(facts),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the catalog the executor reads from.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Settings returns the override store, nil when none is configured.
func (e *Executor) Settings() SettingsStore {
	return e.settings
}

// Site returns the facts snapshot checks run against.
func (e *Executor) Site() *site.Facts {
	return e.site
}

type execution struct {
	checkID string
	state   State
	logger  *zap.Logger
}

func (x *execution) to(s State) {
	x.logger.Debug("check state", zap.String("check", x.checkID), zap.String("from", string(x.state)), zap.String("to", string(s)))
	x.state = s
}

// Execute runs the check identified by checkID with its per-check config.
// Unknown checks, unmet requirements and faulty checks all come back as a
// skip result; Execute never returns an error and never panics.
func (e *Executor) Execute(ctx context.Context, checkID string, cfg map[string]any) types.CheckResult {
	x := &execution{checkID: checkID, state: StatePending, logger: e.logger}
	started := e.now()

	result := e.execute(ctx, x, cfg)
	result.CheckID = checkID
	result.StartedAt = started
	result.CompletedAt = e.now()

	e.logger.Debug("check finished",
		zap.String("check", checkID),
		zap.String("state", string(x.state)),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration()))
	return result
}

func (e *Executor) execute(ctx context.Context, x *execution, cfg map[string]any) types.CheckResult {
	entry, err := e.registry.Get(x.checkID)
	if err != nil {
		x.to(StateSkipped)
		return types.Skip(x.checkID, err.Error())
	}
	if !entry.Available() {
		x.to(StateSkipped)
		return types.Skip(x.checkID, fmt.Sprintf("check unavailable: %v", entry.Unavailable))
	}

	def, err := Resolve(ctx, e.settings, entry.Definition)
	if err != nil {
		e.logger.Warn("using default check settings", zap.String("check", x.checkID), zap.Error(err))
	}
	if !def.Enabled {
		x.to(StateCompleted)
		return types.Ignore(x.checkID, "check is disabled")
	}

	x.to(StateValidating)
	if err := e.validator.Validate(def.Requirements); err != nil {
		x.to(StateSkipped)
		return types.Skip(x.checkID, err.Error())
	}

	x.to(StateRunning)
	req := Request{Definition: def, Site: e.site, Config: cfg, Timeout: e.timeout}
	result, fault := e.perform(ctx, entry.Check, req)
	if fault != nil {
		x.to(StateFailed)
		e.logger.Warn("check fault contained", zap.String("check", x.checkID), zap.Error(fault))
		return types.Skip(x.checkID, fault.Error())
	}

	if result.Status == types.StatusSkip {
		x.to(StateSkipped)
	} else {
		x.to(StateCompleted)
	}
	return result
}

func (e *Executor) perform(ctx context.Context, c Check, req Request) (result types.CheckResult, fault *ExecutionFault) {
	id := req.Definition.ID
	defer func() {
		if r := recover(); r != nil {
			fault = &ExecutionFault{CheckID: id, Panic: r, Location: panicLocation()}
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := c.Perform(ctx, req)
	if err != nil {
		return types.CheckResult{}, &ExecutionFault{CheckID: id, Err: err}
	}
	if res == nil {
		return types.CheckResult{}, &ExecutionFault{CheckID: id, Err: errors.New("check returned no result")}
	}
	switch res.Status {
	case types.StatusPass, types.StatusFail, types.StatusSkip:
	default:
		return types.CheckResult{}, &ExecutionFault{CheckID: id, Err: fmt.Errorf("check returned unexpected status %q", res.Status)}
	}
	if res.Status == types.StatusFail {
		if raw, ok := res.Arguments[types.IssuesArgument]; ok && raw != nil && res.IssueDetails() == nil {
			return types.CheckResult{}, &ExecutionFault{CheckID: id, Err: fmt.Errorf("malformed issues payload of type %T", raw)}
		}
	}
	if res.CheckID != "" && res.CheckID != id {
		return types.CheckResult{}, &ExecutionFault{CheckID: id, Err: fmt.Errorf("check returned a result for %q", res.CheckID)}
	}
	return *res, nil
}

// panicLocation returns file:line of the first non-runtime frame above the
// deferred recover.
func panicLocation() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			return fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		if !more {
			return ""
		}
	}
}
