package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"shellmate/internal/domain"
	"shellmate/internal/infra/logger"
	"shellmate/internal/infra/tracer"
)

// Status texts shown to the user.
const (
	StatusWelcome       = "Ask me something or tell me what to do..."
	StatusEmptyQuery    = "Please enter a command or question."
	StatusThinking      = "Thinking…"
	StatusNothingToRun  = "Nothing to execute."
	StatusNoOutput      = "(no output)"
	StatusNothingToShow = "Command executed, nothing to report."
	StatusEmptyReply    = "Sorry, I couldn't process that."
)

// State is the orchestrator state.
type State int

const (
	StateIdle State = iota
	StateAwaitingModel
	StateAwaitingConfirmation
	StateExecuting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateExecuting:
		return "executing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether a background operation is in flight in this state.
func (s State) Busy() bool {
	return s == StateAwaitingModel || s == StateExecuting
}

// Operation identifies what a Completion resolves.
type Operation int

const (
	OpGenerate Operation = iota + 1
	OpExecute
)

func (o Operation) String() string {
	switch o {
	case OpGenerate:
		return "generate"
	case OpExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// Completion is the outcome of a Task, fed back through Session.Complete.
type Completion struct {
	RequestID string
	Op        Operation
	Reply     string // OpGenerate: raw model output
	Err       error  // OpGenerate: model failure
	Result    domain.ExecutionResult
}

// Task is one blocking background operation.
type Task func(ctx context.Context) Completion

// Dispatch runs task on its own goroutine and delivers its Completion on the
// returned channel, which is then closed.
func Dispatch(ctx context.Context, task Task) <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		defer close(ch)
		ch <- task(ctx)
	}()
	return ch
}

// Snapshot is a copy of the observable session record.
type Snapshot struct {
	State     State
	Query     string
	Busy      bool
	Status    string
	Pending   string                  // empty when no command awaits confirmation
	LastErr   error                   // most recent model failure, cleared by the next submit
	LastRun   *domain.ExecutionResult // most recent execution, cleared by the next submit
	RequestID string                  // in-flight request, empty when idle
}

// SessionDeps are the collaborators of a Session.
type SessionDeps struct {
	Generator    domain.CommandGenerator
	Executor     domain.CommandExecutor
	Persona      string
	Instructions string
	Model        string
	Logger       *slog.Logger
}

// Session is the single-user orchestrator. Submit and Confirm perform the
// synchronous half of a transition and return the Task to run in the
// background; Complete applies its result. All methods are safe for
// concurrent use.
type Session struct {
	mu      sync.Mutex
	deps    SessionDeps
	logger  *slog.Logger
	entropy io.Reader

	state    State
	query    string
	status   string
	pending  string
	lastErr  error
	lastRun  *domain.ExecutionResult
	inflight string
}

// NewSession creates a session in the idle state. Empty persona and
// instructions take the built-in defaults.
func NewSession(deps SessionDeps) *Session {
	deps.Persona = PromptOrDefault(deps.Persona, DefaultPersona)
	deps.Instructions = PromptOrDefault(deps.Instructions, DefaultInstructions)
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	now := time.Now()
	return &Session{
		deps:    deps,
		logger:  log,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0),
		state:   StateIdle,
		status:  StatusWelcome,
	}
}

// SetQuery replaces the current query text.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// Submit starts a model call for the current query. It returns a nil Task
// when there is nothing to do (empty query), and ErrSessionBusy while another
// operation is in flight.
func (s *Session) Submit() (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Busy() {
		return nil, domain.ErrSessionBusy
	}

	query := strings.TrimSpace(s.query)
	if query == "" {
		s.status = StatusEmptyQuery
		return nil, nil
	}

	id := s.newRequestID()
	s.state = StateAwaitingModel
	s.pending = ""
	s.lastErr = nil
	s.lastRun = nil
	s.status = StatusThinking
	s.inflight = id

	gen := s.deps.Generator
	req := domain.GenerateRequest{
		Query:        query,
		Persona:      s.deps.Persona,
		Instructions: s.deps.Instructions,
		Model:        s.deps.Model,
	}
	s.logger.Info("query submitted", "request_id", id, "generator", gen.Name())

	return func(ctx context.Context) Completion {
		ctx, span := tracer.StartSpan(ctx, "session.submit",
			trace.WithAttributes(
				tracer.StringAttr("request_id", id),
				tracer.StringAttr("generator", gen.Name()),
			),
		)
		defer span.End()

		reply, err := gen.Generate(ctx, req)
		tracer.SetResult(span, err)
		return Completion{RequestID: id, Op: OpGenerate, Reply: reply, Err: err}
	}, nil
}

// Confirm starts executing the pending command. With no pending command it
// only updates the status and returns a nil Task.
func (s *Session) Confirm() (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Busy() {
		return nil, domain.ErrSessionBusy
	}
	if s.pending == "" {
		s.status = StatusNothingToRun
		return nil, nil
	}

	id := s.newRequestID()
	command := s.pending
	s.state = StateExecuting
	s.status = "Executing: " + command
	s.inflight = id

	exec := s.deps.Executor
	s.logger.Info("command confirmed", "request_id", id)

	return func(ctx context.Context) Completion {
		ctx, span := tracer.StartSpan(ctx, "session.execute",
			trace.WithAttributes(tracer.StringAttr("request_id", id)),
		)
		defer span.End()

		res := exec.Execute(ctx, command)
		span.SetAttributes(tracer.IntAttr("shell.exit_code", res.ExitCode))
		tracer.SetResult(span, nil)
		return Completion{RequestID: id, Op: OpExecute, Result: res}
	}, nil
}

// Complete applies the outcome of a Task. Completions for anything other
// than the in-flight request are dropped.
func (s *Session) Complete(c Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight == "" || c.RequestID != s.inflight {
		s.logger.Debug("stale completion dropped", "request_id", c.RequestID, "op", c.Op.String())
		return
	}
	s.inflight = ""

	switch c.Op {
	case OpGenerate:
		s.completeGenerate(c)
	case OpExecute:
		s.completeExecute(c)
	}
}

func (s *Session) completeGenerate(c Completion) {
	s.state = StateIdle
	s.pending = ""

	if c.Err != nil {
		s.lastErr = c.Err
		s.status = "Error: " + c.Err.Error()
		s.logger.Warn("command generation failed",
			"request_id", c.RequestID,
			"code", domain.ErrorCodeOf(c.Err),
			"error", c.Err,
		)
		return
	}

	if domain.IsDeclined(c.Reply) {
		s.status = c.Reply
		s.logger.Info("request declined by model", "request_id", c.RequestID)
		return
	}

	command := strings.TrimSpace(c.Reply)
	if command == "" {
		s.status = StatusEmptyReply
		return
	}

	s.pending = command
	s.state = StateAwaitingConfirmation
	s.status = fmt.Sprintf("Generated Command:\n%s\n\nReview, then confirm to execute.", command)
	s.logger.Info("command generated", "request_id", c.RequestID, "lines", strings.Count(command, "\n")+1)
}

func (s *Session) completeExecute(c Completion) {
	s.state = StateIdle
	s.pending = ""
	s.status = executionStatus(c.Result)
	res := c.Result
	s.lastRun = &res
	s.logger.Info("command executed",
		"request_id", c.RequestID,
		"exit_code", c.Result.ExitCode,
		"launched", c.Result.Launched,
		"duration", c.Result.Duration,
	)
}

// executionStatus picks the status text for an execution result: error text
// first, then output, then a fixed note.
func executionStatus(r domain.ExecutionResult) string {
	switch {
	case r.HasError():
		return *r.Error
	case r.Output != nil && *r.Output == "":
		return StatusNoOutput
	case r.Output != nil:
		return *r.Output
	default:
		return StatusNothingToShow
	}
}

// Snapshot returns a copy of the observable record.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:     s.state,
		Query:     s.query,
		Busy:      s.state.Busy(),
		Status:    s.status,
		Pending:   s.pending,
		LastErr:   s.lastErr,
		LastRun:   s.lastRun,
		RequestID: s.inflight,
	}
}

// newRequestID returns a ULID. Callers hold s.mu.
func (s *Session) newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}
