package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/parley-sh/parley/internal/logging"
	"github.com/parley-sh/parley/pkg/ports"
)

// State identifies the coordinator's position in its lifecycle.
type State int

const (
	// StateDetached means no shell instance owns the session.
	StateDetached State = iota
	// StateIdle means the session is attached but no line is live.
	StateIdle
	// StatePrompting means a live, editable input line is awaiting an answer.
	StatePrompting
	// StatePaused means the live line is hidden but its content is retained.
	StatePaused
)

// ErrReentrantPrompt is returned when a new live line is requested while one
// is already active. This is a programming error on the caller's side; the
// session state is left untouched.
var ErrReentrantPrompt = errors.New("prompt already active")

// ErrRefreshed is the cancellation cause when a live line is abandoned by
// Refresh so a fresh one can be started.
var ErrRefreshed = errors.New("prompt refreshed")

// ErrCancelled is the cancellation cause when a live line is abandoned
// for good via Cancel.
var ErrCancelled = errors.New("prompt cancelled")

// Pipe transforms a log call's argument list before display. Returning an
// empty slice suppresses the output entirely.
type Pipe func(args []any) []any

// Session coordinates at most one live input line with asynchronous log
// output. It owns no terminal state itself; all drawing goes through the
// injected ports.LineEditor.
//
// A Session is constructed explicitly and passed by reference to every
// component that needs it. At most one owner may be attached at a time;
// the mid-prompt flag is an advisory lock, and violating it surfaces as
// ErrReentrantPrompt rather than corrupted state.
type Session struct {
	mu        sync.Mutex
	editor    ports.LineEditor
	logger    *slog.Logger
	owner     any
	state     State
	midPrompt bool
	cancelled bool
	delimiter string
	pipe      Pipe
	content   string
	cancel    context.CancelCauseFunc
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a structured logger for internal events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDelimiter sets the initial prompt delimiter.
func WithDelimiter(d string) Option {
	return func(s *Session) {
		s.delimiter = d
	}
}

// WithPipe installs the initial log transform.
func WithPipe(pipe Pipe) Option {
	return func(s *Session) {
		s.pipe = pipe
	}
}

// NewSession creates a session bound to the given line editor.
func NewSession(editor ports.LineEditor, opts ...Option) *Session {
	s := &Session{
		editor:    editor,
		logger:    logging.NewNop(),
		state:     StateDetached,
		delimiter: "> ",
	}
	for _, opt := range opts {
		opt(s)
	}

	// Track the live buffer so Pause can return it without asking the
	// editor to expose its internals.
	editor.OnKeypress(func(e ports.KeypressEvent) {
		s.mu.Lock()
		if s.state == StatePrompting {
			s.content = e.Value
		}
		s.mu.Unlock()
	})
	return s
}

// Editor returns the line editor the session was constructed with.
func (s *Session) Editor() ports.LineEditor {
	return s.editor
}

// Attach makes owner the session's owning shell instance and refreshes any
// stray live line so the owner starts from a clean prompt.
func (s *Session) Attach(owner any) {
	s.mu.Lock()
	s.owner = owner
	if s.state == StateDetached {
		s.state = StateIdle
	}
	s.refreshLocked()
	s.mu.Unlock()
}

// Detach clears the owning reference only if owner matches the currently
// attached owner; otherwise it is a no-op.
func (s *Session) Detach(owner any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != owner {
		return
	}
	s.owner = nil
	if !s.midPrompt {
		s.state = StateDetached
	}
}

// Attached reports whether owner is the current owning instance.
func (s *Session) Attached(owner any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == owner
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MidPrompt reports whether a live line is currently active.
func (s *Session) MidPrompt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.midPrompt
}

// SetDelimiter changes the prefix shown before the cursor on subsequent
// prompts.
func (s *Session) SetDelimiter(d string) {
	s.mu.Lock()
	s.delimiter = d
	s.mu.Unlock()
}

// Delimiter returns the current prompt delimiter.
func (s *Session) Delimiter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delimiter
}

// SetPipe installs the transform applied to every Log call before display.
// Only one transform is active at a time; the last writer wins. Passing nil
// removes the transform.
func (s *Session) SetPipe(pipe Pipe) {
	s.mu.Lock()
	s.pipe = pipe
	s.mu.Unlock()
}

// Prompt starts a live input line and blocks until it is answered or
// abandoned. Requesting a prompt while one is already active returns
// ErrReentrantPrompt without touching the live line.
//
// When the line is abandoned by Refresh, the returned error wraps
// ErrRefreshed and the returned string carries the typed content, so the
// caller can start a fresh prompt with it as the initial content.
func (s *Session) Prompt(ctx context.Context, p ports.Prompt) (string, error) {
	s.mu.Lock()
	if s.midPrompt {
		s.mu.Unlock()
		return "", ErrReentrantPrompt
	}
	if p.Delimiter == "" {
		p.Delimiter = s.delimiter
	}
	cctx, cancel := context.WithCancelCause(ctx)
	s.midPrompt = true
	s.cancelled = false
	s.state = StatePrompting
	s.content = p.Initial
	s.cancel = cancel
	s.mu.Unlock()

	answer, err := s.editor.ReadLine(cctx, p)
	cancel(nil)

	s.mu.Lock()
	s.midPrompt = false
	s.cancel = nil
	typed := s.content
	s.content = ""
	if s.owner == nil {
		s.state = StateDetached
	} else {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if err != nil {
		// Surface the abandonment cause rather than the generic
		// context error so callers can distinguish refresh from
		// cancellation.
		if cause := context.Cause(cctx); cause != nil && !errors.Is(cause, context.Canceled) {
			if errors.Is(cause, ErrRefreshed) {
				// The typed content travels with the refresh outcome;
				// it is never discarded silently.
				return typed, cause
			}
			if errors.Is(cause, ErrCancelled) {
				return "", cause
			}
		}
		return "", err
	}
	return answer, nil
}

// Refresh abandons the current live line (marking it answered and cleaned)
// so that a fresh prompt can start. It is a no-op when not attached or when
// no line is live. Typed content is handed back to the prompting caller
// through the ErrRefreshed outcome, never discarded silently here.
func (s *Session) Refresh() {
	s.mu.Lock()
	s.refreshLocked()
	s.mu.Unlock()
}

func (s *Session) refreshLocked() {
	if s.owner == nil || !s.midPrompt || s.cancel == nil {
		return
	}
	s.editor.Clean()
	s.cancel(ErrRefreshed)
}

// Cancel force-abandons the current live line. Unlike Refresh, the caller is
// not expected to restart it.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.midPrompt || s.cancel == nil {
		return
	}
	s.cancelled = true
	s.editor.Clean()
	s.cancel(ErrCancelled)
}

// Cancelled reports whether the last live line was abandoned via Cancel.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Pause hides the live line, retaining and returning its typed content so
// the caller can later Resume it. Returns the empty string when no line is
// live.
func (s *Session) Pause() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseLocked()
}

func (s *Session) pauseLocked() string {
	if s.state != StatePrompting {
		return ""
	}
	s.state = StatePaused
	s.editor.Clean()
	return s.content
}

// Resume restores a previously paused line with the given content,
// re-rendering it and placing the cursor at the content's end.
func (s *Session) Resume(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumeLocked(content)
}

func (s *Session) resumeLocked(content string) {
	if s.state != StatePaused {
		return
	}
	s.state = StatePrompting
	s.content = content
	s.editor.Render(s.delimiter, content, len([]rune(content)))
}

// Log prints through the installed pipe. When a live line is active it is
// paused first and resumed afterwards, so asynchronous output never corrupts
// the in-progress line.
func (s *Session) Log(args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipe != nil {
		args = s.pipe(args)
		if len(args) == 0 {
			return
		}
		// A single empty string is the conventional "suppress" result.
		if len(args) == 1 {
			if str, ok := args[0].(string); ok && str == "" {
				return
			}
		}
	}
	line := fmt.Sprintln(args...)

	if s.state == StatePrompting {
		content := s.pauseLocked()
		s.editor.Write(line)
		s.resumeLocked(content)
		return
	}
	s.editor.Write(line)
}
