package parley

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/parley-sh/parley/internal/logging"
	"github.com/parley-sh/parley/pkg/adapters/readline"
	"github.com/parley-sh/parley/pkg/ports"
	"github.com/parley-sh/parley/pkg/prompt"
)

// ContentRenderer transforms help text before display. This allows TUI
// rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// LifecycleHooks let a host observe command execution without coupling the
// core to any observability stack.
type LifecycleHooks struct {
	// OnCommandStart fires after resolution, right before the action runs.
	OnCommandStart func(command string, args *Args)

	// OnCommandComplete fires after the action's completion sink delivers.
	OnCommandComplete func(command string, err error, elapsed time.Duration)

	// OnLog fires for every log call, after the pipe transform.
	OnLog func(args []any)
}

// Shell is the command registry, execution queue and REPL entry point.
// The zero value is not usable; construct with New.
type Shell struct {
	mu       sync.RWMutex
	commands []*Command
	aliases  map[string]*Command

	session  *prompt.Session
	editor   ports.LineEditor
	history  ports.HistoryStore
	logger    *slog.Logger
	hooks     LifecycleHooks
	renderer  ContentRenderer
	delimiter string

	// Active mode command and the delimiter to restore on exit.
	mode          *Command
	modeDelimiter string

	// In-memory history cache for arrow-key navigation.
	histMu    sync.Mutex
	histLines []string
	histIndex int
	histDraft string

	keypressMu sync.Mutex
	keypress   []func(ports.KeypressEvent)

	quitMu sync.Mutex
	quit   func()

	qmu      sync.Mutex
	qitems   []*execRequest
	qrunning bool
}

// Option defines a functional option for configuring the Shell.
type Option func(*Shell)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithLineEditor injects the line-editing capability. Defaults to the
// terminal readline adapter on Stdin/Stdout.
func WithLineEditor(editor ports.LineEditor) Option {
	return func(s *Shell) {
		s.editor = editor
	}
}

// WithSession injects an explicitly constructed prompt session, for hosts
// that share one session across several components.
func WithSession(session *prompt.Session) Option {
	return func(s *Shell) {
		s.session = session
	}
}

// WithHistory enables history persistence through the given store.
func WithHistory(store ports.HistoryStore) Option {
	return func(s *Shell) {
		s.history = store
	}
}

// WithDelimiter sets the prompt delimiter (default "parley$ ").
func WithDelimiter(d string) Option {
	return func(s *Shell) {
		s.delimiter = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks LifecycleHooks) Option {
	return func(s *Shell) {
		s.hooks = hooks
	}
}

// WithHelpRenderer sets a transform applied to help text before display,
// e.g. a markdown renderer.
func WithHelpRenderer(r ContentRenderer) Option {
	return func(s *Shell) {
		s.renderer = r
	}
}

// New initializes a new Shell with the built-in help, exit and repl
// commands registered.
func New(opts ...Option) *Shell {
	s := &Shell{
		aliases:   make(map[string]*Command),
		logger:    logging.NewNop(),
		delimiter: "parley$ ",
		histIndex: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.editor == nil {
		if s.session != nil {
			s.editor = s.session.Editor()
		} else {
			s.editor = readline.New(readline.Config{})
		}
	}
	if s.session == nil {
		s.session = prompt.NewSession(s.editor,
			prompt.WithDelimiter(s.delimiter),
			prompt.WithLogger(s.logger),
		)
	}

	s.editor.OnKeypress(s.handleKeypress)
	s.registerBuiltins()
	return s
}

// Session returns the prompt session owned by this shell.
func (s *Shell) Session() *prompt.Session {
	return s.session
}

// Command registers a command under the literal words of name; placeholder
// tokens in name declare the positional signature, e.g.
//
//	sh.Command("say <words...>", "Says something")
//
// Registering a name already present replaces the prior command's action and
// description in place, preserving its position in the registry; existing
// aliases re-point to the new registration. Invalid registration strings
// panic, as registration happens at program setup time.
func (s *Shell) Command(name, description string) *Command {
	words, sig, err := parseSignature(name)
	if err != nil {
		panic("parley: " + err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.Join(words, " ")
	for _, existing := range s.commands {
		if existing.Name() == key {
			existing.description = description
			existing.sig = sig
			existing.flags = nil
			existing.action = nil
			existing.onLine = nil
			return existing
		}
	}

	cmd := &Command{
		shell:       s,
		words:       words,
		description: description,
		sig:         sig,
	}
	s.commands = append(s.commands, cmd)
	return cmd
}

// Find returns the command registered under the normalized name, or nil.
func (s *Shell) Find(name string) *Command {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.commands {
		if c.Name() == key {
			return c
		}
	}
	return nil
}

// Commands returns the registered commands in registration order.
func (s *Shell) Commands() []*Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// resolve finds the registered name or alias that is the longest
// literal-word prefix of tokens. It returns the command and the remaining
// tokens, or nil when nothing matches.
func (s *Shell) resolve(tokens []string) (*Command, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(tokens); i >= 1; i-- {
		key := strings.ToLower(strings.Join(tokens[:i], " "))
		for _, c := range s.commands {
			if c.Name() == key {
				return c, tokens[i:]
			}
		}
		if c, ok := s.aliases[key]; ok {
			return c, tokens[i:]
		}
	}
	return nil, tokens
}

// SetPipe installs the single transform through which all log output is
// funneled before reaching the display surface. Returning an empty result
// suppresses the output. The last writer wins.
func (s *Shell) SetPipe(pipe prompt.Pipe) {
	s.session.SetPipe(pipe)
}

// Log prints through the pipeline, coordinating with any live prompt line.
func (s *Shell) Log(args ...any) {
	if s.hooks.OnLog != nil {
		s.hooks.OnLog(args)
	}
	s.session.Log(args...)
}

// OnKeypress registers a handler for every intercepted keystroke, for
// consumers implementing history or completion.
func (s *Shell) OnKeypress(fn func(ports.KeypressEvent)) {
	s.keypressMu.Lock()
	s.keypress = append(s.keypress, fn)
	s.keypressMu.Unlock()
}

// handleKeypress fans events out to consumers and implements built-in
// history navigation when a history store is attached.
func (s *Shell) handleKeypress(e ports.KeypressEvent) {
	s.keypressMu.Lock()
	handlers := make([]func(ports.KeypressEvent), len(s.keypress))
	copy(handlers, s.keypress)
	s.keypressMu.Unlock()
	for _, fn := range handlers {
		fn(e)
	}

	switch e.Key {
	case "up":
		s.historyStep(-1, e.Value)
	case "down":
		s.historyStep(1, e.Value)
	}
}

func (s *Shell) historyStep(delta int, current string) {
	if !s.session.MidPrompt() {
		return
	}
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if len(s.histLines) == 0 {
		return
	}

	if s.histIndex == -1 {
		if delta > 0 {
			return
		}
		s.histDraft = current
		s.histIndex = len(s.histLines)
	}
	s.histIndex += delta

	var content string
	switch {
	case s.histIndex < 0:
		s.histIndex = 0
		content = s.histLines[0]
	case s.histIndex >= len(s.histLines):
		s.histIndex = -1
		content = s.histDraft
	default:
		content = s.histLines[s.histIndex]
	}
	s.editor.Render(s.session.Delimiter(), content, len([]rune(content)))
}

func (s *Shell) rememberLine(line string) {
	s.histMu.Lock()
	s.histLines = append(s.histLines, line)
	s.histIndex = -1
	s.histDraft = ""
	s.histMu.Unlock()
}

// renderHelp applies the optional content renderer to help text.
func (s *Shell) renderHelp(text string) string {
	if s.renderer == nil {
		return text
	}
	rendered, err := s.renderer(text)
	if err != nil {
		return text
	}
	return rendered
}

func titleWord(name string) string {
	if name == "repl" {
		return "REPL"
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// enterMode switches the shell into the command's nested interactive mode.
func (s *Shell) enterMode(cmd *Command) {
	s.mu.Lock()
	s.mode = cmd
	s.modeDelimiter = s.session.Delimiter()
	s.mu.Unlock()

	s.session.SetDelimiter(cmd.Name() + ": ")
	s.Log(fmt.Sprintf("Entering %s Mode", titleWord(cmd.Name())))
}

// exitMode leaves the active mode and restores the prior delimiter.
func (s *Shell) exitMode() {
	s.mu.Lock()
	restore := s.modeDelimiter
	s.mode = nil
	s.modeDelimiter = ""
	s.mu.Unlock()
	if restore != "" {
		s.session.SetDelimiter(restore)
	}
}

// ActiveMode returns the mode command currently owning the input stream,
// or nil when the shell is in normal command dispatch.
func (s *Shell) ActiveMode() *Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Shell) requestQuit() {
	s.quitMu.Lock()
	quit := s.quit
	s.quitMu.Unlock()
	if quit != nil {
		quit()
	}
}
