package parley

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parley-sh/parley/pkg/ports"
	"github.com/parley-sh/parley/pkg/prompt"
)

// registerBuiltins installs the help, exit and repl commands every shell
// carries.
func (s *Shell) registerBuiltins() {
	s.Command("help [command...]", "Provides help for a given command.").
		Action(func(ctx context.Context, args *Args) (any, error) {
			if words := args.Strings("command"); len(words) > 0 {
				cmd := s.Find(strings.Join(words, " "))
				if cmd == nil {
					s.Log("Invalid Command. Showing Help:")
					s.Log(s.renderHelp(s.HelpText()))
					return nil, nil
				}
				s.Log(s.renderHelp(s.commandHelp(cmd)))
				return nil, nil
			}
			s.Log(s.renderHelp(s.HelpText()))
			return nil, nil
		})

	s.Command("exit", "Exits the shell.").
		Alias("quit").
		Action(func(ctx context.Context, args *Args) (any, error) {
			s.requestQuit()
			return nil, nil
		})

	s.Command("repl", "Enters REPL mode; each line is evaluated and echoed.").
		OnLine(func(ctx context.Context, line string) error {
			s.Log(line)
			return nil
		})
}

// Show runs the interactive loop on a background context. It blocks until
// the user exits or input is exhausted.
func (s *Shell) Show() error {
	return s.Run(context.Background())
}

// Run attaches the shell to its prompt session and processes input lines
// until ctx is cancelled, the exit command runs, or the editor reports EOF.
// Prompt-level errors are logged and recovered from; they never take the
// owning process down.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.quitMu.Lock()
	s.quit = cancel
	s.quitMu.Unlock()
	defer func() {
		s.quitMu.Lock()
		s.quit = nil
		s.quitMu.Unlock()
	}()

	s.session.Attach(s)
	defer s.session.Detach(s)

	s.loadHistory(ctx)

	consecutiveErrors := 0
	initial := ""
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := s.session.Prompt(ctx, ports.Prompt{
			Delimiter: s.session.Delimiter(),
			Initial:   initial,
		})
		initial = ""
		switch {
		case errors.Is(err, prompt.ErrRefreshed):
			// The refreshed line's typed content comes back as the answer;
			// restart the prompt with it instead of dropping it.
			initial = line
			continue
		case errors.Is(err, prompt.ErrCancelled):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			consecutiveErrors++
			s.logger.Error("prompt failed", "err", err)
			if consecutiveErrors >= 3 {
				return fmt.Errorf("prompt failed repeatedly: %w", err)
			}
			continue
		}
		consecutiveErrors = 0

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.rememberLine(line)
		s.appendHistory(ctx, line)

		if mode := s.ActiveMode(); mode != nil {
			if line == "exit" {
				s.exitMode()
				continue
			}
			if err := mode.onLine(ctx, line); err != nil {
				s.Log(fmt.Sprintf("Error: %v", err))
			}
			continue
		}

		if _, err := s.Exec(line).Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.Log(fmt.Sprintf("Error: %v", err))
		}
	}
}

func (s *Shell) loadHistory(ctx context.Context) {
	if s.history == nil {
		return
	}
	lines, err := s.history.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load history", "err", err)
		return
	}
	s.histMu.Lock()
	s.histLines = append(lines, s.histLines...)
	s.histMu.Unlock()
}

func (s *Shell) appendHistory(ctx context.Context, line string) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, line); err != nil {
		s.logger.Warn("failed to persist history line", "err", err)
	}
}
