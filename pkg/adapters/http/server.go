// Package http exposes a shell over HTTP, letting one shell instance be
// driven by another process. It is a thin control surface: POST /exec runs
// a command line, GET /commands lists what is registered.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/internal/logging"
)

// Server bridges HTTP requests into a shell's execution queue.
type Server struct {
	shell  *parley.Shell
	logger *slog.Logger

	// Serializes requests so the capture pipe installed per request does
	// not race another caller's. The queue itself already serializes the
	// actions; this protects the output transform.
	mu sync.Mutex
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a structured logger for request handling events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates an HTTP handler driving the given shell.
func NewHandler(shell *parley.Shell, opts ...Option) http.Handler {
	s := &Server{
		shell:  shell,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post("/exec", s.handleExec)
	r.Get("/commands", s.handleCommands)
	return r
}

type execRequest struct {
	Command string `json:"command"`
}

type execResponse struct {
	Result any    `json:"result,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type commandInfo struct {
	Name        string   `json:"name"`
	Usage       string   `json:"usage"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases,omitempty"`
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var body execRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("exec: invalid request body", "err", err)
		return
	}
	if strings.TrimSpace(body.Command) == "" {
		http.Error(w, "command is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Capture the command's output instead of printing it; the installed
	// pipe is removed before the next caller gets the lock.
	var output strings.Builder
	s.shell.SetPipe(func(args []any) []any {
		output.WriteString(fmt.Sprintln(args...))
		return nil
	})
	defer s.shell.SetPipe(nil)

	result, err := s.shell.ExecSync(r.Context(), body.Command)

	resp := execResponse{Result: result, Output: output.String()}
	status := http.StatusOK
	if err != nil && !isCancellation(r.Context(), err) {
		resp.Error = err.Error()
		status = http.StatusUnprocessableEntity
		s.logger.Warn("exec: command failed", "command", body.Command, "err", err)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	var infos []commandInfo
	for _, c := range s.shell.Commands() {
		infos = append(infos, commandInfo{
			Name:        c.Name(),
			Usage:       c.Usage(),
			Description: c.Description(),
			Aliases:     c.Aliases(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && err == ctx.Err()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
