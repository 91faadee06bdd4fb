// Package readline provides the default terminal implementation of the
// ports.LineEditor capability: a raw-mode line editor with cursor movement,
// keypress interception and clean pause/redraw semantics. When the input is
// not a terminal (pipes, tests) it degrades to plain buffered line reads.
package readline

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/term"

	"github.com/parley-sh/parley/pkg/ports"
)

// Config configures the editor. Zero values mean Stdin/Stdout.
type Config struct {
	In  io.Reader
	Out io.Writer
}

// key is one decoded keystroke from the input stream.
type key struct {
	name string // symbolic name for control keys, "" for printable runes
	r    rune
}

// Editor implements ports.LineEditor on a terminal.
type Editor struct {
	mu        sync.Mutex
	in        io.Reader
	out       io.Writer
	fd        int
	isTerm    bool
	rawActive bool

	buf       []rune
	cursor    int
	delimiter string
	visible   bool

	handlers []func(ports.KeypressEvent)

	readerOnce sync.Once
	keys       chan key
	readErr    error

	plainReader *bufio.Reader
}

var _ ports.LineEditor = (*Editor)(nil)

// New creates an editor over the configured streams.
func New(cfg Config) *Editor {
	e := &Editor{
		in:   cfg.In,
		out:  cfg.Out,
		fd:   -1,
		keys: make(chan key, 64),
	}
	if e.in == nil {
		e.in = os.Stdin
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if f, ok := e.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		e.fd = int(f.Fd())
		e.isTerm = true
	}
	return e
}

// OnKeypress registers a keystroke handler.
func (e *Editor) OnKeypress(fn func(ports.KeypressEvent)) {
	e.mu.Lock()
	e.handlers = append(e.handlers, fn)
	e.mu.Unlock()
}

// emit invokes handlers outside the editor lock so handlers may call back
// into Render/Clean without deadlocking.
func (e *Editor) emit(name, value string) {
	e.mu.Lock()
	handlers := make([]func(ports.KeypressEvent), len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()
	ev := ports.KeypressEvent{Key: name, Value: strings.TrimSpace(value)}
	for _, fn := range handlers {
		fn(ev)
	}
}

// ReadLine displays the prompt and collects one answered line.
func (e *Editor) ReadLine(ctx context.Context, p ports.Prompt) (string, error) {
	if !e.isTerm {
		return e.readPlain(ctx, p)
	}
	return e.readRaw(ctx, p)
}

// readPlain is the degraded path for non-terminal input.
func (e *Editor) readPlain(ctx context.Context, p ports.Prompt) (string, error) {
	e.mu.Lock()
	e.write(p.Delimiter)
	if e.plainReader == nil {
		e.plainReader = bufio.NewReader(e.in)
	}
	reader := e.plainReader
	e.mu.Unlock()

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		if cause := context.Cause(ctx); cause != nil {
			return "", cause
		}
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && res.line == "" {
			return "", res.err
		}
		return strings.TrimRight(res.line, "\r\n"), nil
	}
}

// readRaw is the interactive terminal path.
func (e *Editor) readRaw(ctx context.Context, p ports.Prompt) (string, error) {
	oldState, err := term.MakeRaw(e.fd)
	if err != nil {
		return "", err
	}
	defer func() {
		e.mu.Lock()
		e.rawActive = false
		e.mu.Unlock()
		_ = term.Restore(e.fd, oldState)
	}()

	e.startReader()

	e.mu.Lock()
	e.rawActive = true
	e.delimiter = p.Delimiter
	e.buf = []rune(p.Initial)
	e.cursor = len(e.buf)
	e.visible = true
	e.draw()
	e.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.visible = false
			e.write("\r\n")
			e.mu.Unlock()
			if cause := context.Cause(ctx); cause != nil {
				return "", cause
			}
			return "", ctx.Err()
		case k, ok := <-e.keys:
			if !ok {
				e.mu.Lock()
				readErr := e.readErr
				e.mu.Unlock()
				if readErr == nil {
					readErr = io.EOF
				}
				return "", readErr
			}
			if line, done, err := e.handleKey(k); done {
				return line, err
			}
		}
	}
}

// handleKey applies one keystroke to the working buffer. It reports whether
// the line is finished.
func (e *Editor) handleKey(k key) (line string, done bool, err error) {
	e.mu.Lock()
	switch k.name {
	case "enter":
		answer := string(e.buf)
		e.buf = nil
		e.cursor = 0
		e.visible = false
		e.write("\r\n")
		e.mu.Unlock()
		e.emit("enter", answer)
		return answer, true, nil
	case "ctrl+c":
		e.buf = nil
		e.cursor = 0
		e.visible = false
		e.write("^C\r\n")
		e.mu.Unlock()
		e.emit("ctrl+c", "")
		return "", true, nil
	case "ctrl+d":
		if len(e.buf) == 0 {
			e.visible = false
			e.write("\r\n")
			e.mu.Unlock()
			return "", true, io.EOF
		}
		e.mu.Unlock()
		return "", false, nil
	case "backspace":
		if e.cursor > 0 {
			e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
			e.cursor--
			e.draw()
		}
	case "left":
		if e.cursor > 0 {
			e.cursor--
			e.draw()
		}
	case "right":
		if e.cursor < len(e.buf) {
			e.cursor++
			e.draw()
		}
	case "up", "down", "tab":
		// Consumed by keypress subscribers (history, completion).
	case "":
		if unicode.IsPrint(k.r) {
			e.buf = append(e.buf[:e.cursor], append([]rune{k.r}, e.buf[e.cursor:]...)...)
			e.cursor++
			e.draw()
		}
	}
	value := string(e.buf)
	e.mu.Unlock()

	name := k.name
	if name == "" {
		name = string(k.r)
	}
	e.emit(name, value)
	return "", false, nil
}

// startReader launches the goroutine that decodes raw bytes into keys. It
// persists for the life of the editor; keys typed between prompts queue up.
func (e *Editor) startReader() {
	e.readerOnce.Do(func() {
		go func() {
			reader := bufio.NewReader(e.in)
			for {
				r, _, err := reader.ReadRune()
				if err != nil {
					e.mu.Lock()
					e.readErr = err
					e.mu.Unlock()
					close(e.keys)
					return
				}
				switch r {
				case '\r', '\n':
					e.keys <- key{name: "enter"}
				case 0x7f, 0x08:
					e.keys <- key{name: "backspace"}
				case 0x03:
					e.keys <- key{name: "ctrl+c"}
				case 0x04:
					e.keys <- key{name: "ctrl+d"}
				case '\t':
					e.keys <- key{name: "tab"}
				case 0x1b:
					if next, _, err := reader.ReadRune(); err == nil && next == '[' {
						if code, _, err := reader.ReadRune(); err == nil {
							switch code {
							case 'A':
								e.keys <- key{name: "up"}
							case 'B':
								e.keys <- key{name: "down"}
							case 'C':
								e.keys <- key{name: "right"}
							case 'D':
								e.keys <- key{name: "left"}
							}
						}
					}
				default:
					e.keys <- key{r: r}
				}
			}
		}()
	})
}

// Render redraws the line with new content and cursor, replacing the
// working buffer.
func (e *Editor) Render(delimiter, content string, cursor int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delimiter = delimiter
	e.buf = []rune(content)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(e.buf) {
		cursor = len(e.buf)
	}
	e.cursor = cursor
	e.visible = true
	e.draw()
}

// Clean erases the displayed line, keeping the working buffer intact.
func (e *Editor) Clean() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.visible {
		return
	}
	e.visible = false
	e.write("\r\x1b[2K")
}

// Write emits text to the display surface.
func (e *Editor) Write(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.write(s)
}

// CursorPosition reports the cursor offset within the working buffer.
func (e *Editor) CursorPosition() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// SetCursorPosition moves the cursor, clamped to the buffer bounds.
func (e *Editor) SetCursorPosition(pos int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.buf) {
		pos = len(e.buf)
	}
	e.cursor = pos
	if e.visible {
		e.draw()
	}
}

// draw repaints the current line. Callers must hold e.mu.
func (e *Editor) draw() {
	e.write("\r\x1b[2K" + e.delimiter + string(e.buf))
	if back := len(e.buf) - e.cursor; back > 0 {
		e.write("\x1b[" + strconv.Itoa(back) + "D")
	}
}

// write sends raw text, translating newlines while the terminal is raw.
// Callers must hold e.mu.
func (e *Editor) write(s string) {
	if e.rawActive {
		s = strings.ReplaceAll(s, "\n", "\r\n")
		s = strings.ReplaceAll(s, "\r\r\n", "\r\n")
	}
	_, _ = io.WriteString(e.out, s)
}

