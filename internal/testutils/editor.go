// Package testutils provides shared fakes for exercising the shell without
// a real terminal.
package testutils

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/parley-sh/parley/pkg/ports"
)

// FakeEditor is a scripted ports.LineEditor. Answers are fed through a
// channel; display operations are recorded for assertions.
type FakeEditor struct {
	mu       sync.Mutex
	lines    chan string
	handlers []func(ports.KeypressEvent)
	ops      []string
	output   strings.Builder
	buf      string
	cursor   int
}

// NewFakeEditor creates an editor pre-fed with the given answer lines. The
// feed stays open; use Feed to add more or Close to signal EOF.
func NewFakeEditor(lines ...string) *FakeEditor {
	e := &FakeEditor{lines: make(chan string, 64)}
	for _, l := range lines {
		e.lines <- l
	}
	return e
}

// Feed queues another answer line.
func (e *FakeEditor) Feed(line string) {
	e.lines <- line
}

// Close ends the input; pending lines are still delivered first.
func (e *FakeEditor) Close() {
	close(e.lines)
}

func (e *FakeEditor) record(op string) {
	e.mu.Lock()
	e.ops = append(e.ops, op)
	e.mu.Unlock()
}

// Ops returns the recorded display operations in order.
func (e *FakeEditor) Ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ops...)
}

// Output returns everything written to the display surface.
func (e *FakeEditor) Output() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.output.String()
}

// Press simulates a keystroke, updating the working buffer and notifying
// subscribers.
func (e *FakeEditor) Press(key, value string) {
	e.mu.Lock()
	e.buf = value
	e.cursor = len(value)
	handlers := make([]func(ports.KeypressEvent), len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()
	ev := ports.KeypressEvent{Key: key, Value: strings.TrimSpace(value)}
	for _, fn := range handlers {
		fn(ev)
	}
}

// ReadLine pops the next scripted answer, honoring context cancellation.
func (e *FakeEditor) ReadLine(ctx context.Context, p ports.Prompt) (string, error) {
	e.record("readline:" + p.Delimiter)
	if p.Initial != "" {
		e.record("initial:" + p.Initial)
		e.mu.Lock()
		e.buf = p.Initial
		e.cursor = len(p.Initial)
		e.mu.Unlock()
	}
	select {
	case <-ctx.Done():
		if cause := context.Cause(ctx); cause != nil {
			return "", cause
		}
		return "", ctx.Err()
	case line, ok := <-e.lines:
		if !ok {
			return "", io.EOF
		}
		e.mu.Lock()
		e.buf = ""
		e.cursor = 0
		e.mu.Unlock()
		return line, nil
	}
}

// OnKeypress registers a keystroke handler.
func (e *FakeEditor) OnKeypress(fn func(ports.KeypressEvent)) {
	e.mu.Lock()
	e.handlers = append(e.handlers, fn)
	e.mu.Unlock()
}

// Render records the redraw and replaces the working buffer.
func (e *FakeEditor) Render(delimiter, content string, cursor int) {
	e.mu.Lock()
	e.buf = content
	e.cursor = cursor
	e.ops = append(e.ops, fmt.Sprintf("render:%s%s@%d", delimiter, content, cursor))
	e.mu.Unlock()
}

// Clean records the erase.
func (e *FakeEditor) Clean() {
	e.record("clean")
}

// Write records and accumulates display output.
func (e *FakeEditor) Write(s string) {
	e.mu.Lock()
	e.ops = append(e.ops, "write:"+s)
	e.output.WriteString(s)
	e.mu.Unlock()
}

// CursorPosition reports the cursor offset within the working buffer.
func (e *FakeEditor) CursorPosition() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// SetCursorPosition moves the cursor, clamped to the buffer bounds.
func (e *FakeEditor) SetCursorPosition(pos int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.buf) {
		pos = len(e.buf)
	}
	e.cursor = pos
}

// Buffer returns the current working buffer.
func (e *FakeEditor) Buffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf
}
