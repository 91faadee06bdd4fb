package ports

import "context"

// Prompt describes a single live input line request.
type Prompt struct {
	// Delimiter is the prefix string shown before the cursor (e.g. "app$ ").
	Delimiter string

	// Initial is pre-typed content restored into the line, with the cursor
	// placed at its end. Used when resuming a paused line.
	Initial string
}

// KeypressEvent is emitted on every intercepted keystroke.
type KeypressEvent struct {
	// Key is the symbolic key name ("up", "down", "tab", "backspace") or the
	// literal rune for printable input.
	Key string

	// Value is the trimmed content of the line at the time of the keypress.
	Value string
}

// LineEditor is the injected line-editing capability. It owns the terminal
// rendering of a single input line; the prompt coordinator composes with it
// and never touches the terminal directly.
//
// Render, Clean and Write may be called from a different goroutine than the
// one blocked in ReadLine; implementations must tolerate that interleaving.
type LineEditor interface {
	// ReadLine displays the prompt and blocks until the user answers the
	// line, the context is cancelled, or input is exhausted (io.EOF).
	ReadLine(ctx context.Context, p Prompt) (string, error)

	// OnKeypress registers a handler invoked for every intercepted
	// keystroke. Multiple handlers may be registered; they are invoked in
	// registration order.
	OnKeypress(fn func(KeypressEvent))

	// Render redraws the line as delimiter + content and places the cursor
	// at the given offset within content. It also replaces the editor's
	// working buffer, so a subsequent answer reflects content.
	Render(delimiter, content string, cursor int)

	// Clean erases the currently displayed line without discarding the
	// working buffer.
	Clean()

	// Write emits text to the display surface at the current position.
	Write(s string)

	// CursorPosition reports the cursor offset within the working buffer.
	CursorPosition() int

	// SetCursorPosition moves the cursor within the working buffer. Values
	// are clamped to the buffer bounds.
	SetCursorPosition(pos int)
}
