package readline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-sh/parley/pkg/ports"
)

func TestReadPlainConsecutiveLines(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{In: strings.NewReader("one\ntwo\n"), Out: &out})
	ctx := context.Background()

	line, err := e.ReadLine(ctx, ports.Prompt{Delimiter: "$ "})
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	// Buffered input must survive between calls.
	line, err = e.ReadLine(ctx, ports.Prompt{Delimiter: "$ "})
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = e.ReadLine(ctx, ports.Prompt{Delimiter: "$ "})
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReadPlainWritesDelimiter(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{In: strings.NewReader("hi\n"), Out: &out})

	_, err := e.ReadLine(context.Background(), ports.Prompt{Delimiter: "ask> "})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ask> ")
}

func TestReadPlainTrimsLineEndings(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{In: strings.NewReader("windows line\r\n"), Out: &out})

	line, err := e.ReadLine(context.Background(), ports.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "windows line", line)
}

func TestReadPlainLastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{In: strings.NewReader("no newline"), Out: &out})

	line, err := e.ReadLine(context.Background(), ports.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "no newline", line)
}

func TestReadPlainContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	e := New(Config{In: pr, Out: &out})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := e.ReadLine(ctx, ports.Prompt{})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not observe cancellation")
	}
}

func TestRenderReplacesBufferAndClampsCursor(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{Out: &out})

	e.Render("$ ", "hello", 99)
	assert.Equal(t, 5, e.CursorPosition())
	assert.Contains(t, out.String(), "$ hello")

	e.Render("$ ", "hello", -1)
	assert.Equal(t, 0, e.CursorPosition())
}

func TestSetCursorPositionClamps(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{Out: &out})
	e.Render("$ ", "abc", 3)

	e.SetCursorPosition(-5)
	assert.Equal(t, 0, e.CursorPosition())
	e.SetCursorPosition(2)
	assert.Equal(t, 2, e.CursorPosition())
	e.SetCursorPosition(42)
	assert.Equal(t, 3, e.CursorPosition())
}

func TestCleanOnlyWhenVisible(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{Out: &out})

	e.Clean()
	assert.Empty(t, out.String(), "nothing displayed, nothing to erase")

	e.Render("$ ", "abc", 3)
	out.Reset()
	e.Clean()
	assert.Contains(t, out.String(), "\x1b[2K")
}

func TestWritePassesThrough(t *testing.T) {
	var out bytes.Buffer
	e := New(Config{Out: &out})
	e.Write("log line\n")
	assert.Equal(t, "log line\n", out.String())
}
