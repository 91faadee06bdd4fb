package parley

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecStrictFIFOOrder(t *testing.T) {
	sh, _ := newTestShell()
	ctx := context.Background()

	var (
		mu    sync.Mutex
		order []string
	)
	sh.Command("count <n>", "").
		Action(func(ctx context.Context, args *Args) (any, error) {
			n := args.String("n")
			// Earlier submissions sleep longer, so out-of-order completion
			// would be observed if the queue ever ran two at once.
			switch n {
			case "1":
				time.Sleep(12 * time.Millisecond)
			case "2":
				time.Sleep(8 * time.Millisecond)
			default:
				time.Sleep(2 * time.Millisecond)
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return n, nil
		})

	handles := make([]*Handle, 0, 6)
	for i := 1; i <= 6; i++ {
		handles = append(handles, sh.Exec(fmt.Sprintf("count %d", i)))
	}
	for _, h := range handles {
		_, err := h.Wait(ctx)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "123456", strings.Join(order, ""))
}

func TestExecOneActionAtATime(t *testing.T) {
	sh, _ := newTestShell()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	sh.Command("work", "").
		Action(func(ctx context.Context, args *Args) (any, error) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return nil, nil
		})

	var handles []*Handle
	for i := 0; i < 10; i++ {
		handles = append(handles, sh.Exec("work"))
	}
	for _, h := range handles {
		_, err := h.Wait(ctx)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, peak)
}

func TestNestedExecRunsInline(t *testing.T) {
	sh, _ := newTestShell()

	sh.Command("inner", "").
		Action(func(ctx context.Context, args *Args) (any, error) { return "inner-done", nil })

	sh.Command("outer", "").
		Action(func(ctx context.Context, args *Args) (any, error) {
			// Awaiting a nested submission from inside an action must not
			// deadlock behind this action's own queue slot.
			return sh.ExecContext(ctx, "inner").Wait(ctx)
		})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := sh.ExecSync(ctx, "outer")
	require.NoError(t, err)
	assert.Equal(t, "inner-done", result)
}

func TestNestedExecDepth(t *testing.T) {
	sh, _ := newTestShell()

	sh.Command("dig <depth>", "").
		Action(func(ctx context.Context, args *Args) (any, error) {
			var in struct {
				Depth int `mapstructure:"depth"`
			}
			if err := args.Bind(&in); err != nil {
				return nil, err
			}
			if in.Depth == 0 {
				return "bottom", nil
			}
			return sh.ExecContext(ctx, fmt.Sprintf("dig %d", in.Depth-1)).Wait(ctx)
		})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := sh.ExecSync(ctx, "dig 5")
	require.NoError(t, err)
	assert.Equal(t, "bottom", result)
}

func TestActionErrorPropagates(t *testing.T) {
	sh, ed := newTestShell()

	sentinel := errors.New("kaboom")
	sh.Command("explode", "").
		Action(func(ctx context.Context, args *Args) (any, error) { return nil, sentinel })

	_, err := sh.ExecSync(context.Background(), "explode")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
	assert.NotContains(t, ed.Output(), "Invalid Command", "action failures are not resolution failures")
}

func TestEmptyInputCompletesImmediately(t *testing.T) {
	sh, ed := newTestShell()

	result, err := sh.ExecSync(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, ed.Output())
}

func TestHandleDualCompletionSurfaces(t *testing.T) {
	sh, _ := newTestShell()
	ctx := context.Background()

	sh.Command("ping", "").
		Action(func(ctx context.Context, args *Args) (any, error) { return "pong", nil })

	var (
		cbResult any
		cbErr    error
		done     = make(chan struct{})
	)
	h := sh.Exec("ping").OnComplete(func(result any, err error) {
		cbResult, cbErr = result, err
		close(done)
	})

	result, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
	assert.Equal(t, "pong", cbResult)
	assert.NoError(t, cbErr)

	// Registering after completion invokes immediately.
	late := make(chan struct{})
	h.OnComplete(func(result any, err error) {
		assert.Equal(t, "pong", result)
		close(late)
	})
	select {
	case <-late:
	default:
		t.Fatal("late callback should run synchronously")
	}

	assert.True(t, h.Completed())
	lateResult, lateErr := h.Result()
	assert.Equal(t, "pong", lateResult)
	assert.NoError(t, lateErr)
}

func TestHandleWaitHonorsContext(t *testing.T) {
	sh, _ := newTestShell()

	release := make(chan struct{})
	sh.Command("block", "").
		Action(func(ctx context.Context, args *Args) (any, error) {
			<-release
			return nil, nil
		})
	defer close(release)

	h := sh.Exec("block")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
