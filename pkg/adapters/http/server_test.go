package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/internal/testutils"
)

func newTestServer(t *testing.T) (*httptest.Server, *parley.Shell) {
	t.Helper()
	sh := parley.New(parley.WithLineEditor(testutils.NewFakeEditor()))

	sh.Command("say <words...>", "Says something.").
		Alias("speak").
		Action(func(ctx context.Context, args *parley.Args) (any, error) {
			msg := strings.Join(args.Strings("words"), " ")
			sh.Log(msg)
			return msg, nil
		})
	sh.Command("explode", "Always fails.").
		Action(func(ctx context.Context, args *parley.Args) (any, error) {
			return nil, errors.New("kaboom")
		})

	srv := httptest.NewServer(NewHandler(sh))
	t.Cleanup(srv.Close)
	return srv, sh
}

func postExec(t *testing.T, url, command string) (*http.Response, execResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"command": command})
	require.NoError(t, err)

	resp, err := http.Post(url+"/exec", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out execResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestExecRunsCommandAndCapturesOutput(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, out := postExec(t, srv.URL, "say hello over http")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello over http", out.Result)
	assert.Equal(t, "hello over http\n", out.Output)
	assert.Empty(t, out.Error)
}

func TestExecUnknownCommandIsNotAnHTTPError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, out := postExec(t, srv.URL, "nonsense")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out.Error)
	assert.Contains(t, out.Output, "Invalid Command. Showing Help:")
}

func TestExecActionFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, out := postExec(t, srv.URL, "explode")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, out.Error, "kaboom")
}

func TestExecRequiresCommand(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/exec", "application/json", strings.NewReader(`{"command":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/exec", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecRemovesCapturePipeAfterward(t *testing.T) {
	srv, sh := newTestServer(t)

	_, out := postExec(t, srv.URL, "say first")
	assert.Equal(t, "first\n", out.Output)

	// A later shell-side log must not leak into past or future captures.
	sh.Log("local only")
	_, out = postExec(t, srv.URL, "say second")
	assert.Equal(t, "second\n", out.Output)
}

func TestCommandsListing(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/commands")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []commandInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))

	byName := make(map[string]commandInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	say, ok := byName["say"]
	require.True(t, ok)
	assert.Equal(t, "say <words...>", say.Usage)
	assert.Equal(t, []string{"speak"}, say.Aliases)

	_, ok = byName["help"]
	assert.True(t, ok, "builtins are listed too")
}
