package parley

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// execRequest is one pending entry in the execution queue.
type execRequest struct {
	raw    string
	ctx    context.Context
	handle *Handle
}

// inlineKey marks contexts handed to running actions, so that nested Exec
// calls from within an action are detected and executed inline instead of
// queued behind the action that is waiting on them.
type inlineKey struct{}

// Exec submits raw input for execution and returns its handle. Requests are
// processed strictly in submission order, one action at a time.
//
// Do not call Exec from inside an action and await the handle: the nested
// request queues behind the action itself and the wait never returns. From
// inside an action, use ExecContext with the action's own context, which
// runs nested submissions inline.
func (s *Shell) Exec(raw string) *Handle {
	return s.ExecContext(context.Background(), raw)
}

// ExecContext is Exec with an explicit context. Actions receive a context
// derived from ctx; passing the action's own context here from inside an
// action runs the nested command inline, which is what keeps an action that
// awaits its own submissions from deadlocking the queue.
func (s *Shell) ExecContext(ctx context.Context, raw string) *Handle {
	handle := newHandle()

	if owner, ok := ctx.Value(inlineKey{}).(*Shell); ok && owner == s {
		result, err := s.dispatch(ctx, raw)
		handle.complete(result, err)
		return handle
	}

	s.qmu.Lock()
	s.qitems = append(s.qitems, &execRequest{raw: raw, ctx: ctx, handle: handle})
	if !s.qrunning {
		s.qrunning = true
		go s.drain()
	}
	s.qmu.Unlock()
	return handle
}

// ExecSync executes raw input and blocks for its completion.
func (s *Shell) ExecSync(ctx context.Context, raw string) (any, error) {
	return s.ExecContext(ctx, raw).Wait(ctx)
}

// drain processes queued requests single-file until the queue empties.
func (s *Shell) drain() {
	for {
		s.qmu.Lock()
		if len(s.qitems) == 0 {
			s.qrunning = false
			s.qmu.Unlock()
			return
		}
		req := s.qitems[0]
		s.qitems = s.qitems[1:]
		s.qmu.Unlock()

		ctx := context.WithValue(req.ctx, inlineKey{}, s)
		result, err := s.dispatch(ctx, req.raw)
		req.handle.complete(result, err)
	}
}

// dispatch resolves raw input and invokes the matched action. Resolution
// failures are rendered as help text and complete successfully; only genuine
// action failures surface as errors.
func (s *Shell) dispatch(ctx context.Context, raw string) (any, error) {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return nil, nil
	}

	cmd, rest := s.resolve(tokens)
	if cmd == nil {
		s.logger.Debug("unknown command", "input", raw)
		s.Log("Invalid Command. Showing Help:")
		s.Log(s.renderHelp(s.HelpText()))
		return nil, nil
	}

	s.mu.RLock()
	specs := append([]*flagSpec(nil), cmd.flags...)
	sig := cmd.sig
	action := cmd.action
	isMode := cmd.onLine != nil
	s.mu.RUnlock()

	positional, flags := splitFlags(rest, specs)
	args, err := bind(positional, sig, flags)
	if err != nil {
		var missing *MissingArgumentError
		if errors.As(err, &missing) {
			s.Log(fmt.Sprintf("Missing required argument: %s", missing.Placeholder))
			s.Log(s.renderHelp("  Usage: " + cmd.Usage()))
			return nil, nil
		}
		return nil, err
	}
	args.Raw = raw

	if isMode {
		s.enterMode(cmd)
		return nil, nil
	}

	if action == nil {
		if children := cmd.children(); len(children) > 0 {
			s.Log(s.renderHelp(s.subcommandHelp(cmd)))
		} else {
			s.Log(s.renderHelp("  Usage: " + cmd.Usage()))
		}
		return nil, nil
	}

	if s.hooks.OnCommandStart != nil {
		s.hooks.OnCommandStart(cmd.Name(), args)
	}
	start := time.Now()
	result, err := action(ctx, args)
	if s.hooks.OnCommandComplete != nil {
		s.hooks.OnCommandComplete(cmd.Name(), err, time.Since(start))
	}
	if err != nil {
		s.logger.Debug("action failed", "command", cmd.Name(), "err", err)
	}
	return result, err
}
