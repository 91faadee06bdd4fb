package parley

import (
	"context"
	"strings"
)

// Action is a command's handler. It receives the context of the execution
// request and the parsed arguments; returning a value and error completes
// the request exactly once. Long-running handlers simply block: the queue
// does not advance until the handler returns.
type Action func(ctx context.Context, args *Args) (any, error)

// LineHandler receives raw lines while a mode command is active.
type LineHandler func(ctx context.Context, line string) error

// Command is a registered, named unit of behavior with a declared
// argument/flag signature and an action handler. Commands are created via
// Shell.Command and configured fluently.
type Command struct {
	shell       *Shell
	words       []string
	description string
	sig         signature
	flags       []*flagSpec
	action      Action
	onLine      LineHandler
	aliases     []string
	hidden      bool
}

// Name returns the normalized command name (literal words joined by spaces).
func (c *Command) Name() string {
	return strings.Join(c.words, " ")
}

// Description returns the registered help description.
func (c *Command) Description() string {
	return c.description
}

// Alias attaches additional resolvable names to the command. Aliases resolve
// atomically to the command's current action, not a snapshot.
func (c *Command) Alias(names ...string) *Command {
	c.shell.mu.Lock()
	defer c.shell.mu.Unlock()
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		c.aliases = append(c.aliases, n)
		c.shell.aliases[n] = c
	}
	return c
}

// Aliases returns the command's registered aliases.
func (c *Command) Aliases() []string {
	c.shell.mu.RLock()
	defer c.shell.mu.RUnlock()
	return append([]string(nil), c.aliases...)
}

// Option declares a flag alongside the command, e.g.
//
//	cmd.Option("-f, --forward", "move forward")
//	cmd.Option("--amount <n>", "how many")
//
// Call sites may always negate a declared switch with --no-<flag>, which
// binds the flag to boolean false.
func (c *Command) Option(decl, description string) *Command {
	spec, err := parseFlagDecl(decl, description)
	if err != nil {
		c.shell.logger.Warn("ignoring invalid flag declaration", "command", c.Name(), "err", err)
		return c
	}
	c.shell.mu.Lock()
	c.flags = append(c.flags, spec)
	c.shell.mu.Unlock()
	return c
}

// OptionDefault declares a flag with a default value used when the flag is
// absent at the call site.
func (c *Command) OptionDefault(decl, description string, def any) *Command {
	c.Option(decl, description)
	c.shell.mu.Lock()
	if len(c.flags) > 0 {
		c.flags[len(c.flags)-1].def = def
	}
	c.shell.mu.Unlock()
	return c
}

// Action installs the command's handler.
func (c *Command) Action(fn Action) *Command {
	c.shell.mu.Lock()
	c.action = fn
	c.shell.mu.Unlock()
	return c
}

// OnLine turns the command into a mode command: executing it switches the
// shell into a nested interactive mode where every subsequent line is passed
// to fn until the user enters "exit".
func (c *Command) OnLine(fn LineHandler) *Command {
	c.shell.mu.Lock()
	c.onLine = fn
	c.shell.mu.Unlock()
	return c
}

// Hidden removes the command from help listings. It remains executable.
func (c *Command) Hidden() *Command {
	c.shell.mu.Lock()
	c.hidden = true
	c.shell.mu.Unlock()
	return c
}

// Usage renders the command's invocation pattern, including placeholders.
func (c *Command) Usage() string {
	var b strings.Builder
	b.WriteString(c.Name())
	for _, ph := range c.sig.placeholders {
		b.WriteByte(' ')
		name := ph.name
		if ph.variadic {
			name += "..."
		}
		if ph.required {
			b.WriteString("<" + name + ">")
		} else {
			b.WriteString("[" + name + "]")
		}
	}
	if len(c.flags) > 0 {
		b.WriteString(" [options]")
	}
	return b.String()
}

// parent returns the registered command whose words are the longest proper
// prefix of this command's words, or nil.
func (c *Command) parent() *Command {
	c.shell.mu.RLock()
	defer c.shell.mu.RUnlock()
	var best *Command
	for _, other := range c.shell.commands {
		if other == c || len(other.words) >= len(c.words) {
			continue
		}
		if !wordsPrefix(other.words, c.words) {
			continue
		}
		if best == nil || len(other.words) > len(best.words) {
			best = other
		}
	}
	return best
}

// children returns the registered commands whose words strictly extend this
// command's words.
func (c *Command) children() []*Command {
	c.shell.mu.RLock()
	defer c.shell.mu.RUnlock()
	var out []*Command
	for _, other := range c.shell.commands {
		if other == c || len(other.words) <= len(c.words) {
			continue
		}
		if wordsPrefix(c.words, other.words) {
			out = append(out, other)
		}
	}
	return out
}

func wordsPrefix(prefix, words []string) bool {
	if len(prefix) > len(words) {
		return false
	}
	for i, w := range prefix {
		if words[i] != w {
			return false
		}
	}
	return true
}
