package parley

import (
	"fmt"
	"strings"
)

// HelpText renders the full help listing of all visible commands, top-level
// and nested, in registration order.
func (s *Shell) HelpText() string {
	s.mu.RLock()
	commands := append([]*Command(nil), s.commands...)
	s.mu.RUnlock()

	type row struct {
		usage, description string
	}
	var rows []row
	width := 0
	for _, c := range commands {
		if c.hidden {
			continue
		}
		usage := c.Usage()
		if len(c.aliases) > 0 {
			usage += " (" + strings.Join(c.aliases, ", ") + ")"
		}
		if len(usage) > width {
			width = len(usage)
		}
		rows = append(rows, row{usage: usage, description: c.description})
	}

	var b strings.Builder
	b.WriteString("\n  Commands:\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "    %-*s  %s\n", width, r.usage, r.description)
	}
	return b.String()
}

// subcommandHelp renders the available subcommand patterns of a parent
// command that was invoked without a matching subcommand.
func (s *Shell) subcommandHelp(cmd *Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n  Commands:\n\n", cmd.description)
	for _, child := range cmd.children() {
		if child.hidden {
			continue
		}
		fmt.Fprintf(&b, "    %s *\n", child.Name())
	}
	return b.String()
}

// commandHelp renders detailed usage for a single command: pattern,
// description, aliases and declared options.
func (s *Shell) commandHelp(cmd *Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  Usage: %s\n\n  %s\n", cmd.Usage(), cmd.description)
	if len(cmd.aliases) > 0 {
		fmt.Fprintf(&b, "\n  Aliases: %s\n", strings.Join(cmd.aliases, ", "))
	}
	if len(cmd.flags) > 0 {
		b.WriteString("\n  Options:\n\n")
		width := 0
		for _, f := range cmd.flags {
			if len(f.usage()) > width {
				width = len(f.usage())
			}
		}
		for _, f := range cmd.flags {
			fmt.Fprintf(&b, "    %-*s  %s\n", width, f.usage(), f.description)
		}
	}
	if children := cmd.children(); len(children) > 0 {
		b.WriteString("\n  Commands:\n\n")
		for _, child := range children {
			if !child.hidden {
				fmt.Fprintf(&b, "    %s *\n", child.Name())
			}
		}
	}
	return b.String()
}
