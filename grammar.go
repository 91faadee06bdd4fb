package parley

import (
	"fmt"
	"strings"
)

// placeholder is a single positional slot in a command signature.
type placeholder struct {
	name     string
	required bool
	variadic bool
}

// signature is the ordered list of positional placeholders declared by a
// command. At most one placeholder may be variadic and it must be last.
type signature struct {
	placeholders []placeholder
}

// parseSignature splits a registration string into literal name words and the
// declared signature. Literal words end at the first placeholder token.
//
//	"very complicated deep <req> [opt] [rest...]"
func parseSignature(raw string) (words []string, sig signature, err error) {
	fields := strings.Fields(raw)
	i := 0
	for ; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "<") || strings.HasPrefix(fields[i], "[") {
			break
		}
		words = append(words, strings.ToLower(fields[i]))
	}
	if len(words) == 0 {
		return nil, sig, fmt.Errorf("command registration %q has no literal name", raw)
	}

	for ; i < len(fields); i++ {
		tok := fields[i]
		var ph placeholder
		switch {
		case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
			ph.required = true
			ph.name = tok[1 : len(tok)-1]
		case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]"):
			ph.name = tok[1 : len(tok)-1]
		default:
			return nil, sig, fmt.Errorf("invalid placeholder %q in %q", tok, raw)
		}
		if strings.HasSuffix(ph.name, "...") {
			ph.variadic = true
			ph.name = strings.TrimSuffix(ph.name, "...")
		}
		if ph.name == "" {
			return nil, sig, fmt.Errorf("empty placeholder in %q", raw)
		}
		sig.placeholders = append(sig.placeholders, ph)
	}

	for idx, ph := range sig.placeholders {
		if ph.variadic && idx != len(sig.placeholders)-1 {
			return nil, sig, fmt.Errorf("variadic placeholder %q must be last in %q", ph.name, raw)
		}
	}
	return words, sig, nil
}

// flagSpec is a declared flag: "-f, --forward" or "--amount <n>".
type flagSpec struct {
	short       string
	long        string
	valueName   string
	valueNeeded bool
	description string
	def         any
}

// parseFlagDecl parses a flag declaration of the form
// "-x, --flag <value> " (short form and value are optional).
func parseFlagDecl(decl, description string) (*flagSpec, error) {
	spec := &flagSpec{description: description}
	for _, part := range strings.Fields(strings.ReplaceAll(decl, ",", " ")) {
		switch {
		case strings.HasPrefix(part, "--"):
			spec.long = strings.TrimPrefix(part, "--")
		case strings.HasPrefix(part, "-"):
			spec.short = strings.TrimPrefix(part, "-")
		case strings.HasPrefix(part, "<") && strings.HasSuffix(part, ">"):
			spec.valueName = part[1 : len(part)-1]
			spec.valueNeeded = true
		case strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]"):
			spec.valueName = part[1 : len(part)-1]
		default:
			return nil, fmt.Errorf("invalid flag declaration token %q in %q", part, decl)
		}
	}
	if spec.long == "" && spec.short == "" {
		return nil, fmt.Errorf("flag declaration %q names no flag", decl)
	}
	if spec.long == "" {
		spec.long = spec.short
	}
	return spec, nil
}

func (f *flagSpec) usage() string {
	var b strings.Builder
	if f.short != "" && f.short != f.long {
		fmt.Fprintf(&b, "-%s, ", f.short)
	}
	fmt.Fprintf(&b, "--%s", f.long)
	if f.valueName != "" {
		if f.valueNeeded {
			fmt.Fprintf(&b, " <%s>", f.valueName)
		} else {
			fmt.Fprintf(&b, " [%s]", f.valueName)
		}
	}
	return b.String()
}

// tokenize splits an input line into tokens, honoring single and double
// quotes. Quotes group words; they do not nest. A trailing unterminated
// quote consumes the rest of the line.
func tokenize(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		started bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, current.String())
			current.Reset()
			started = false
		}
	}
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t':
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()
	return tokens
}

// splitFlags separates flag tokens from the positional stream.
// Recognized forms: -x, --flag, --no-flag, --flag value (for value flags).
// Unknown flags are kept as booleans so callers can observe them.
func splitFlags(tokens []string, specs []*flagSpec) (positional []string, flags map[string]any) {
	flags = make(map[string]any)

	lookup := func(name string, short bool) *flagSpec {
		for _, s := range specs {
			if short && s.short == name {
				return s
			}
			if !short && s.long == name {
				return s
			}
		}
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case strings.HasPrefix(tok, "--no-"):
			name := strings.TrimPrefix(tok, "--no-")
			if s := lookup(name, false); s != nil {
				name = s.long
			}
			flags[name] = false
		case strings.HasPrefix(tok, "--"):
			name := strings.TrimPrefix(tok, "--")
			spec := lookup(name, false)
			if spec != nil && spec.valueName != "" && i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") {
				flags[spec.long] = tokens[i+1]
				i++
				continue
			}
			if spec != nil {
				name = spec.long
			}
			flags[name] = true
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			name := strings.TrimPrefix(tok, "-")
			spec := lookup(name, true)
			if spec != nil && spec.valueName != "" && i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") {
				flags[spec.long] = tokens[i+1]
				i++
				continue
			}
			if spec != nil {
				name = spec.long
			}
			flags[name] = true
		default:
			positional = append(positional, tok)
		}
	}

	// Declared defaults apply only when the flag is absent entirely.
	for _, s := range specs {
		if _, present := flags[s.long]; !present && s.def != nil {
			flags[s.long] = s.def
		}
	}
	return positional, flags
}

// bind matches positional tokens against the signature. Tokens beyond a
// non-variadic signature are discarded, not errored. A missing required
// placeholder fails with ErrMissingRequiredArgument naming the placeholder.
func bind(tokens []string, sig signature, flags map[string]any) (*Args, error) {
	args := &Args{
		Positional: make(map[string]any),
		Flags:      flags,
	}
	idx := 0
	for _, ph := range sig.placeholders {
		if ph.variadic {
			rest := append([]string(nil), tokens[idx:]...)
			args.Positional[ph.name] = rest
			args.Variadic = rest
			idx = len(tokens)
			continue
		}
		if idx >= len(tokens) {
			if ph.required {
				return nil, &MissingArgumentError{Placeholder: ph.name}
			}
			continue
		}
		args.Positional[ph.name] = tokens[idx]
		idx++
	}
	return args, nil
}
