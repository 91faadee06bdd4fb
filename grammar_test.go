package parley

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignature(t *testing.T) {
	words, sig, err := parseSignature("very complicated deep <req> [opt] [rest...]")
	require.NoError(t, err)
	assert.Equal(t, []string{"very", "complicated", "deep"}, words)
	require.Len(t, sig.placeholders, 3)

	assert.Equal(t, placeholder{name: "req", required: true}, sig.placeholders[0])
	assert.Equal(t, placeholder{name: "opt"}, sig.placeholders[1])
	assert.Equal(t, placeholder{name: "rest", variadic: true}, sig.placeholders[2])
}

func TestParseSignatureLowercasesLiterals(t *testing.T) {
	words, _, err := parseSignature("Say <words...>")
	require.NoError(t, err)
	assert.Equal(t, []string{"say"}, words)
}

func TestParseSignatureRejectsMisplacedVariadic(t *testing.T) {
	_, _, err := parseSignature("cmd [rest...] <req>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be last")
}

func TestParseSignatureRejectsBadTokens(t *testing.T) {
	_, _, err := parseSignature("cmd <req> literal-after-placeholder")
	assert.Error(t, err)

	_, _, err = parseSignature("<only> [placeholders]")
	assert.Error(t, err)

	_, _, err = parseSignature("cmd <>")
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{`say hello world`, []string{"say", "hello", "world"}},
		{`say "hello world" now`, []string{"say", "hello world", "now"}},
		{`say 'single quoted'`, []string{"say", "single quoted"}},
		{`say ""`, []string{"say", ""}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{`say "unterminated rest`, []string{"say", "unterminated rest"}},
		{``, nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tokenize(tc.line), "line: %q", tc.line)
	}
}

func TestParseFlagDecl(t *testing.T) {
	spec, err := parseFlagDecl("-f, --forward", "move forward")
	require.NoError(t, err)
	assert.Equal(t, "f", spec.short)
	assert.Equal(t, "forward", spec.long)
	assert.False(t, spec.valueNeeded)

	spec, err = parseFlagDecl("--amount <n>", "how many")
	require.NoError(t, err)
	assert.Equal(t, "amount", spec.long)
	assert.Equal(t, "n", spec.valueName)
	assert.True(t, spec.valueNeeded)

	// A short-only declaration resolves under the short name.
	spec, err = parseFlagDecl("-v", "verbose")
	require.NoError(t, err)
	assert.Equal(t, "v", spec.long)

	_, err = parseFlagDecl("", "names nothing")
	assert.Error(t, err)
}

func TestSplitFlags(t *testing.T) {
	specs := []*flagSpec{
		{short: "l", long: "loud"},
		{long: "amount", valueName: "n", valueNeeded: true},
	}

	positional, flags := splitFlags([]string{"hello", "--loud", "--amount", "3", "world"}, specs)
	assert.Equal(t, []string{"hello", "world"}, positional)
	assert.Equal(t, true, flags["loud"])
	assert.Equal(t, "3", flags["amount"])
}

func TestSplitFlagsShortFormResolvesToLongName(t *testing.T) {
	specs := []*flagSpec{{short: "l", long: "loud"}}
	_, flags := splitFlags([]string{"-l"}, specs)

	_, short := flags["l"]
	assert.False(t, short)
	assert.Equal(t, true, flags["loud"])
}

func TestSplitFlagsNegation(t *testing.T) {
	specs := []*flagSpec{{long: "cheese"}}
	_, flags := splitFlags([]string{"--no-cheese"}, specs)
	assert.Equal(t, false, flags["cheese"])

	// Negating an undeclared flag still binds false under the bare name.
	_, flags = splitFlags([]string{"--no-anchovies"}, specs)
	assert.Equal(t, false, flags["anchovies"])
}

func TestSplitFlagsUnknownFlagsKeptAsBooleans(t *testing.T) {
	_, flags := splitFlags([]string{"--mystery", "-x"}, nil)
	assert.Equal(t, true, flags["mystery"])
	assert.Equal(t, true, flags["x"])
}

func TestSplitFlagsDefaultsApplyOnlyWhenAbsent(t *testing.T) {
	specs := []*flagSpec{{long: "amount", valueName: "n", valueNeeded: true, def: "5"}}

	_, flags := splitFlags(nil, specs)
	assert.Equal(t, "5", flags["amount"])

	_, flags = splitFlags([]string{"--amount", "9"}, specs)
	assert.Equal(t, "9", flags["amount"])

	// An explicit negation also wins over the default.
	_, flags = splitFlags([]string{"--no-amount"}, specs)
	assert.Equal(t, false, flags["amount"])
}

func TestBindRequiredAndOptional(t *testing.T) {
	_, sig, err := parseSignature("eat <food> [sauce]")
	require.NoError(t, err)

	args, err := bind([]string{"pizza"}, sig, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "pizza", args.String("food"))
	assert.Equal(t, "", args.String("sauce"))
}

func TestBindMissingRequired(t *testing.T) {
	_, sig, err := parseSignature("eat <food>")
	require.NoError(t, err)

	_, err = bind(nil, sig, map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRequiredArgument))

	var missing *MissingArgumentError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "food", missing.Placeholder)
}

func TestBindVariadicTail(t *testing.T) {
	_, sig, err := parseSignature("run <first> [rest...]")
	require.NoError(t, err)

	args, err := bind([]string{"a", "b", "c", "d"}, sig, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "a", args.String("first"))
	assert.Equal(t, []string{"b", "c", "d"}, args.Strings("rest"))
	assert.Equal(t, []string{"b", "c", "d"}, args.Variadic)
}

func TestBindEmptyVariadicIsEmptyNotMissing(t *testing.T) {
	_, sig, err := parseSignature("run [rest...]")
	require.NoError(t, err)

	args, err := bind(nil, sig, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, args.Strings("rest"))
	assert.Empty(t, args.Variadic)
}

func TestBindDropsExcessTokens(t *testing.T) {
	_, sig, err := parseSignature("eat <food> [sauce]")
	require.NoError(t, err)

	args, err := bind([]string{"pizza", "pesto", "extra", "tokens"}, sig, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "pizza", args.String("food"))
	assert.Equal(t, "pesto", args.String("sauce"))
	assert.Len(t, args.Positional, 2)
}
