package lint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurvan/gdtools/gdscript"
)

func lintWith(src string, settings Settings) []Diagnostic {
	script := gdscript.ParseString("test.gd", src)
	dirs := gdscript.ScanDirectives(script.Buffer, script.Tokens, Known)
	return Run(script, dirs, settings)
}

func lintSource(src string) []Diagnostic {
	return lintWith(src, Settings{})
}

func rulesOf(diags []Diagnostic) []string {
	var ids []string
	for _, d := range diags {
		ids = append(ids, d.Rule)
	}
	return ids
}

func TestCatalogIsSortedById(t *testing.T) {
	rules := Rules()
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].ID, rules[i].ID)
	}
	assert.Len(t, rules, 15)
}

func TestCleanFileHasNoDiagnostics(t *testing.T) {
	assert.Empty(t, lintSource("var x = 1\n"))
}

func TestTrailingWhitespace(t *testing.T) {
	diags := lintSource("var  x=1  \n")
	assert.Equal(t, []string{"trailing-whitespace"}, rulesOf(diags))
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 9, diags[0].Col)
}

func TestTabsAndSpaces(t *testing.T) {
	diags := lintSource("if a:\n\t pass\n")
	assert.Contains(t, rulesOf(diags), "tabs-and-spaces")
}

func TestMaxLineLength(t *testing.T) {
	long := "var very_long = \"" + strings.Repeat("a", 120) + "\"\n"
	diags := lintSource(long)
	require.Equal(t, []string{"max-line-length"}, rulesOf(diags))
	assert.Equal(t, 1, diags[0].Line)

	// configurable
	diags = lintWith("var abcdefgh = 12345\n", Settings{Max: map[string]int{"max-line-length": 10}})
	assert.Equal(t, []string{"max-line-length"}, rulesOf(diags))
}

func TestMaxLineLengthSuppressedByIgnoreDirective(t *testing.T) {
	src := "# gdlint:ignore=max-line-length\nvar very_long = \"" + strings.Repeat("a", 120) + "\"\n"
	assert.Empty(t, lintSource(src))
}

func TestMaxFunctionArgs(t *testing.T) {
	diags := lintWith("func f(a, b, c):\n\treturn a + b + c\n",
		Settings{Max: map[string]int{"max-function-args": 2}})
	assert.Equal(t, []string{"max-function-args"}, rulesOf(diags))
}

func TestMaxFunctionLines(t *testing.T) {
	diags := lintWith("func f():\n\tvar a = 1\n\tvar b = 2\n\treturn a + b\n",
		Settings{Max: map[string]int{"max-function-lines": 2}})
	assert.Equal(t, []string{"max-function-lines"}, rulesOf(diags))
	assert.Equal(t, 1, diags[0].Line)
}

func TestMaxPublicMethods(t *testing.T) {
	src := strings.Join([]string{
		"func one():",
		"\tpass",
		"func two():",
		"\tpass",
		"func _private():",
		"\tpass",
	}, "\n") + "\n"
	diags := lintWith(src, Settings{Max: map[string]int{"max-public-methods": 1}})
	assert.Equal(t, []string{"max-public-methods"}, rulesOf(diags))

	inner := strings.Join([]string{
		"class Helper:",
		"\tfunc one():",
		"\t\tpass",
		"\tfunc two():",
		"\t\tpass",
	}, "\n") + "\n"
	diags = lintWith(inner, Settings{Max: map[string]int{"max-public-methods": 1}})
	assert.Equal(t, []string{"max-public-methods"}, rulesOf(diags))
	assert.Equal(t, 1, diags[0].Line)
}

func TestNamingRules(t *testing.T) {
	test := func(src, rule string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Contains(t, rulesOf(lintSource(src)), rule)
		}
	}
	clean := func(src string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Empty(t, lintSource(src))
		}
	}

	t.Run("", test("func BadName():\n\tpass\n", "function-name"))
	t.Run("", clean("func _on_ready():\n\tpass\n"))
	t.Run("", test("class_name bad_name\n", "class-name"))
	t.Run("", test("class inner_thing:\n\tpass\n", "class-name"))
	t.Run("", clean("class_name GoodName\n"))
	t.Run("", test("const bad = 1\n", "constant-name"))
	t.Run("", clean("const GOOD_ONE = 1\n"))
	t.Run("", test("var BadName = 1\n", "variable-name"))
	t.Run("", clean("var _good_name = 1\n"))
	t.Run("", clean("@export var speed = 5\n"))
}

func TestNamePatternIsConfigurable(t *testing.T) {
	settings := Settings{Pattern: map[string]string{"function-name": "^do_[a-z]+$"}}
	diags := lintWith("func run():\n\tpass\n", settings)
	assert.Equal(t, []string{"function-name"}, rulesOf(diags))
	assert.Empty(t, lintWith("func do_run():\n\tpass\n", settings))
}

func TestUnusedArgument(t *testing.T) {
	diags := lintSource("func f(a, b, _ignored):\n\treturn a\n")
	require.Equal(t, []string{"unused-argument"}, rulesOf(diags))
	assert.Contains(t, diags[0].Message, `"b"`)
}

func TestDuplicateArgumentsGetNoSpecialRule(t *testing.T) {
	// the engine does not invent rules: a duplicated parameter name only
	// surfaces through the ordinary checks
	diags := lintSource("func f(a, a):\n\tpass\n")
	assert.Equal(t, []string{"unused-argument", "unused-argument"}, rulesOf(diags))
}

func TestDuplicateKey(t *testing.T) {
	diags := lintSource(`var d = { "a": 1, "a": 2 }` + "\n")
	require.Equal(t, []string{"duplicate-key"}, rulesOf(diags))
	// points at the second occurrence
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 19, diags[0].Col)
}

func TestDuplicateKeyNested(t *testing.T) {
	assert.Empty(t, lintSource(`var d = { "a": { "a": 1 } }`+"\n"))
}

func TestExpressionNotAssigned(t *testing.T) {
	diags := lintSource("func f(x):\n\tx + 1\n\treturn x\n")
	assert.Equal(t, []string{"expression-not-assigned"}, rulesOf(diags))
	assert.Equal(t, 2, diags[0].Line)

	assert.Empty(t, lintSource("func f(x):\n\tx.run()\n"))
	assert.Empty(t, lintSource("func f(x):\n\tawait x\n"))
	assert.Empty(t, lintSource("func f(x):\n\tx += 1\n"))
}

func TestNoElseReturn(t *testing.T) {
	src := strings.Join([]string{
		"func f(x):",
		"\tif x:",
		"\t\treturn 1",
		"\telse:",
		"\t\treturn 2",
	}, "\n") + "\n"
	diags := lintSource(src)
	require.Equal(t, []string{"no-else-return"}, rulesOf(diags))
	assert.Equal(t, 4, diags[0].Line)

	noReturn := strings.Join([]string{
		"func f(x):",
		"\tif x:",
		"\t\tx += 1",
		"\telse:",
		"\t\tx -= 1",
		"\treturn x",
	}, "\n") + "\n"
	assert.Empty(t, lintSource(noReturn))
}

func TestMixedIndentationSurfaces(t *testing.T) {
	diags := lintSource("func f():\n\tif true:\n\t\t pass\n")
	assert.Contains(t, rulesOf(diags), "mixed-indentation")
}

func TestSyntaxErrorSurfaces(t *testing.T) {
	diags := lintSource("var s = \"unterminated\n")
	assert.Contains(t, rulesOf(diags), "syntax-error")
	for _, d := range diags {
		if d.Rule == "syntax-error" {
			assert.Equal(t, SeverityError, d.Severity)
		}
	}
}

func TestDisabledRuleDoesNotRun(t *testing.T) {
	diags := lintWith("var  x=1  \n", Settings{Disabled: map[string]bool{"trailing-whitespace": true}})
	assert.Empty(t, diags)
}

func TestWarningsAsErrors(t *testing.T) {
	diags := lintWith("var  x=1  \n", Settings{WarningsAsErrors: true})
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestSeverityOverride(t *testing.T) {
	diags := lintWith("var  x=1  \n",
		Settings{Severity: map[string]Severity{"trailing-whitespace": SeverityError}})
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestDiagnosticsAreSorted(t *testing.T) {
	src := "var  BadName=1  \nfunc Bad():\n\tpass\n"
	diags := lintSource(src)
	for i := 1; i < len(diags); i++ {
		a, b := diags[i-1], diags[i]
		ordered := a.Line < b.Line ||
			(a.Line == b.Line && a.Col < b.Col) ||
			(a.Line == b.Line && a.Col == b.Col && a.Rule <= b.Rule)
		assert.True(t, ordered)
	}
}

func TestDiagnosticsAreStable(t *testing.T) {
	src := "var  BadName=1  \nfunc Bad():\n\tpass\n"
	first := lintSource(src)
	second := lintSource(src)
	assert.Equal(t, first, second)
}
