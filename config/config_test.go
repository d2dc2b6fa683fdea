package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurvan/gdtools/lint"
)

func testLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	return logger
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, 100, c.LineLength)
	assert.Equal(t, IndentTabs, c.IndentStyle)
	assert.Equal(t, 4, c.IndentSize)
	assert.Empty(t, c.Disabled)

	opts := c.FormatOptions()
	assert.Equal(t, "\t", opts.Indent)
	assert.Equal(t, 100, opts.LineLength)
}

func TestLoadAndMerge(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
exclude = ["addons/*"]

[rules]
disable = ["no-else-return"]

[rules.max-line-length]
max = 120

[rules.function-name]
pattern = "^do_[a-z]+$"
severity = "error"

[format]
line_length = 80
indent_style = "spaces"
indent_size = 2
`)

	c, err := Resolve(dir, "", testLogger(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, []string{"addons/*"}, c.Exclude)
	assert.True(t, c.Disabled["no-else-return"])
	assert.Equal(t, 120, c.Max["max-line-length"])
	assert.Equal(t, "^do_[a-z]+$", c.Pattern["function-name"])
	assert.Equal(t, lint.SeverityError, c.Severity["function-name"])
	assert.Equal(t, 80, c.LineLength)
	assert.Equal(t, IndentSpaces, c.IndentStyle)
	assert.Equal(t, "  ", c.FormatOptions().Indent)
}

func TestResolveWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[format]\nline_length = 90\n")
	nested := filepath.Join(root, "scenes", "ui")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	c, err := Resolve(nested, "", testLogger(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 90, c.LineLength)

	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, c.Root)
}

func TestResolveWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Resolve(dir, "", testLogger(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 100, c.LineLength)
}

func TestUnknownKeysWarnButDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[bogus]\nx = 1\n\n[rules.not-a-rule]\nmax = 3\n")

	var buf bytes.Buffer
	c, err := Resolve(dir, "", testLogger(&buf))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unknown")
	// the unknown rule is still configured literally
	assert.Equal(t, 3, c.Max["not-a-rule"])
}

func TestInvalidValuesAbort(t *testing.T) {
	test := func(content string) func(*testing.T) {
		return func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, content)
			_, err := Resolve(dir, "", testLogger(io.Discard))
			assert.Error(t, err)
		}
	}

	t.Run("bad toml", test("not [ valid\n"))
	t.Run("bad indent style", test("[format]\nindent_style = \"dots\"\n"))
	t.Run("bad line length", test("[format]\nline_length = -4\n"))
	t.Run("bad severity", test("[rules.function-name]\nseverity = \"fatal\"\n"))
	t.Run("bad pattern", test("[rules.function-name]\npattern = \"[\"\n"))
	t.Run("bad type", test("[rules.max-line-length]\nmax = \"lots\"\n"))
}

func TestExplicitConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[format]\nline_length = 70\n")

	c, err := Resolve(t.TempDir(), path, testLogger(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 70, c.LineLength)
}

func TestDumpDefaultIsValidTOML(t *testing.T) {
	out, err := DumpDefault()
	require.NoError(t, err)

	var fc fileConfig
	md, err := toml.Decode(out, &fc)
	require.NoError(t, err)

	assert.Equal(t, 15+1, len(fc.Rules)) // every rule plus the disable list
	var rs ruleSection
	require.NoError(t, md.PrimitiveDecode(fc.Rules["max-line-length"], &rs))
	require.NotNil(t, rs.Max)
	assert.Equal(t, 100, *rs.Max)
}
