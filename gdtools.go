// Package gdtools drives the per-file lint and format pipelines over
// GDScript sources: tokenize, structure, scan directives, then hand the
// structured stream to the rule engine or the formatter. Per-file
// processing is purely sequential and stateless; parallelism happens at
// the file level only.
package gdtools

import (
	"github.com/Gurvan/gdtools/config"
	"github.com/Gurvan/gdtools/format"
	"github.com/Gurvan/gdtools/gdscript"
	"github.com/Gurvan/gdtools/lint"
)

// LintSource runs the lint pipeline over one already-loaded file.
func LintSource(path string, src []byte, cfg *config.Config) []lint.Diagnostic {
	script := gdscript.ParseString(gdscript.FileRef(path), string(src))
	dirs := gdscript.ScanDirectives(script.Buffer, script.Tokens, lint.Known)
	return lint.Run(script, dirs, cfg.LintSettings())
}

// FormatSource runs the format pipeline over one already-loaded file. It
// returns format.ErrStructural when the file's indentation is
// inconsistent; no output is produced in that case.
func FormatSource(path string, src []byte, cfg *config.Config) ([]byte, error) {
	script := gdscript.ParseString(gdscript.FileRef(path), string(src))
	dirs := gdscript.ScanDirectives(script.Buffer, script.Tokens, lint.Known)
	return format.Format(script, dirs, cfg.FormatOptions())
}
