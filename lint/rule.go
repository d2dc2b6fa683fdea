package lint

import (
	"regexp"
	"sync"

	"github.com/Gurvan/gdtools/gdscript"
)

// Rule is a named check with a stable kebab-case id. The catalog is fixed;
// per-rule configuration is limited to max, severity, and pattern.
type Rule struct {
	ID          string
	Severity    Severity
	Description string

	// defaults for the configurable knobs; zero values mean the rule has
	// no such knob
	Max     int
	Pattern string

	check func(*context, Rule)
}

// Settings is the slice of the effective configuration the engine needs.
// The config package produces it; keeping the type here avoids an import
// cycle and keeps the engine's data model closed.
type Settings struct {
	Disabled         map[string]bool
	Max              map[string]int
	Pattern          map[string]string
	Severity         map[string]Severity
	WarningsAsErrors bool
}

// Rules returns a copy of the catalog in ascending rule id order, which
// is also the execution order.
func Rules() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether id names a rule in the catalog or one of the ids
// reserved for front-end errors.
func Known(id string) bool {
	if id == "syntax-error" || id == "unknown-rule" {
		return true
	}
	for _, r := range catalog {
		if r.ID == id {
			return true
		}
	}
	return false
}

type context struct {
	script   *gdscript.Script
	settings Settings
	diags    []Diagnostic

	patternOnce sync.Map // rule id -> *regexp.Regexp
}

func (c *context) report(r Rule, start, end int, msg string) {
	sev := r.Severity
	if s, ok := c.settings.Severity[r.ID]; ok {
		sev = s
	}
	c.reportAs(r.ID, sev, start, end, msg)
}

func (c *context) reportAs(id string, sev Severity, start, end int, msg string) {
	buf := c.script.Buffer
	p := buf.OffsetToPos(start)
	q := buf.OffsetToPos(end)
	c.diags = append(c.diags, Diagnostic{
		Rule:     id,
		Severity: sev,
		Message:  msg,
		Start:    start,
		End:      end,
		Line:     p.Line,
		Col:      p.Col,
		EndLine:  q.Line,
		EndCol:   q.Col,
	})
}

func (c *context) max(id string, def int) int {
	if m, ok := c.settings.Max[id]; ok {
		return m
	}
	return def
}

// pattern returns the configured or default regexp of a naming rule.
// Config validation rejects bad patterns at startup; a bad pattern that
// slips through falls back to the default.
func (c *context) pattern(id, def string) *regexp.Regexp {
	if v, ok := c.patternOnce.Load(id); ok {
		return v.(*regexp.Regexp)
	}
	src := def
	if p, ok := c.settings.Pattern[id]; ok && p != "" {
		src = p
	}
	re, err := regexp.Compile(src)
	if err != nil {
		re = regexp.MustCompile(def)
	}
	c.patternOnce.Store(id, re)
	return re
}

// Run executes the enabled rules over a structured script and returns the
// surviving diagnostics sorted by (line, column, rule id). Front-end lex
// errors are re-surfaced as syntax-error; suppression is consulted at each
// diagnostic's start line.
func Run(script *gdscript.Script, dirs *gdscript.Directives, settings Settings) []Diagnostic {
	c := &context{script: script, settings: settings}

	for _, e := range script.Errors {
		if e.Rule != "syntax-error" {
			continue // mixed-indentation is surfaced by its catalog rule
		}
		c.reportAs("syntax-error", SeverityError, e.Start, e.End, e.Message)
	}
	for _, w := range dirs.Warnings {
		c.reportAs(w.Rule, SeverityWarning, w.Start, w.End, w.Message)
	}

	for _, r := range catalog {
		if settings.Disabled[r.ID] {
			continue
		}
		r.check(c, r)
	}

	kept := c.diags[:0]
	for _, d := range c.diags {
		if dirs.Suppress.Suppressed(d.Line, d.Rule) {
			continue
		}
		if settings.WarningsAsErrors && d.Severity == SeverityWarning {
			d.Severity = SeverityError
		}
		kept = append(kept, d)
	}
	Sort(kept)
	return kept
}
