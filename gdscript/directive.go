package gdscript

import (
	"math"
	"strings"
)

// SkipRegion is a half-open byte range in which the formatter must emit
// the original bytes verbatim.
type SkipRegion struct {
	Start, End int
}

type suppressRegion struct {
	rule     string // "*" means every rule
	from, to int    // physical lines, inclusive
}

// SuppressionMap records, per physical line, the rule ids that must not
// produce diagnostics there.
type SuppressionMap struct {
	ignores map[int]map[string]struct{}
	regions []suppressRegion
}

func (m *SuppressionMap) Suppressed(line int, rule string) bool {
	if rules, ok := m.ignores[line]; ok {
		if _, ok := rules["*"]; ok {
			return true
		}
		if _, ok := rules[rule]; ok {
			return true
		}
	}
	for _, r := range m.regions {
		if line < r.from || line > r.to {
			continue
		}
		if r.rule == "*" || r.rule == rule {
			return true
		}
	}
	return false
}

func (m *SuppressionMap) ignore(line int, rule string) {
	if m.ignores == nil {
		m.ignores = make(map[int]map[string]struct{})
	}
	if m.ignores[line] == nil {
		m.ignores[line] = make(map[string]struct{})
	}
	m.ignores[line][rule] = struct{}{}
}

// Directives is the result of scanning `gdlint:` and `fmt:` comments:
// suppressions for the linter, skip regions for the formatter. The two are
// deliberately independent.
type Directives struct {
	Suppress *SuppressionMap
	Skips    []SkipRegion
	Warnings []Error // unknown rule ids named in directives
}

// ScanDirectives extracts directives from the comment trivia of a token
// stream. knownRule reports whether a rule id exists; unknown ids warn but
// still take effect literally.
func ScanDirectives(buf *SourceBuffer, tokens []Token, knownRule func(string) bool) *Directives {
	d := &Directives{Suppress: &SuppressionMap{}}

	open := make(map[string]int) // rule -> line its disable region started on
	skipStart := -1

	for _, t := range tokens {
		if t.Type != CommentToken {
			continue
		}
		line := buf.OffsetToPos(t.Start).Line
		text := strings.TrimSpace(strings.TrimPrefix(t.Text, "#"))

		switch {
		case strings.HasPrefix(text, "gdlint:"):
			rest := strings.TrimSpace(strings.TrimPrefix(text, "gdlint:"))
			verb, csv, _ := strings.Cut(rest, "=")
			verb = strings.TrimSpace(verb)
			rules := splitRules(csv)
			for _, r := range rules {
				if r != "*" && !knownRule(r) {
					d.Warnings = append(d.Warnings, Error{
						Rule:    "unknown-rule",
						Message: "unknown rule id " + r + " in directive",
						Start:   t.Start,
						End:     t.End,
					})
				}
			}
			switch verb {
			case "ignore":
				for _, r := range rules {
					d.Suppress.ignore(line, r)
					if target := directiveTarget(buf, t, line); target != line {
						d.Suppress.ignore(target, r)
					}
				}
			case "disable":
				for _, r := range rules {
					if _, ok := open[r]; !ok {
						open[r] = line
					}
				}
			case "enable":
				for _, r := range rules {
					from, ok := open[r]
					if !ok && r == "*" {
						// enable=* closes everything still open
						for rr, f := range open {
							d.Suppress.regions = append(d.Suppress.regions,
								suppressRegion{rule: rr, from: f, to: line})
							delete(open, rr)
						}
						continue
					}
					if ok {
						d.Suppress.regions = append(d.Suppress.regions,
							suppressRegion{rule: r, from: from, to: line})
						delete(open, r)
					}
				}
			}

		case strings.HasPrefix(text, "fmt:"):
			switch strings.TrimSpace(strings.TrimPrefix(text, "fmt:")) {
			case "off":
				if skipStart < 0 {
					skipStart = buf.LineStart(line)
				}
			case "on":
				if skipStart >= 0 {
					d.Skips = append(d.Skips, SkipRegion{
						Start: skipStart,
						End:   endOfLine(buf, line),
					})
					skipStart = -1
				}
			}
		}
	}

	// disable with no matching enable runs to the end of the file, as does
	// fmt: off with no fmt: on
	for r, from := range open {
		d.Suppress.regions = append(d.Suppress.regions,
			suppressRegion{rule: r, from: from, to: math.MaxInt32})
	}
	if skipStart >= 0 {
		d.Skips = append(d.Skips, SkipRegion{Start: skipStart, End: buf.Len()})
	}
	return d
}

// splitRules parses the csv of a directive; `*` or an empty list means all
// rules.
func splitRules(csv string) []string {
	csv = strings.TrimSpace(csv)
	if csv == "" || csv == "*" {
		return []string{"*"}
	}
	var rules []string
	for _, r := range strings.Split(csv, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return []string{"*"}
	}
	return rules
}

// directiveTarget resolves which physical line an ignore applies to. A
// trailing directive suppresses its own line; a directive alone on its
// line suppresses the next line that carries content.
func directiveTarget(buf *SourceBuffer, t Token, line int) int {
	before := buf.Text()[buf.LineStart(line):t.Start]
	if strings.TrimLeft(before, " \t") != "" {
		return line
	}
	for l := line + 1; l <= buf.NumLines(); l++ {
		text := strings.TrimSpace(buf.LineText(l))
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		return l
	}
	return line
}

func endOfLine(buf *SourceBuffer, line int) int {
	if line >= buf.NumLines() {
		return buf.Len()
	}
	return buf.LineStart(line + 1)
}
