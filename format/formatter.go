package format

import (
	"bytes"
	"errors"
	"strings"

	"github.com/Gurvan/gdtools/gdscript"
)

// Options is the slice of the effective configuration the formatter needs.
type Options struct {
	LineLength int
	Indent     string // "\t" for tabs, or indent_size spaces
}

func DefaultOptions() Options {
	return Options{LineLength: 100, Indent: "\t"}
}

// ErrStructural is returned when a file's indentation is inconsistent; the
// formatter never writes output for such a file.
var ErrStructural = errors.New("file has structural errors")

// Format re-serializes a structured script into its canonical textual
// form: depth-based indentation, canonical token spacing, normalized blank
// lines, wrapped long lines, and verbatim skip regions. Formatting is
// idempotent and preserves every comment.
func Format(script *gdscript.Script, dirs *gdscript.Directives, opts Options) ([]byte, error) {
	if script.HasStructuralErrors() {
		return nil, ErrStructural
	}
	if opts.LineLength <= 0 {
		opts.LineLength = 100
	}
	if opts.Indent == "" {
		opts.Indent = "\t"
	}

	w := &writer{
		buf:     script.Buffer,
		opts:    opts,
		nl:      script.Buffer.Newline(),
		skips:   dirs.Skips,
		parents: parentBlocks(script),
	}
	w.run(script.Lines)
	return w.out.Bytes(), nil
}

type writer struct {
	buf  *gdscript.SourceBuffer
	opts Options
	nl   string

	out       bytes.Buffer
	skips     []gdscript.SkipRegion
	skipUntil int // bytes before this offset were emitted verbatim

	parents map[*gdscript.LogicalLine]*gdscript.Block
	started bool
	prev    *gdscript.LogicalLine
}

// parentBlocks maps each line to the block containing it.
func parentBlocks(script *gdscript.Script) map[*gdscript.LogicalLine]*gdscript.Block {
	m := make(map[*gdscript.LogicalLine]*gdscript.Block)
	script.Root.Walk(func(b *gdscript.Block) {
		for _, n := range b.Nodes {
			m[n.Line] = b
		}
	})
	return m
}

func (w *writer) regionAt(off int) *gdscript.SkipRegion {
	for i := range w.skips {
		r := &w.skips[i]
		if off >= r.Start && off < r.End && r.End > w.skipUntil {
			return r
		}
	}
	return nil
}

func (w *writer) emitRegion(r *gdscript.SkipRegion) {
	text := w.buf.Text()[r.Start:r.End]
	w.out.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		w.out.WriteString(w.nl)
	}
	w.skipUntil = r.End
	w.started = true
	w.prev = nil
}

func (w *writer) run(lines []*gdscript.LogicalLine) {
	for _, l := range lines {
		if l.End <= w.skipUntil {
			continue // fully inside an emitted skip region
		}

		w.emitBlanks(l)

		for _, cmt := range l.Leading {
			if cmt.End <= w.skipUntil {
				continue
			}
			if r := w.regionAt(cmt.Start); r != nil {
				w.emitRegion(r)
				continue
			}
			w.writeIndent(l.Depth)
			w.out.WriteString(strings.TrimRight(cmt.Text, " \t"))
			w.out.WriteString(w.nl)
			w.started = true
		}

		if l.Start < w.skipUntil {
			continue
		}
		if l.Synthetic {
			continue // only carried comments, emitted above
		}
		if r := w.regionAt(l.Start); r != nil {
			w.emitRegion(r)
			continue
		}

		w.emitLine(l)
		w.prev = l
		w.started = true
	}
}

func isAnnotationOnly(l *gdscript.LogicalLine) bool {
	for _, t := range l.Code {
		if t.Type != gdscript.AnnotationToken {
			return false
		}
	}
	return len(l.Code) > 0
}

// emitBlanks normalizes the blank lines before a logical line: runs longer
// than two collapse to two, a top-level block header or a top-level line
// right after an indented block gets exactly one separating blank, and
// func declarations at class scope get two. Other consecutive top-level
// lines, such as a run of var declarations, keep their own blank lines.
func (w *writer) emitBlanks(l *gdscript.LogicalLine) {
	if !w.started {
		return
	}
	n := l.BlanksBefore
	if n > 2 {
		n = 2
	}
	if w.prev != nil && !isAnnotationOnly(w.prev) {
		if w.classScopeFunc(l) && w.prev != w.parentHeader(l) {
			n = 2
		} else if l.Depth == 0 && !l.Synthetic &&
			(l.IsHeader() || w.prev.Depth > 0) && len(l.Code) > 0 {
			n = 1
		}
	}
	for i := 0; i < n; i++ {
		w.out.WriteString(w.nl)
	}
}

func (w *writer) parentHeader(l *gdscript.LogicalLine) *gdscript.LogicalLine {
	if b := w.parents[l]; b != nil {
		return b.Header
	}
	return nil
}

func (w *writer) classScopeFunc(l *gdscript.LogicalLine) bool {
	if l.HeaderKeyword != "func" || l.Depth == 0 {
		return false
	}
	b := w.parents[l]
	return b != nil && b.Header != nil && b.Header.HeaderKeyword == "class"
}

func (w *writer) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		w.out.WriteString(w.opts.Indent)
	}
}

func (w *writer) emitLine(l *gdscript.LogicalLine) {
	// comments captured on continuation lines inside brackets are hoisted
	// above the line; their relative order is preserved
	for _, cmt := range l.Inner {
		w.writeIndent(l.Depth)
		w.out.WriteString(strings.TrimRight(cmt.Text, " \t"))
		w.out.WriteString(w.nl)
	}

	toks := dropTrailingCommas(l.Code)
	rendered := render(toks)
	width := len([]rune(rendered)) + l.Depth*indentWidth(w.opts.Indent)

	if width > w.opts.LineLength {
		if w.emitWrapped(l, toks) {
			return
		}
	}

	w.writeIndent(l.Depth)
	w.out.WriteString(rendered)
	w.writeTrailing(l)
	w.out.WriteString(w.nl)
}

func indentWidth(indent string) int {
	if indent == "\t" {
		return 4
	}
	return len(indent)
}

func (w *writer) writeTrailing(l *gdscript.LogicalLine) {
	if l.Trailing != nil {
		w.out.WriteString("  ")
		w.out.WriteString(strings.TrimRight(l.Trailing.Text, " \t"))
	}
}

// dropTrailingCommas removes a `,` that directly precedes a closing
// bracket, so wrapped lists round-trip to the same single-line rendering.
func dropTrailingCommas(toks []gdscript.Token) []gdscript.Token {
	var out []gdscript.Token
	for i, t := range toks {
		if t.Type == gdscript.PunctToken && t.Text == "," && i+1 < len(toks) {
			next := toks[i+1]
			if next.Type == gdscript.PunctToken &&
				(next.Text == ")" || next.Text == "]" || next.Text == "}") {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// emitWrapped wraps the outermost comma-separated bracket list: opening
// bracket at end of line, one element per line a level deeper with a
// trailing comma, closing bracket back at the original indentation.
// Returns false when the line has no list to wrap at.
func (w *writer) emitWrapped(l *gdscript.LogicalLine, toks []gdscript.Token) bool {
	open, closing := wrappableList(toks)
	if open < 0 {
		return false
	}

	w.writeIndent(l.Depth)
	w.out.WriteString(render(toks[:open+1]))
	w.out.WriteString(w.nl)

	for _, elem := range splitElements(toks[open+1 : closing]) {
		w.writeIndent(l.Depth + 1)
		w.out.WriteString(render(elem))
		w.out.WriteString(",")
		w.out.WriteString(w.nl)
	}

	w.writeIndent(l.Depth)
	w.out.WriteString(render(toks[closing:]))
	w.writeTrailing(l)
	w.out.WriteString(w.nl)
	return true
}

// wrappableList finds the outermost bracket pair that contains a comma at
// its own nesting level.
func wrappableList(toks []gdscript.Token) (int, int) {
	type frame struct {
		open     int
		hasComma bool
	}
	var stack []frame
	best, bestClose, bestDepth := -1, -1, 1<<30

	for i, t := range toks {
		if t.Type != gdscript.PunctToken {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			stack = append(stack, frame{open: i})
		case ")", "]", "}":
			if len(stack) == 0 {
				continue
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.hasComma && len(stack) < bestDepth {
				best, bestClose, bestDepth = f.open, i, len(stack)
			}
		case ",":
			if len(stack) > 0 {
				stack[len(stack)-1].hasComma = true
			}
		}
	}
	if best < 0 {
		return -1, -1
	}
	return best, bestClose
}

// splitElements splits the tokens between a bracket pair at the commas of
// the outer level.
func splitElements(toks []gdscript.Token) [][]gdscript.Token {
	var elems [][]gdscript.Token
	depth := 0
	start := 0
	for i, t := range toks {
		if t.Type != gdscript.PunctToken {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				if i > start {
					elems = append(elems, toks[start:i])
				}
				start = i + 1
			}
		}
	}
	if start < len(toks) {
		elems = append(elems, toks[start:])
	}
	return elems
}
