package gdscript

import (
	"strings"
)

// LogicalLine is a maximal run of tokens ending at a newline that is not
// inside unmatched brackets. Code holds the non-trivia tokens in order;
// comments are attached per the conventions below:
//
//   - comment-only physical lines attach as Leading to the next logical
//     line (or to a trailing synthetic line at end of file),
//   - a same-line comment after the code attaches as Trailing,
//   - comments on continuation lines inside brackets stay in Inner.
type LogicalLine struct {
	Code     []Token
	Inner    []Token
	Leading  []Token
	Trailing *Token

	Indent       string // raw leading whitespace of the first physical line
	Depth        int    // Indent measured in multiples of the file's indent unit
	BlanksBefore int    // blank physical lines between this and the previous line

	Start, End int // byte span from line start to before the terminating newline

	// HeaderKeyword is set when the line opens a block: the final code
	// token is `:` and the first is one of the block-introducing
	// keywords. Match arm headers are recognized positionally during
	// tree building instead.
	HeaderKeyword string

	// Synthetic marks the end-of-file comment holder; it has no code.
	Synthetic bool
}

func (l *LogicalLine) IsHeader() bool { return l.HeaderKeyword != "" }

// FirstKeyword returns the keyword of the first code token, or "".
func (l *LogicalLine) FirstKeyword() string {
	if len(l.Code) > 0 && l.Code[0].Type == KeywordToken {
		return l.Code[0].Keyword
	}
	return ""
}

// Node is one entry of a block: a logical line, plus the nested block it
// opens when it is a header.
type Node struct {
	Line *LogicalLine
	Sub  *Block
}

// Block is a run of logical lines sharing the same depth under the same
// header. Blocks form a tree rooted at depth 0.
type Block struct {
	Header *LogicalLine // nil for the root block
	Depth  int
	Nodes  []*Node
}

// Script is the structured form of one buffer: the lossless token stream,
// the logical lines, and the indentation-derived block tree.
type Script struct {
	Buffer *SourceBuffer
	Tokens []Token
	Lines  []*LogicalLine
	Root   *Block
	Unit   string // the file's indent unit, "" if nothing is indented
	Errors []Error
}

// HasStructuralErrors reports whether indentation was inconsistent
// somewhere; the formatter refuses to write in that case.
func (s *Script) HasStructuralErrors() bool {
	for _, e := range s.Errors {
		if e.Rule == "mixed-indentation" {
			return true
		}
	}
	return false
}

var headerKeywords = map[string]struct{}{
	"func": {}, "if": {}, "elif": {}, "else": {}, "for": {},
	"while": {}, "match": {}, "class": {}, "static": {},
}

// Structure folds a token stream into logical lines and builds the block
// tree. Lex errors from the scanner are carried over and structural errors
// appended.
func Structure(buf *SourceBuffer, tokens []Token, errs []Error) *Script {
	sc := &Script{Buffer: buf, Tokens: tokens, Errors: errs}

	var (
		cur        *LogicalLine
		pending    []Token // leading comments waiting for their line
		blanks     int
		sawComment bool // a comment was seen on the current physical line
	)

	finish := func(end int) {
		if cur == nil {
			return
		}
		cur.End = end
		// a final comment on the closing physical line is the trailing
		// comment of the line
		if n := len(cur.Inner); n > 0 {
			last := cur.Inner[n-1]
			lastCode := cur.Code[len(cur.Code)-1]
			if last.Start > lastCode.End && !strings.Contains(buf.Text()[last.End:end], "\n") {
				c := last
				cur.Trailing = &c
				cur.Inner = cur.Inner[:n-1]
			}
		}
		sc.Lines = append(sc.Lines, cur)
		cur = nil
	}

	for _, t := range tokens {
		switch t.Type {
		case WhitespaceToken, IndentToken, DedentToken:
			// indentation is re-derived from the buffer per line

		case CommentToken:
			sawComment = true
			if cur == nil {
				pending = append(pending, t)
			} else {
				cur.Inner = append(cur.Inner, t)
			}

		case NewlineToken:
			if cur != nil {
				finish(t.Start)
			} else if !sawComment {
				blanks++
			}
			sawComment = false

		case EOFToken:
			finish(t.Start)
			if len(pending) > 0 {
				// comments with no following line attach to the end
				// of the file
				l := &LogicalLine{
					Leading:      pending,
					BlanksBefore: blanks,
					Start:        pending[0].Start,
					End:          pending[len(pending)-1].End,
					Synthetic:    true,
				}
				l.Indent = lineIndent(buf, pending[0].Start)
				sc.Lines = append(sc.Lines, l)
				pending = nil
			}

		default:
			if cur == nil {
				cur = &LogicalLine{
					Leading:      pending,
					BlanksBefore: blanks,
					Start:        buf.LineStart(buf.OffsetToPos(t.Start).Line),
				}
				cur.Indent = lineIndent(buf, t.Start)
				pending = nil
				blanks = 0
			}
			cur.Code = append(cur.Code, t)
		}
	}

	sc.computeDepths()
	sc.markHeaders()
	sc.Root = buildTree(sc.Lines)
	return sc
}

func lineIndent(buf *SourceBuffer, off int) string {
	text := buf.LineText(buf.OffsetToPos(off).Line)
	return text[:len(text)-len(strings.TrimLeft(text, " \t"))]
}

// computeDepths fixes the indent unit as the first indentation string
// encountered in the file; every other level must be an integer multiple
// of it.
func (s *Script) computeDepths() {
	for _, l := range s.Lines {
		if l.Indent == "" {
			continue
		}
		if s.Unit == "" {
			s.Unit = l.Indent
		}
		n := len(l.Indent) / len(s.Unit)
		if l.Indent == strings.Repeat(s.Unit, n) {
			l.Depth = n
			continue
		}
		s.Errors = append(s.Errors, Error{
			Rule:    "mixed-indentation",
			Message: "indentation is not a multiple of the file's indent unit",
			Start:   l.Start,
			End:     l.Start + len(l.Indent),
		})
		if n < 1 {
			n = 1
		}
		l.Depth = n
	}
}

func (s *Script) markHeaders() {
	for _, l := range s.Lines {
		if len(l.Code) == 0 {
			continue
		}
		last := l.Code[len(l.Code)-1]
		if last.Type != PunctToken || last.Text != ":" {
			continue
		}
		first := l.Code[0]
		if first.Type != KeywordToken {
			continue
		}
		kw := first.Keyword
		if _, ok := headerKeywords[kw]; !ok {
			continue
		}
		if kw == "static" {
			if len(l.Code) > 1 && l.Code[1].Type == KeywordToken && l.Code[1].Keyword == "func" {
				kw = "func"
			} else {
				continue
			}
		}
		l.HeaderKeyword = kw
	}
}

// buildTree nests lines by depth. Any line followed by deeper lines gets a
// sub-block, which also covers match arm patterns whose header keyword is
// not one of the fixed set.
func buildTree(lines []*LogicalLine) *Block {
	root := &Block{Depth: 0}
	stack := []*Block{root}

	for _, l := range lines {
		top := stack[len(stack)-1]
		switch {
		case l.Depth > top.Depth:
			sub := &Block{Depth: l.Depth}
			if n := len(top.Nodes); n > 0 {
				sub.Header = top.Nodes[n-1].Line
				top.Nodes[n-1].Sub = sub
			}
			stack = append(stack, sub)
			sub.Nodes = append(sub.Nodes, &Node{Line: l})
		case l.Depth < top.Depth:
			for len(stack) > 1 && stack[len(stack)-1].Depth > l.Depth {
				stack = stack[:len(stack)-1]
			}
			stack[len(stack)-1].Nodes = append(stack[len(stack)-1].Nodes, &Node{Line: l})
		default:
			top.Nodes = append(top.Nodes, &Node{Line: l})
		}
	}
	return root
}

// CountLines returns the number of logical lines in the block subtree.
func (b *Block) CountLines() int {
	n := 0
	for _, node := range b.Nodes {
		if !node.Line.Synthetic {
			n++
		}
		if node.Sub != nil {
			n += node.Sub.CountLines()
		}
	}
	return n
}

// Walk visits every block in the tree, parents before children.
func (b *Block) Walk(fn func(*Block)) {
	fn(b)
	for _, node := range b.Nodes {
		if node.Sub != nil {
			node.Sub.Walk(fn)
		}
	}
}
