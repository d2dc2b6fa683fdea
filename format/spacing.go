package format

import (
	"strings"

	"github.com/Gurvan/gdtools/gdscript"
)

var valueKeywords = map[string]bool{
	"self": true, "true": true, "false": true, "null": true,
}

var symbolOps = map[string]bool{
	"=": true, "==": true, "!=": true, "<": true, "<=": true, ">": true,
	">=": true, "+": true, "-": true, "*": true, "/": true, "%": true,
	"**": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	":=": true, "->": true, "&": true, "|": true, "^": true, "~": true,
	"<<": true, ">>": true, "&&": true, "||": true, "!": true,
}

var unaryCandidates = map[string]bool{
	"+": true, "-": true, "~": true, "!": true,
}

func isAtom(t gdscript.Token) bool {
	switch t.Type {
	case gdscript.IdentifierToken, gdscript.IntToken, gdscript.FloatToken,
		gdscript.StringToken, gdscript.StringNameToken,
		gdscript.NodePathToken, gdscript.UniqueNodeToken:
		return true
	}
	return false
}

// isUnary reports whether the operator at index i is used as a prefix
// operator: it is when nothing value-like precedes it.
func isUnary(toks []gdscript.Token, i int) bool {
	t := toks[i]
	if t.Type != gdscript.PunctToken || !unaryCandidates[t.Text] {
		return false
	}
	if i == 0 {
		return true
	}
	prev := toks[i-1]
	switch prev.Type {
	case gdscript.KeywordToken:
		return !valueKeywords[prev.Keyword]
	case gdscript.PunctToken:
		switch prev.Text {
		case ")", "]", "}":
			return false
		}
		return true
	default:
		return !isAtom(prev)
	}
}

// render serializes a run of code tokens with canonical spacing, decided
// by token-pair lookup.
func render(toks []gdscript.Token) string {
	var b strings.Builder
	var braceStack []bool // one entry per open '{': non-empty literal?
	for i, t := range toks {
		if i > 0 && needsSpace(toks, i, braceStack) {
			b.WriteByte(' ')
		}
		if t.Type == gdscript.PunctToken {
			switch t.Text {
			case "{":
				nonEmpty := i+1 < len(toks) && toks[i+1].Text != "}"
				braceStack = append(braceStack, nonEmpty)
			case "}":
				if len(braceStack) > 0 {
					braceStack = braceStack[:len(braceStack)-1]
				}
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func topBrace(braceStack []bool) bool {
	return len(braceStack) > 0 && braceStack[len(braceStack)-1]
}

func needsSpace(toks []gdscript.Token, i int, braceStack []bool) bool {
	prev, cur := toks[i-1], toks[i]
	pt, ct := prev.Text, cur.Text

	// separators and closers take no space before; a non-empty dictionary
	// keeps one space inside its braces
	if cur.Type == gdscript.PunctToken {
		switch ct {
		case ",", ";", ".", ":", ")", "]":
			return false
		case "}":
			return topBrace(braceStack)
		}
	}

	if prev.Type == gdscript.PunctToken {
		switch pt {
		case "(", "[", ".":
			return false
		case "{":
			return topBrace(braceStack)
		case ",", ";", ":":
			return true
		}
	}

	// an annotation hugs its argument list but is spaced from the
	// declaration it decorates
	if prev.Type == gdscript.AnnotationToken {
		return ct != "("
	}

	// after a prefix operator nothing is spaced; after a binary one
	// everything is
	if prev.Type == gdscript.PunctToken && symbolOps[pt] {
		return !isUnary(toks, i-1)
	}

	// calls and subscripts hug their target
	if cur.Type == gdscript.PunctToken && (ct == "(" || ct == "[") {
		switch prev.Type {
		case gdscript.KeywordToken:
			return !valueKeywords[prev.Keyword]
		case gdscript.PunctToken:
			return false // after a closer: chained call or subscript
		default:
			return !isAtom(prev)
		}
	}

	if cur.Type == gdscript.PunctToken && symbolOps[ct] {
		return true
	}

	return true
}
