package lint

import (
	"fmt"
	"strings"

	"github.com/Gurvan/gdtools/gdscript"
)

const (
	defaultFunctionPattern = `^_?[a-z][a-z0-9_]*$`
	defaultClassPattern    = `^[A-Z][A-Za-z0-9]*$`
	defaultConstantPattern = `^[A-Z][A-Z0-9_]*$`
	defaultVariablePattern = `^_?[a-z][a-z0-9_]*$`
)

// catalog is ordered by ascending rule id; Run executes it in this order.
var catalog = []Rule{
	{
		ID: "class-name", Severity: SeverityWarning,
		Description: "class_name and inner class identifiers must be PascalCase",
		Pattern:     defaultClassPattern,
		check:       checkClassName,
	},
	{
		ID: "constant-name", Severity: SeverityWarning,
		Description: "const identifiers must be UPPER_SNAKE_CASE",
		Pattern:     defaultConstantPattern,
		check:       checkConstantName,
	},
	{
		ID: "duplicate-key", Severity: SeverityError,
		Description: "dictionary literals must not repeat a key",
		check:       checkDuplicateKey,
	},
	{
		ID: "expression-not-assigned", Severity: SeverityWarning,
		Description: "standalone expression statement has no effect",
		check:       checkExpressionNotAssigned,
	},
	{
		ID: "function-name", Severity: SeverityWarning,
		Description: "func identifiers must be snake_case",
		Pattern:     defaultFunctionPattern,
		check:       checkFunctionName,
	},
	{
		ID: "max-function-args", Severity: SeverityWarning,
		Description: "func header has too many parameters",
		Max:         10,
		check:       checkMaxFunctionArgs,
	},
	{
		ID: "max-function-lines", Severity: SeverityWarning,
		Description: "func body spans too many logical lines",
		Max:         40,
		check:       checkMaxFunctionLines,
	},
	{
		ID: "max-line-length", Severity: SeverityWarning,
		Description: "line is longer than the configured maximum",
		Max:         100,
		check:       checkMaxLineLength,
	},
	{
		ID: "max-public-methods", Severity: SeverityWarning,
		Description: "class has too many public methods",
		Max:         20,
		check:       checkMaxPublicMethods,
	},
	{
		ID: "mixed-indentation", Severity: SeverityError,
		Description: "indentation mixes tabs and spaces or indent units",
		check:       checkMixedIndentation,
	},
	{
		ID: "no-else-return", Severity: SeverityWarning,
		Description: "if branch returns and is followed by else/elif",
		check:       checkNoElseReturn,
	},
	{
		ID: "tabs-and-spaces", Severity: SeverityError,
		Description: "leading indentation contains both tabs and spaces",
		check:       checkTabsAndSpaces,
	},
	{
		ID: "trailing-whitespace", Severity: SeverityWarning,
		Description: "line ends in spaces or tabs",
		check:       checkTrailingWhitespace,
	},
	{
		ID: "unused-argument", Severity: SeverityWarning,
		Description: "func parameter is never referenced in the body",
		check:       checkUnusedArgument,
	},
	{
		ID: "variable-name", Severity: SeverityWarning,
		Description: "var identifiers must be snake_case",
		Pattern:     defaultVariablePattern,
		check:       checkVariableName,
	},
}

// declIdent returns the identifier token following the given keyword on a
// line, skipping any leading annotations and the static qualifier.
func declIdent(l *gdscript.LogicalLine, kw string) *gdscript.Token {
	for i, t := range l.Code {
		if t.Type == gdscript.KeywordToken && t.Keyword == kw {
			for j := i + 1; j < len(l.Code); j++ {
				if l.Code[j].Type == gdscript.IdentifierToken {
					return &l.Code[j]
				}
				if l.Code[j].Type != gdscript.KeywordToken {
					break
				}
			}
			return nil
		}
	}
	return nil
}

// funcParams returns the parameter name tokens of a func header: the first
// identifier of each comma-separated segment inside the top-level parens.
func funcParams(l *gdscript.LogicalLine) []gdscript.Token {
	var params []gdscript.Token
	depth := 0
	expecting := false
	for _, t := range l.Code {
		if t.Type == gdscript.PunctToken {
			switch t.Text {
			case "(", "[", "{":
				depth++
				if depth == 1 && t.Text == "(" {
					expecting = true
				}
			case ")", "]", "}":
				depth--
				if depth == 0 {
					return params
				}
			case ",":
				if depth == 1 {
					expecting = true
				}
			}
			continue
		}
		if expecting && depth == 1 && t.Type == gdscript.IdentifierToken {
			params = append(params, t)
			expecting = false
		}
	}
	return params
}

func checkNamePattern(c *context, r Rule, what string, ident *gdscript.Token) {
	if ident == nil {
		return
	}
	re := c.pattern(r.ID, r.Pattern)
	if !re.MatchString(ident.Text) {
		c.report(r, ident.Start, ident.End,
			fmt.Sprintf("%s name %q does not match %q", what, ident.Text, re.String()))
	}
}

func checkClassName(c *context, r Rule) {
	for _, l := range c.script.Lines {
		switch {
		case l.FirstKeyword() == "class_name":
			checkNamePattern(c, r, "class", declIdent(l, "class_name"))
		case l.HeaderKeyword == "class":
			checkNamePattern(c, r, "class", declIdent(l, "class"))
		}
	}
}

func checkConstantName(c *context, r Rule) {
	for _, l := range c.script.Lines {
		if kw := firstDeclKeyword(l); kw == "const" {
			checkNamePattern(c, r, "constant", declIdent(l, "const"))
		}
	}
}

func checkVariableName(c *context, r Rule) {
	for _, l := range c.script.Lines {
		if kw := firstDeclKeyword(l); kw == "var" {
			checkNamePattern(c, r, "variable", declIdent(l, "var"))
		}
	}
}

func checkFunctionName(c *context, r Rule) {
	for _, l := range c.script.Lines {
		if l.HeaderKeyword == "func" {
			checkNamePattern(c, r, "function", declIdent(l, "func"))
		}
	}
}

// firstDeclKeyword is the first keyword of a line once leading annotations
// and the static qualifier are skipped, so `@export var x` is a var
// declaration.
func firstDeclKeyword(l *gdscript.LogicalLine) string {
	for _, t := range l.Code {
		switch t.Type {
		case gdscript.AnnotationToken:
			continue
		case gdscript.KeywordToken:
			if t.Keyword == "static" || t.Keyword == "onready" || t.Keyword == "export" {
				continue
			}
			return t.Keyword
		}
		return ""
	}
	return ""
}

func checkMaxFunctionArgs(c *context, r Rule) {
	max := c.max(r.ID, r.Max)
	for _, l := range c.script.Lines {
		if l.HeaderKeyword != "func" {
			continue
		}
		if n := len(funcParams(l)); n > max {
			c.report(r, l.Start, l.End,
				fmt.Sprintf("function has %d parameters, more than %d", n, max))
		}
	}
}

func checkMaxFunctionLines(c *context, r Rule) {
	max := c.max(r.ID, r.Max)
	c.script.Root.Walk(func(b *gdscript.Block) {
		if b.Header == nil || b.Header.HeaderKeyword != "func" {
			return
		}
		if n := b.CountLines(); n > max {
			c.report(r, b.Header.Start, b.Header.End,
				fmt.Sprintf("function body spans %d logical lines, more than %d", n, max))
		}
	})
}

func checkMaxLineLength(c *context, r Rule) {
	max := c.max(r.ID, r.Max)
	buf := c.script.Buffer
	for line := 1; line <= buf.NumLines(); line++ {
		text := buf.LineText(line)
		if width := len([]rune(text)); width > max {
			start := buf.LineStart(line)
			c.report(r, start, start+len(text),
				fmt.Sprintf("line is %d characters, longer than %d", width, max))
		}
	}
}

func checkMaxPublicMethods(c *context, r Rule) {
	max := c.max(r.ID, r.Max)

	countPublic := func(b *gdscript.Block) int {
		n := 0
		for _, node := range b.Nodes {
			if node.Line.HeaderKeyword != "func" {
				continue
			}
			name := declIdent(node.Line, "func")
			if name != nil && !strings.HasPrefix(name.Text, "_") {
				n++
			}
		}
		return n
	}

	// the script root is itself a class
	if n := countPublic(c.script.Root); n > max {
		at := classAnchor(c.script)
		if at != nil {
			c.report(r, at.Start, at.End,
				fmt.Sprintf("class has %d public methods, more than %d", n, max))
		}
	}
	c.script.Root.Walk(func(b *gdscript.Block) {
		if b.Header == nil || b.Header.HeaderKeyword != "class" {
			return
		}
		if n := countPublic(b); n > max {
			c.report(r, b.Header.Start, b.Header.End,
				fmt.Sprintf("class has %d public methods, more than %d", n, max))
		}
	})
}

// classAnchor picks where a whole-script diagnostic points: the class_name
// line if present, otherwise the first line with code.
func classAnchor(s *gdscript.Script) *gdscript.LogicalLine {
	for _, l := range s.Lines {
		if l.FirstKeyword() == "class_name" {
			return l
		}
	}
	for _, l := range s.Lines {
		if !l.Synthetic {
			return l
		}
	}
	return nil
}

func checkUnusedArgument(c *context, r Rule) {
	c.script.Root.Walk(func(b *gdscript.Block) {
		if b.Header == nil || b.Header.HeaderKeyword != "func" {
			return
		}
		params := funcParams(b.Header)
		if len(params) == 0 {
			return
		}
		used := make(map[string]bool)
		collectIdents(b, used)
		for _, p := range params {
			if strings.HasPrefix(p.Text, "_") {
				continue
			}
			if !used[p.Text] {
				c.report(r, p.Start, p.End,
					fmt.Sprintf("parameter %q is never used", p.Text))
			}
		}
	})
}

func collectIdents(b *gdscript.Block, into map[string]bool) {
	for _, node := range b.Nodes {
		for _, t := range node.Line.Code {
			if t.Type == gdscript.IdentifierToken {
				into[t.Text] = true
			}
		}
		if node.Sub != nil {
			collectIdents(node.Sub, into)
		}
	}
}

func checkDuplicateKey(c *context, r Rule) {
	for _, l := range c.script.Lines {
		var stack []map[string]bool // one per open brace
		depth := 0
		braceDepth := make(map[int]bool) // bracket depth levels opened by '{'
		for i, t := range l.Code {
			if t.Type != gdscript.PunctToken {
				continue
			}
			switch t.Text {
			case "{":
				depth++
				braceDepth[depth] = true
				stack = append(stack, make(map[string]bool))
			case "(", "[":
				depth++
				braceDepth[depth] = false
			case ")", "]":
				depth--
			case "}":
				depth--
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			case ":":
				if braceDepth[depth] && len(stack) > 0 && i > 0 {
					key := l.Code[i-1]
					seen := stack[len(stack)-1]
					if seen[key.Text] {
						c.report(r, key.Start, key.End,
							fmt.Sprintf("duplicate dictionary key %s", key.Text))
					}
					seen[key.Text] = true
				}
			}
		}
	}
}

var assignmentOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true,
	"%=": true, ":=": true,
}

func checkExpressionNotAssigned(c *context, r Rule) {
	for _, l := range c.script.Lines {
		if len(l.Code) == 0 || l.IsHeader() {
			continue
		}
		if firstDeclKeyword(l) != "" || l.FirstKeyword() != "" {
			continue
		}
		// a line ending in `:` is a block opener (a match arm, a
		// property with an inline body), not an expression statement
		if last := l.Code[len(l.Code)-1]; last.Type == gdscript.PunctToken && last.Text == ":" {
			continue
		}
		effect := false
		depth := 0
		for _, t := range l.Code {
			switch {
			case t.Type == gdscript.PunctToken && (t.Text == "(" || t.Text == "[" || t.Text == "{"):
				depth++
				if t.Text == "(" {
					effect = true // a call may have side effects
				}
			case t.Type == gdscript.PunctToken && (t.Text == ")" || t.Text == "]" || t.Text == "}"):
				depth--
			case t.Type == gdscript.PunctToken && depth == 0 && assignmentOps[t.Text]:
				effect = true
			case t.Type == gdscript.KeywordToken && t.Keyword == "await":
				effect = true
			case t.Type == gdscript.ErrorToken:
				effect = true // don't pile on top of a lex error
			}
		}
		if !effect {
			c.report(r, l.Start, l.End, "expression statement has no effect")
		}
	}
}

func checkNoElseReturn(c *context, r Rule) {
	c.script.Root.Walk(func(b *gdscript.Block) {
		for i, node := range b.Nodes {
			kw := node.Line.HeaderKeyword
			if (kw != "if" && kw != "elif") || node.Sub == nil {
				continue
			}
			if !blockReturns(node.Sub) {
				continue
			}
			if i+1 < len(b.Nodes) {
				next := b.Nodes[i+1].Line
				if next.HeaderKeyword == "else" || next.HeaderKeyword == "elif" {
					c.report(r, next.Start, next.End,
						"unnecessary \"else\" after a branch that returns")
				}
			}
		}
	})
}

func blockReturns(b *gdscript.Block) bool {
	if len(b.Nodes) == 0 {
		return false
	}
	last := b.Nodes[len(b.Nodes)-1]
	return last.Line.FirstKeyword() == "return"
}

func checkMixedIndentation(c *context, r Rule) {
	for _, e := range c.script.Errors {
		if e.Rule == "mixed-indentation" {
			c.report(r, e.Start, e.End, e.Message)
		}
	}
}

func checkTabsAndSpaces(c *context, r Rule) {
	buf := c.script.Buffer
	for line := 1; line <= buf.NumLines(); line++ {
		text := buf.LineText(line)
		lead := text[:len(text)-len(strings.TrimLeft(text, " \t"))]
		if strings.ContainsRune(lead, ' ') && strings.ContainsRune(lead, '\t') {
			start := buf.LineStart(line)
			c.report(r, start, start+len(lead),
				"leading indentation mixes tabs and spaces")
		}
	}
}

func checkTrailingWhitespace(c *context, r Rule) {
	buf := c.script.Buffer
	for line := 1; line <= buf.NumLines(); line++ {
		text := buf.LineText(line)
		trimmed := strings.TrimRight(text, " \t")
		if len(trimmed) == len(text) || text == "" {
			continue
		}
		start := buf.LineStart(line)
		c.report(r, start+len(trimmed), start+len(text), "trailing whitespace")
	}
}
