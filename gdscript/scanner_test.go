package gdscript

import (
	"strings"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextToken(t *testing.T) {
	testExt := func(prefix, input string, expectedType TokenType, expected string, extra ...func(*testing.T, Token)) func(*testing.T) {
		return func(t *testing.T) {
			s := NewScanner(NewSourceBuffer("test.gd", prefix+input))
			s.cur = len(prefix)
			s.atLineStart = false
			tok := s.Next()
			assert.Equal(t, expectedType, tok.Type)
			assert.Equal(t, expected, tok.Text)
			for _, e := range extra {
				e(t, tok)
			}
		}
	}

	test := func(input string, expectedType TokenType, expected string, extra ...func(*testing.T, Token)) func(*testing.T) {
		return testExt("x = ", input, expectedType, expected, extra...)
	}

	quoteIs := func(q string) func(*testing.T, Token) {
		return func(t *testing.T, tok Token) {
			assert.Equal(t, q, tok.Quote)
		}
	}

	t.Run("", test("    ", WhitespaceToken, "    "))
	t.Run("", test("  \ta   ", WhitespaceToken, "  \t"))

	t.Run("", test("123", IntToken, "123"))
	t.Run("", test("123;", IntToken, "123"))
	t.Run("", test("1_000_000", IntToken, "1_000_000"))
	t.Run("", test("0xFF_ec", IntToken, "0xFF_ec"))
	t.Run("", test("0b10_10", IntToken, "0b10_10"))
	t.Run("", test("1.5", FloatToken, "1.5"))
	t.Run("", test("1.", FloatToken, "1."))
	t.Run("", test(".5", FloatToken, ".5"))
	t.Run("", test("1e10", FloatToken, "1e10"))
	t.Run("", test("1.5e-3", FloatToken, "1.5e-3"))
	t.Run("", test("2E+4+a", FloatToken, "2E+4"))
	// an `e` with no digits after it is not an exponent
	t.Run("", test("12eat", IntToken, "12"))
	t.Run("", test("0x", ErrorToken, "0x"))

	t.Run("", test(`"hello world"`, StringToken, `"hello world"`, quoteIs(`"`)))
	t.Run("", test(`'hello'`, StringToken, `'hello'`, quoteIs(`'`)))
	t.Run("", test(`""`, StringToken, `""`, quoteIs(`"`)))
	t.Run("", test(`"""doc string"""`, StringToken, `"""doc string"""`, quoteIs(`"""`)))
	t.Run("", test("'''multi\nline'''", StringToken, "'''multi\nline'''", quoteIs("'''")))
	t.Run("", test(`"esc \" quote"`, StringToken, `"esc \" quote"`))
	t.Run("", test(`"unterminated`, ErrorToken, `"unterminated`))
	t.Run("", test("\"stops at newline\nvar", ErrorToken, `"stops at newline`))

	t.Run("", test(`&"signal_name"`, StringNameToken, `&"signal_name"`))
	t.Run("", test("$Player/Sprite2D", NodePathToken, "$Player/Sprite2D"))
	t.Run("", test(`$"My Node"`, NodePathToken, `$"My Node"`))
	t.Run("", test("%UniqueButton", UniqueNodeToken, "%UniqueButton"))
	t.Run("", test("@export var", AnnotationToken, "@export"))
	t.Run("", test("@export_range(0, 10)", AnnotationToken, "@export_range"))

	t.Run("", test("# a comment\nnext", CommentToken, "# a comment"))
	t.Run("", test("#no space", CommentToken, "#no space"))

	t.Run("", test("func", KeywordToken, "func", func(t *testing.T, tok Token) {
		assert.Equal(t, "func", tok.Keyword)
	}))
	t.Run("", test("class_name", KeywordToken, "class_name"))
	t.Run("", test("await x", KeywordToken, "await"))
	t.Run("", test("my_ident2", IdentifierToken, "my_ident2"))
	t.Run("", test("_private", IdentifierToken, "_private"))
	t.Run("", test("funcs", IdentifierToken, "funcs"))

	t.Run("", test("->", PunctToken, "->"))
	t.Run("", test(":=", PunctToken, ":="))
	t.Run("", test("**", PunctToken, "**"))
	t.Run("", test("<<", PunctToken, "<<"))
	t.Run("", test("&&", PunctToken, "&&"))
	t.Run("", test("&x", PunctToken, "&"))
	t.Run("", test("%:", PunctToken, "%"))
	t.Run("", test("%=", PunctToken, "%="))
	t.Run("", test("==", PunctToken, "=="))
	t.Run("", test("=x", PunctToken, "="))
	t.Run("", test(",", PunctToken, ","))

	t.Run("", test("?bad chars", ErrorToken, "?bad chars"))
}

func TestIndentationTokens(t *testing.T) {
	src := "func f():\n\tif true:\n\t\tpass\n\treturn\n"
	buf := NewSourceBuffer("test.gd", src)
	tokens, errs := Tokenize(buf)
	require.Empty(t, errs)

	var kinds []TokenType
	for _, tok := range tokens {
		kinds = append(kinds, tok.Type)
	}
	assert.Equal(t, []TokenType{
		KeywordToken, WhitespaceToken, IdentifierToken, PunctToken, PunctToken, PunctToken, NewlineToken,
		IndentToken, KeywordToken, WhitespaceToken, KeywordToken, PunctToken, NewlineToken,
		IndentToken, KeywordToken, NewlineToken,
		DedentToken, WhitespaceToken, KeywordToken, NewlineToken,
		DedentToken, EOFToken,
	}, kinds, repr.String(tokens))
}

func TestIndentationMismatch(t *testing.T) {
	// the third line lands between the two known levels and disagrees on
	// tabs vs spaces
	src := "if a:\n\tpass\n  pass\n"
	buf := NewSourceBuffer("test.gd", src)
	_, errs := Tokenize(buf)
	require.Len(t, errs, 1)
	assert.Equal(t, "mixed-indentation", errs[0].Rule)
}

func TestBlankAndCommentLinesKeepTheStack(t *testing.T) {
	src := "if a:\n\tpass\n\n# comment at column zero\n\tpass\n"
	buf := NewSourceBuffer("test.gd", src)
	tokens, errs := Tokenize(buf)
	require.Empty(t, errs)

	indents, dedents := 0, 0
	for _, tok := range tokens {
		switch tok.Type {
		case IndentToken:
			indents++
		case DedentToken:
			dedents++
		}
	}
	assert.Equal(t, 1, indents)
	assert.Equal(t, 1, dedents) // only the one at EOF
}

func TestNewlineInsideBracketsIsTrivia(t *testing.T) {
	src := "var x = [\n\t1,\n\t2,\n]\n"
	buf := NewSourceBuffer("test.gd", src)
	tokens, errs := Tokenize(buf)
	require.Empty(t, errs)

	newlines := 0
	for _, tok := range tokens {
		if tok.Type == NewlineToken {
			newlines++
		}
		assert.NotEqual(t, IndentToken, tok.Type)
	}
	assert.Equal(t, 1, newlines) // only the one after the closing bracket
}

func TestLosslessTokenization(t *testing.T) {
	inputs := []string{
		"",
		"var x = 1\n",
		"var  x=1  \n",
		"func f(a, b):\n\treturn a + b\n",
		"# only a comment",
		"var s = \"with \\\"escape\\\"\"\nvar t = '''\nmulti\n'''\n",
		"var d = {\n\t\"a\": 1,  # trailing\n}\n",
		"crlf = 1\r\nother = 2\r\n",
		"@onready var sprite = $Player/Sprite2D\n",
		"signal hit(damage)\nvar unique = %Button\n",
		"if a and not b:\n\tx **= 2\n",
		"bad = \"unterminated\nnext_line = 1\n",
		"deep:\n\tdeeper:\n\t\tdeepest = 1\nback = 2\n",
		"cont = 1 + \\\n\t2\n",
	}
	for _, input := range inputs {
		buf := NewSourceBuffer("test.gd", input)
		tokens, _ := Tokenize(buf)
		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Text)
			assert.Equal(t, input[tok.Start:tok.End], tok.Text)
		}
		assert.Equal(t, input, b.String())
	}
}

func TestInvalidUTF8(t *testing.T) {
	src := "var x = \xff\xfe 1\n"
	buf := NewSourceBuffer("test.gd", src)
	tokens, errs := Tokenize(buf)
	require.Len(t, errs, 1)
	assert.Equal(t, "syntax-error", errs[0].Rule)

	// still lossless
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}
	assert.Equal(t, src, b.String())
}
