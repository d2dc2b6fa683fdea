package gdscript

type TokenType int

const (
	WhitespaceToken TokenType = iota + 1
	NewlineToken
	IndentToken
	DedentToken
	CommentToken

	IntToken
	FloatToken
	StringToken
	StringNameToken
	NodePathToken
	UniqueNodeToken
	AnnotationToken

	IdentifierToken
	KeywordToken
	PunctToken

	// ErrorToken covers bytes the scanner could not turn into a real token.
	// The corresponding diagnostic is recorded on the scanner; the token
	// itself stays in the stream so concatenation remains lossless.
	ErrorToken
	EOFToken
)

func (tt TokenType) GoString() string {
	return tokenToDescription[tt]
}

func (tt TokenType) String() string {
	return tokenToDescription[tt]
}

func init() {
	// make sure we panic if a description isn't declared
	for tt := TokenType(1); tt != EOFToken; tt++ {
		if tokenToDescription[tt] == "" {
			panic("you have not updated tokenToDescription")
		}
	}
}

var tokenToDescription = map[TokenType]string{
	WhitespaceToken: "WhitespaceToken",
	NewlineToken:    "NewlineToken",
	IndentToken:     "IndentToken",
	DedentToken:     "DedentToken",
	CommentToken:    "CommentToken",

	IntToken:        "IntToken",
	FloatToken:      "FloatToken",
	StringToken:     "StringToken",
	StringNameToken: "StringNameToken",
	NodePathToken:   "NodePathToken",
	UniqueNodeToken: "UniqueNodeToken",
	AnnotationToken: "AnnotationToken",

	IdentifierToken: "IdentifierToken",
	KeywordToken:    "KeywordToken",
	PunctToken:      "PunctToken",

	ErrorToken: "ErrorToken",
	EOFToken:   "EOFToken",
}

// The GDScript 4.x keyword set. `class` is listed alongside `class_name`
// since inner classes open blocks of their own.
var keywords = map[string]struct{}{
	"func":       {},
	"var":        {},
	"const":      {},
	"class":      {},
	"class_name": {},
	"extends":    {},
	"signal":     {},
	"enum":       {},
	"if":         {},
	"elif":       {},
	"else":       {},
	"for":        {},
	"while":      {},
	"match":      {},
	"return":     {},
	"pass":       {},
	"break":      {},
	"continue":   {},
	"true":       {},
	"false":      {},
	"null":       {},
	"and":        {},
	"or":         {},
	"not":        {},
	"in":         {},
	"is":         {},
	"as":         {},
	"self":       {},
	"await":      {},
	"static":     {},
	"onready":    {},
	"export":     {},
}
