package gdscript

// ParseString tokenizes and structures one script held in memory.
func ParseString(file FileRef, input string) *Script {
	buf := NewSourceBuffer(file, input)
	tokens, errs := Tokenize(buf)
	return Structure(buf, tokens, errs)
}
