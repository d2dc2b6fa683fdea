package gdscript

import (
	"sort"
	"strings"
)

// dedicated type for reference to file, in case we need to refactor this later..
type FileRef string

type Pos struct {
	File      FileRef
	Line, Col int
}

// SourceBuffer owns the input text of one script and a precomputed index of
// line start offsets. Tokens and logical lines carry byte ranges into it
// rather than owning string data, so the buffer must outlive everything
// derived from it.
type SourceBuffer struct {
	file        FileRef
	text        string
	lineOffsets []int // byte offset at which each line begins, ascending
	newline     string
}

func NewSourceBuffer(file FileRef, text string) *SourceBuffer {
	b := &SourceBuffer{file: file, text: text}
	b.lineOffsets = append(b.lineOffsets, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			b.lineOffsets = append(b.lineOffsets, i+1)
		}
	}
	crlf := strings.Count(text, "\r\n")
	lf := strings.Count(text, "\n") - crlf
	if crlf > lf {
		b.newline = "\r\n"
	} else {
		b.newline = "\n"
	}
	return b
}

func (b *SourceBuffer) File() FileRef { return b.file }

func (b *SourceBuffer) Text() string { return b.text }

func (b *SourceBuffer) Len() int { return len(b.text) }

// Newline returns the dominant line ending of the file; both back-ends
// preserve it on output.
func (b *SourceBuffer) Newline() string { return b.newline }

func (b *SourceBuffer) NumLines() int { return len(b.lineOffsets) }

// OffsetToPos maps a byte offset to a 1-based (line, col) position.
// Columns count bytes from the line start, like the scanner's own
// bookkeeping, so positions are stable regardless of encoding errors.
func (b *SourceBuffer) OffsetToPos(off int) Pos {
	if off < 0 {
		off = 0
	}
	if off > len(b.text) {
		off = len(b.text)
	}
	line := sort.Search(len(b.lineOffsets), func(i int) bool {
		return b.lineOffsets[i] > off
	}) - 1
	return Pos{
		File: b.file,
		Line: line + 1,
		Col:  off - b.lineOffsets[line] + 1,
	}
}

// LineStart returns the byte offset at which the given 1-based line begins.
func (b *SourceBuffer) LineStart(line int) int {
	if line < 1 {
		return 0
	}
	if line > len(b.lineOffsets) {
		return len(b.text)
	}
	return b.lineOffsets[line-1]
}

// LineText returns the text of the given 1-based line without its newline.
func (b *SourceBuffer) LineText(line int) string {
	if line < 1 || line > len(b.lineOffsets) {
		return ""
	}
	start := b.lineOffsets[line-1]
	end := len(b.text)
	if line < len(b.lineOffsets) {
		end = b.lineOffsets[line]
	}
	s := b.text[start:end]
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}
