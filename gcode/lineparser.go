// Package gcode implements the streaming G-code front end: a character
// parser (LineParser) and a field/command dispatcher (Reader) that drives
// motion.Locator, motion.Elevator and an extruder motion.Stepper.
package gcode

import "github.com/xionluhnis/print-me-a-cookie/core"

func isBreak(c byte) bool      { return c == ',' || c == ';' }
func isNewline(c byte) bool    { return c == '\n' || c == '\r' }
func isBlankSpace(c byte) bool { return c == ' ' || c == '\t' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }

// LineParser reads typed tokens off a core.CharSource, stopping at the end
// of the current line. A Subline shares its parent's input but has its own
// validity: reaching a comma or semicolon ends the subline without ending
// the parent line; reaching a newline ends both.
type LineParser struct {
	input  core.CharSource
	last   byte
	valid  bool
	parent *LineParser
}

// NewLineParser starts a parser positioned at the top of a new line.
func NewLineParser(s core.CharSource) *LineParser {
	return &LineParser{input: s, valid: true}
}

// Subline opens a nested parser sharing the same input: it is invalidated
// by a line break like its parent, but also stops (without affecting the
// parent) at a comma/semicolon.
func (p *LineParser) Subline() *LineParser {
	if !p.valid {
		return p
	}
	return &LineParser{input: p.input, valid: true, parent: p}
}

// Available reports whether another token can be read on this line.
func (p *LineParser) Available() bool {
	return p.valid && p.input.Available()
}

// Skip consumes the rest of the current (sub)line.
func (p *LineParser) Skip() {
	if !p.valid {
		return
	}
	for p.read() {
	}
}

// ReadChar consumes and returns the next character, or 0 past the line end.
func (p *LineParser) ReadChar() byte {
	if p.valid && p.read() {
		return p.last
	}
	return 0
}

// ReadFullChar skips blanks and returns the next non-blank character.
func (p *LineParser) ReadFullChar() byte {
	var c byte
	for {
		c = p.ReadChar()
		if !isBlankSpace(c) {
			return c
		}
	}
}

// Peek returns the next character without consuming it.
func (p *LineParser) Peek() byte {
	return p.input.Peek()
}

// FullPeek skips blanks (consuming them) and peeks the next significant
// character without consuming it.
func (p *LineParser) FullPeek() byte {
	var c byte
	for {
		c = p.input.Peek()
		if !isBlankSpace(c) {
			break
		}
		if !p.read() {
			break
		}
	}
	return c
}

// ReadInt reads a signed decimal integer up to a break/blank/line boundary.
func (p *LineParser) ReadInt() int32 {
	if !p.valid {
		return 0
	}
	var val int32
	sign := int32(1)
	first := true
loop:
	for p.read() {
		c := p.last
		switch {
		case isBreak(c):
			break loop
		case isBlankSpace(c):
			if first {
				continue
			}
			break loop
		case val == 0 && c == '-':
			sign = -1
		default:
			d := int32(c) - '0'
			if d < 0 || d > 9 {
				core.ReportError(core.ErrParse)
				return val
			}
			val = val*10 + d
		}
		first = false
	}
	return sign * val
}

// ReadULong reads an unsigned decimal integer up to a break/blank/line
// boundary; unlike ReadInt it never accepts a sign.
func (p *LineParser) ReadULong() uint32 {
	if !p.valid {
		return 0
	}
	var val uint32
	first := true
loop:
	for p.read() {
		c := p.last
		switch {
		case isBreak(c):
			break loop
		case isBlankSpace(c):
			if first {
				continue
			}
			break loop
		default:
			d := int32(c) - '0'
			if d < 0 || d > 9 {
				core.ReportError(core.ErrParse)
				return val
			}
			val = val*10 + uint32(d)
		}
		first = false
	}
	return val
}

// ReadLong reads a signed decimal integer (wider range than ReadInt on
// platforms where int is narrower than long; both are int32 here).
func (p *LineParser) ReadLong() int32 {
	return p.ReadInt()
}

// ReadFloat reads a decimal (optionally signed, optionally fractional)
// number. A first significant character that isn't a digit or '-' yields
// 0 without consuming anything beyond the blanks FullPeek already skipped.
func (p *LineParser) ReadFloat() float64 {
	if !p.valid {
		return 0
	}
	first := p.FullPeek()
	if first == '-' || isDigit(first) {
		return p.parseFloat()
	}
	return 0
}

// parseFloat ports Arduino's Stream::parseFloat(): consume a leading sign,
// digits, an optional decimal point and trailing digits, stopping at the
// first character that is none of those. Fractional digits are accumulated
// as an integer and divided by the matching power of ten once at the end, so
// a decimal such as 0.125 comes out as the nearest float64.
func (p *LineParser) parseFloat() float64 {
	var value float64
	negative := false
	divisor := 1.0
	isFraction := false

	c := p.input.Peek()
	for (c >= '0' && c <= '9') || c == '.' || c == '-' {
		switch {
		case c == '-':
			negative = true
		case c == '.':
			isFraction = true
		default:
			value = value*10 + float64(c-'0')
			if isFraction {
				divisor *= 10
			}
		}
		if !p.read() {
			break
		}
		c = p.input.Peek()
	}

	if negative {
		value = -value
	}
	if divisor > 1.0 {
		return value / divisor
	}
	return value
}

// read consumes one character from the input, updating validity: a
// newline invalidates this parser and its parent (end of line); a
// break character invalidates only a subline, leaving its parent intact.
func (p *LineParser) read() bool {
	if p.input.Available() {
		p.last = p.input.Read()
		if isNewline(p.last) {
			p.valid = false
			if p.parent != nil {
				p.parent.valid = false
			}
		}
		if p.parent != nil && isBreak(p.last) {
			p.valid = false
		}
		return p.valid
	}
	return false
}
