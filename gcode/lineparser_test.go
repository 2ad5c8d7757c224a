package gcode

import "testing"

func TestLineParserReadFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10\n", 10},
		{"-5.5\n", -5.5},
		{"0.125\n", 0.125},
		{"X\n", 0}, // non-numeric: parser returns 0 without consuming
	}
	for _, c := range cases {
		p := NewLineParser(newStringSource(c.in))
		got := p.ReadFloat()
		if got != c.want {
			t.Errorf("ReadFloat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLineParserReadInt(t *testing.T) {
	p := NewLineParser(newStringSource("-42,rest\n"))
	if got := p.ReadInt(); got != -42 {
		t.Errorf("ReadInt() = %d, want -42", got)
	}
}

func TestLineParserSublineStopsAtBreakWithoutEndingParent(t *testing.T) {
	parent := NewLineParser(newStringSource("ab,cd\n"))
	sub := parent.Subline()

	var collected []byte
	for sub.Available() {
		c := sub.ReadChar()
		if c == 0 {
			break
		}
		collected = append(collected, c)
	}
	if string(collected) != "ab" {
		t.Errorf("subline collected %q, want %q", collected, "ab")
	}
	if !parent.Available() {
		t.Errorf("expected parent still valid after subline hit a comma")
	}
}

func TestLineParserNewlineEndsParentToo(t *testing.T) {
	parent := NewLineParser(newStringSource("ab\ncd"))
	sub := parent.Subline()
	for sub.Available() {
		if sub.ReadChar() == 0 {
			break
		}
	}
	if parent.Available() {
		t.Errorf("expected newline inside subline to invalidate the parent")
	}
}
