package serialio

import "testing"

type mockPort struct {
	in  []byte
	out []byte
}

func (m *mockPort) Read(b []byte) (int, error) {
	if len(m.in) == 0 {
		return 0, nil
	}
	n := copy(b, m.in)
	m.in = m.in[n:]
	return n, nil
}

func (m *mockPort) Write(b []byte) (int, error) {
	m.out = append(m.out, b...)
	return len(b), nil
}

func (m *mockPort) Close() error { return nil }
func (m *mockPort) Flush() error { return nil }

func TestPortSourceReadsBytesInOrder(t *testing.T) {
	port := &mockPort{in: []byte("G1 X1\n")}
	src := NewPortSource(port)

	var got []byte
	for src.Available() {
		got = append(got, src.Read())
	}
	if string(got) != "G1 X1\n" {
		t.Errorf("got %q, want %q", got, "G1 X1\n")
	}
}

func TestPortSourcePeekDoesNotConsume(t *testing.T) {
	port := &mockPort{in: []byte("AB")}
	src := NewPortSource(port)

	if p := src.Peek(); p != 'A' {
		t.Errorf("Peek() = %c, want A", p)
	}
	if r := src.Read(); r != 'A' {
		t.Errorf("Read() = %c, want A", r)
	}
	if r := src.Read(); r != 'B' {
		t.Errorf("Read() = %c, want B", r)
	}
}

func TestPortSourceWriteRelaysToPort(t *testing.T) {
	port := &mockPort{}
	src := NewPortSource(port)
	if _, err := src.Write([]byte("ok\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if string(port.out) != "ok\n" {
		t.Errorf("port received %q, want %q", port.out, "ok\n")
	}
}

func TestPortSourceAvailableFalseWhenEmpty(t *testing.T) {
	port := &mockPort{}
	src := NewPortSource(port)
	if src.Available() {
		t.Errorf("expected Available() false on empty port")
	}
}
