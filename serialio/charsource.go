// Package serialio adapts a host/serial.Port into a core.CharSource, the
// live single-pass byte stream gcode.Reader runs G-code commands from as
// they arrive over USB.
package serialio

import (
	"github.com/xionluhnis/print-me-a-cookie/host/serial"
)

// bufSize is how many bytes are pulled from the port per drain attempt.
const bufSize = 256

// PortSource reads from an open serial.Port, buffering what one Read
// returns. Available/Read/Peek serve buffered bytes without touching the
// port; once the buffer is empty they call the port's Read, which waits up
// to the port's configured read timeout (indefinitely when it is 0).
type PortSource struct {
	port serial.Port
	buf  []byte
}

// NewPortSource wraps an already-open port.
func NewPortSource(port serial.Port) *PortSource {
	return &PortSource{port: port}
}

func (s *PortSource) fill() {
	if len(s.buf) > 0 {
		return
	}
	chunk := make([]byte, bufSize)
	n, err := s.port.Read(chunk)
	if err != nil || n == 0 {
		return
	}
	s.buf = chunk[:n]
}

// Available reports whether a byte can be returned without blocking.
func (s *PortSource) Available() bool {
	s.fill()
	return len(s.buf) > 0
}

// Read consumes and returns the next byte, or 0 if none is available.
func (s *PortSource) Read() byte {
	s.fill()
	if len(s.buf) == 0 {
		return 0
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b
}

// Peek returns the next byte without consuming it, or 0 if none is
// available.
func (s *PortSource) Peek() byte {
	s.fill()
	if len(s.buf) == 0 {
		return 0
	}
	return s.buf[0]
}

// Write relays bytes back over the port (acknowledgements, error text).
func (s *PortSource) Write(p []byte) (int, error) {
	return s.port.Write(p)
}
