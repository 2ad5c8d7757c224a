package storage

import (
	"bufio"
	"io"
	"io/fs"
)

// FileSource adapts an fs.File into a core.CharSource, reading it byte by
// byte through a bufio.Reader with one byte of lookahead; Available/Read/Peek
// read from the file whenever that buffer needs refilling.
type FileSource struct {
	r    *bufio.Reader
	next byte
	has  bool
	eof  bool
	f    fs.File
}

// NewFileSource wraps an open file for LineParser/gcode.Reader consumption.
func NewFileSource(f fs.File) *FileSource {
	s := &FileSource{r: bufio.NewReader(f), f: f}
	s.fill()
	return s
}

func (s *FileSource) fill() {
	if s.has || s.eof {
		return
	}
	b, err := s.r.ReadByte()
	if err != nil {
		s.eof = true
		return
	}
	s.next = b
	s.has = true
}

// Available reports whether another byte can be read.
func (s *FileSource) Available() bool {
	s.fill()
	return s.has
}

// Read consumes and returns the next byte, or 0 at end of file.
func (s *FileSource) Read() byte {
	s.fill()
	if !s.has {
		return 0
	}
	b := s.next
	s.has = false
	return b
}

// Peek returns the next byte without consuming it, or 0 at end of file.
func (s *FileSource) Peek() byte {
	s.fill()
	if !s.has {
		return 0
	}
	return s.next
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}

var _ io.Closer = (*FileSource)(nil)
