// Package storage browses the directory of G-code files the machine can
// run: a begin()/list()/open() trio generalized from an SD card's FAT
// directory onto any io/fs.FS-backed directory (a plain host filesystem
// in practice).
package storage

import (
	"io/fs"
	"os"
	"sort"

	"github.com/xionluhnis/print-me-a-cookie/core"
)

// Entry is one listed file: its 1-based id (skipping directories, starting
// at 1) and its name/size.
type Entry struct {
	ID   int
	Name string
	Size int64
}

// Browser lists and opens files from a single root directory.
type Browser struct {
	root    string
	fsys    fs.FS
	entries []Entry
	current *Entry
}

// New opens root as the browsing directory.
func New(root string) (*Browser, error) {
	info, err := os.Stat(root)
	if err != nil {
		core.ReportError(core.ErrFileUnavailable)
		return nil, err
	}
	if !info.IsDir() {
		core.ReportError(core.ErrFileUnavailable)
		return nil, &fs.PathError{Op: "open", Path: root, Err: fs.ErrInvalid}
	}
	return &Browser{root: root, fsys: os.DirFS(root)}, nil
}

// List rescans the directory and returns every non-directory entry, in an
// [id] name (size) shape, ordered and numbered from 1. A rescan always
// starts fresh.
func (b *Browser) List() ([]Entry, error) {
	names, err := fs.ReadDir(b.fsys, ".")
	if err != nil {
		core.ReportError(core.ErrFileUnavailable)
		return nil, err
	}

	sort.Slice(names, func(i, j int) bool { return names[i].Name() < names[j].Name() })

	entries := make([]Entry, 0, len(names))
	id := 1
	for _, d := range names {
		if d.IsDir() {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{ID: id, Name: d.Name(), Size: info.Size()})
		id++
	}
	b.entries = entries
	return entries, nil
}

// Open selects fileID (1-based) as the current file. fileID == 0 returns
// whatever is already current without walking the directory.
func (b *Browser) Open(fileID int) (*Entry, error) {
	if fileID == 0 {
		return b.current, nil
	}
	if b.entries == nil {
		if _, err := b.List(); err != nil {
			return nil, err
		}
	}
	for i := range b.entries {
		if b.entries[i].ID == fileID {
			b.current = &b.entries[i]
			return b.current, nil
		}
	}
	core.ReportError(core.ErrFileUnavailable)
	return nil, &fs.PathError{Op: "open", Path: b.root, Err: fs.ErrNotExist}
}

// Current returns the file selected by the most recent successful Open,
// or nil if none has been opened yet.
func (b *Browser) Current() *Entry {
	return b.current
}

// Reader opens the current file (or fileID if nonzero) for reading, the
// point where this package hands a concrete os.File off to
// core.CharSource-based consumers such as gcode.Reader.
func (b *Browser) Reader(fileID int) (fs.File, error) {
	entry, err := b.Open(fileID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		core.ReportError(core.ErrFileProcState)
		return nil, &fs.PathError{Op: "open", Path: b.root, Err: fs.ErrInvalid}
	}
	f, err := b.fsys.Open(entry.Name)
	if err != nil {
		core.ReportError(core.ErrFileUnavailable)
		return nil, err
	}
	return f, nil
}
