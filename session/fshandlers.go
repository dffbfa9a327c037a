package session

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/shellgrove/shellgrove/fsys"
	"github.com/shellgrove/shellgrove/interp"
)

// fileInfo adapts [fsys.Info] to [io/fs.FileInfo], the interface
// [interp.StatHandlerFunc] and [interp.ReadDirHandlerFunc2] are typed
// against. fsys itself stays free of an io/fs dependency, describing the
// FS contract in its own vocabulary; this adapter is the seam between
// that pure domain type and the interpreter's handler plumbing.
type fileInfo struct{ i fsys.Info }

func (f fileInfo) Name() string       { return f.i.Name }
func (f fileInfo) Size() int64        { return f.i.Size }
func (f fileInfo) Mode() fs.FileMode  { return toFileMode(f.i.Mode) }
func (f fileInfo) ModTime() time.Time { return f.i.ModTime }
func (f fileInfo) IsDir() bool        { return f.i.IsDir() }
func (f fileInfo) Sys() any           { return nil }

func toFileMode(m fsys.Mode) fs.FileMode {
	out := fs.FileMode(m.Perm())
	if m.IsDir() {
		out |= fs.ModeDir
	}
	if m.IsSymlink() {
		out |= fs.ModeSymlink
	}
	return out
}

// dirEntry adapts [fsys.DirEntry] to [io/fs.DirEntry].
type dirEntry struct{ e fsys.DirEntry }

func (d dirEntry) Name() string               { return d.e.Name }
func (d dirEntry) IsDir() bool                { return d.e.Info.IsDir() }
func (d dirEntry) Type() fs.FileMode          { return toFileMode(d.e.Info.Mode).Type() }
func (d dirEntry) Info() (fs.FileInfo, error) { return fileInfo{d.e.Info}, nil }

func resolveDir(ctx context.Context, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(interp.HandlerCtx(ctx).Dir, p)
}

func pathErrToOS(op, p string, err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*fsys.PathError); ok {
		return &os.PathError{Op: op, Path: pe.Path, Err: pe.Err}
	}
	return &os.PathError{Op: op, Path: p, Err: err}
}

// statHandler returns an [interp.StatHandlerFunc] backed by the session's
// FS cell, resolving relative paths against [interp.HandlerCtx].Dir as the
// handler contract requires.
func (s *Session) statHandler() interp.StatHandlerFunc {
	return func(ctx context.Context, name string, followSymlinks bool) (fs.FileInfo, error) {
		abs := resolveDir(ctx, name)
		var info fsys.Info
		var err error
		if followSymlinks {
			info, err = s.fs.Stat(abs)
		} else {
			info, err = s.fs.Lstat(abs)
		}
		if err != nil {
			return nil, pathErrToOS("stat", abs, err)
		}
		return fileInfo{info}, nil
	}
}

func (s *Session) readDirHandler() interp.ReadDirHandlerFunc2 {
	return func(ctx context.Context, p string) ([]fs.DirEntry, error) {
		abs := resolveDir(ctx, p)
		entries, err := s.fs.ReadDir(abs)
		if err != nil {
			return nil, pathErrToOS("readdir", abs, err)
		}
		out := make([]fs.DirEntry, len(entries))
		for i, e := range entries {
			out[i] = dirEntry{e}
		}
		return out, nil
	}
}

// fsFile is the io.ReadWriteCloser handed back to the interpreter for
// redirections and process substitutions. Reads stream the snapshot taken
// at open time; writes buffer in memory and are flushed back into the
// session's FS cell on Close, matching the "state in, state out"
// discipline of [fsys.FS] without needing incremental writes mid-command.
type fsFile struct {
	s      *Session
	path   string
	append bool
	write  bool
	buf    bytes.Buffer
	r      *bytes.Reader
}

func (f *fsFile) Read(p []byte) (int, error) {
	if f.r == nil {
		return 0, io.EOF
	}
	return f.r.Read(p)
}

func (f *fsFile) Write(p []byte) (int, error) {
	f.write = true
	return f.buf.Write(p)
}

func (f *fsFile) Close() error {
	if !f.write {
		return nil
	}
	var newFS fsys.FS
	var err error
	if f.append {
		newFS, err = f.s.fs.AppendFile(f.path, f.buf.Bytes(), 0o644)
	} else {
		newFS, err = f.s.fs.WriteFile(f.path, f.buf.Bytes(), 0o644)
	}
	if err != nil {
		return pathErrToOS("write", f.path, err)
	}
	f.s.fs = newFS
	return nil
}

// openHandler returns an [interp.OpenHandlerFunc] that stages reads from,
// and buffers writes back into, the session's FS cell.
func (s *Session) openHandler() interp.OpenHandlerFunc {
	return func(ctx context.Context, name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
		abs := resolveDir(ctx, name)
		if abs == "/dev/null" {
			return &nullFile{}, nil
		}
		f := &fsFile{s: s, path: abs}
		switch {
		case flag&os.O_APPEND != 0:
			f.append = true
		}
		wantsRead := flag&os.O_WRONLY == 0
		if wantsRead {
			data, err := s.fs.ReadFile(abs)
			switch {
			case err == nil:
				f.r = bytes.NewReader(data)
			case flag&os.O_CREATE != 0:
				// will be created on Close if written to
			default:
				return nil, pathErrToOS("open", abs, err)
			}
		} else if flag&os.O_TRUNC == 0 && flag&os.O_APPEND == 0 {
			// plain write-only open without truncate/append still replaces
			// the file contents on close, matching `>`.
		}
		return f, nil
	}
}

// nullFile implements /dev/null: reads return EOF, writes are discarded.
type nullFile struct{}

func (nullFile) Read([]byte) (int, error)  { return 0, io.EOF }
func (nullFile) Write(p []byte) (int, error) { return len(p), nil }
func (nullFile) Close() error              { return nil }
