package coreutils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/shellgrove/shellgrove/fsys"
)

// memCell is a minimal [FSCell] for exercising registry commands directly,
// the same "state in, state out" contract [session.Session] gives them.
type memCell struct{ fs fsys.FS }

func (m *memCell) FS() fsys.FS      { return m.fs }
func (m *memCell) SetFS(fs fsys.FS) { m.fs = fs }

func fixedClock() time.Time { return time.Unix(0, 0) }

func newCtx(args []string, stdin string, cell *memCell) (*Context, *bytes.Buffer, *bytes.Buffer) {
	var out, errw bytes.Buffer
	cc := &Context{
		args:  args,
		stdin: strings.NewReader(stdin),
		out:   &out,
		errw:  &errw,
		dir:   "/",
		fs:    cell,
		clock: func() int64 { return 0 },
	}
	return cc, &out, &errw
}

func TestWcDefaultColumns(t *testing.T) {
	cell := &memCell{fs: fsys.New(fixedClock)}
	cc, out, _ := newCtx([]string{"wc"}, "one\ntwo\nthree four\n", cell)
	code := cmdWc(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	qt.Assert(t, out.String(), qt.Equals, "       3       4      19\n")
}

func TestWcSingleColumn(t *testing.T) {
	cell := &memCell{fs: fsys.New(fixedClock)}
	cc, out, _ := newCtx([]string{"wc", "-l"}, "a\nb\nc\n", cell)
	code := cmdWc(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	qt.Assert(t, out.String(), qt.Equals, "       3\n")
}

func TestUniqCountsRightPadded(t *testing.T) {
	cell := &memCell{fs: fsys.New(fixedClock)}
	cc, out, _ := newCtx([]string{"uniq", "-c"}, "a\na\nb\n", cell)
	code := cmdUniq(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	qt.Assert(t, out.String(), qt.Equals, "      2 a\n      1 b\n")
}

func TestBase64WrapsAt76(t *testing.T) {
	cell := &memCell{fs: fsys.New(fixedClock)}
	input := strings.Repeat("A", 60)
	cc, out, _ := newCtx([]string{"base64"}, input, cell)
	code := cmdBase64(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	for _, l := range lines[:len(lines)-1] {
		qt.Assert(t, len(l), qt.Equals, 76)
	}
}

func TestFindPrintsNewlineSeparated(t *testing.T) {
	fs := fsys.New(fixedClock)
	fs, err := fs.WriteFile("/d/a", []byte("x"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	fs, err = fs.WriteFile("/d/b", []byte("y"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	cell := &memCell{fs: fs}
	cc, out, _ := newCtx([]string{"find", "/d"}, "", cell)
	code := cmdFind(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	qt.Assert(t, len(got), qt.Equals, 3) // /d, /d/a, /d/b
}

func TestFindPrint0UsesNulAndTrailingNul(t *testing.T) {
	fs := fsys.New(fixedClock)
	fs, err := fs.WriteFile("/d/a", []byte("x"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	cell := &memCell{fs: fs}
	cc, out, _ := newCtx([]string{"find", "/d", "-print0"}, "", cell)
	code := cmdFind(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	got := out.String()
	qt.Assert(t, strings.HasSuffix(got, "\x00"), qt.IsTrue)
	qt.Assert(t, strings.Contains(got, "\n"), qt.IsFalse)
}

func TestLsLongModeString(t *testing.T) {
	fs := fsys.New(fixedClock)
	fs, err := fs.WriteFile("/f", []byte("hi"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	cell := &memCell{fs: fs}
	cc, out, _ := newCtx([]string{"ls", "-l", "/f"}, "", cell)
	code := cmdLs(nil, cc)
	qt.Assert(t, code, qt.Equals, 0)
	qt.Assert(t, strings.HasPrefix(out.String(), "-rw-r--r--"), qt.IsTrue, qt.Commentf("got %q", out.String()))
}
