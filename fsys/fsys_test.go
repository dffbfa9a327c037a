package fsys

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func fixedClock() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestWriteReadRoundTrip(t *testing.T) {
	fs := New(fixedClock)
	fs, err := fs.WriteFile("/tmp/x", []byte("hello"), 0o644)
	qt.Assert(t, err, qt.IsNil)

	got, err := fs.ReadFile("/tmp/x")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(got), qt.Equals, "hello")
}

func TestAppendFile(t *testing.T) {
	fs := New(fixedClock)
	fs, err := fs.WriteFile("/x", []byte("a"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	fs, err = fs.AppendFile("/x", []byte("b"), 0o644)
	qt.Assert(t, err, qt.IsNil)

	got, err := fs.ReadFile("/x")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(got), qt.Equals, "ab")
}

func TestReadFileMissing(t *testing.T) {
	fs := New(fixedClock)
	_, err := fs.ReadFile("/nope")
	qt.Assert(t, err, qt.Not(qt.IsNil))
}

func TestStatReportsKind(t *testing.T) {
	fs := New(fixedClock)
	fs, err := fs.Mkdir("/dir")
	qt.Assert(t, err, qt.IsNil)
	fs, err = fs.WriteFile("/dir/f", []byte("x"), 0o644)
	qt.Assert(t, err, qt.IsNil)

	dinfo, err := fs.Stat("/dir")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, dinfo.IsDir(), qt.IsTrue)

	finfo, err := fs.Stat("/dir/f")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, finfo.IsDir(), qt.IsFalse)
	qt.Assert(t, finfo.Size, qt.Equals, int64(1))
}

func TestReadDirListsChildren(t *testing.T) {
	fs := New(fixedClock)
	fs, err := fs.WriteFile("/dir/a", []byte("1"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	fs, err = fs.WriteFile("/dir/b", []byte("22"), 0o644)
	qt.Assert(t, err, qt.IsNil)

	entries, err := fs.ReadDir("/dir")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(entries), qt.Equals, 2)
}

func TestValueSemanticsDoNotLeak(t *testing.T) {
	base := New(fixedClock)
	base, err := base.WriteFile("/x", []byte("v1"), 0o644)
	qt.Assert(t, err, qt.IsNil)

	mutated, err := base.WriteFile("/x", []byte("v2"), 0o644)
	qt.Assert(t, err, qt.IsNil)

	got, err := base.ReadFile("/x")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(got), qt.Equals, "v1", qt.Commentf("base snapshot must not see later writes"))

	got2, err := mutated.ReadFile("/x")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(got2), qt.Equals, "v2")
}

func TestSymlinkAndReadLink(t *testing.T) {
	fs := New(fixedClock)
	fs, err := fs.WriteFile("/real", []byte("data"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	fs, err = fs.Symlink("/real", "/link")
	qt.Assert(t, err, qt.IsNil)

	target, err := fs.ReadLink("/link")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, target, qt.Equals, "/real")

	data, err := fs.ReadFile("/link")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "data")
}

func TestRemove(t *testing.T) {
	fs := New(fixedClock)
	fs, err := fs.WriteFile("/x", []byte("v"), 0o644)
	qt.Assert(t, err, qt.IsNil)
	fs, err = fs.Remove("/x", RemoveOpts{})
	qt.Assert(t, err, qt.IsNil)

	_, err = fs.ReadFile("/x")
	qt.Assert(t, err, qt.Not(qt.IsNil))
}

func TestGlob(t *testing.T) {
	fs := New(fixedClock)
	var err error
	for _, p := range []string{"/a/x.txt", "/a/y.txt", "/a/z.log", "/b/x.txt", "/a/.hidden"} {
		fs, err = fs.WriteFile(p, []byte("x"), 0o644)
		qt.Assert(t, err, qt.IsNil)
	}

	got, err := fs.Glob("/", "/a/*.txt")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.DeepEquals, []string{"/a/x.txt", "/a/y.txt"})

	// hidden entries only match patterns that name the leading dot
	got, err = fs.Glob("/", "/a/*")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.DeepEquals, []string{"/a/x.txt", "/a/y.txt", "/a/z.log"})

	got, err = fs.Glob("/", "/a/.h*")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.DeepEquals, []string{"/a/.hidden"})

	// a pattern with no metacharacters is not a glob at all
	got, err = fs.Glob("/", "/a/x.txt")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.IsNil)
}
