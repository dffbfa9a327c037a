package sedlang

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSubstitute(t *testing.T) {
	res, err := Run(`s/foo/bar/`, "foo baz foo\n", Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "bar baz foo\n")
}

func TestSubstituteGlobal(t *testing.T) {
	res, err := Run(`s/foo/bar/g`, "foo baz foo\n", Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "bar baz bar\n")
}

func TestDeleteLine(t *testing.T) {
	res, err := Run(`2d`, "one\ntwo\nthree\n", Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "one\nthree\n")
}

func TestSuppressWithExplicitPrint(t *testing.T) {
	res, err := Run(`/two/p`, "one\ntwo\nthree\n", Options{Suppress: true})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "two\n")
}

func TestAddressRange(t *testing.T) {
	res, err := Run(`2,3d`, "one\ntwo\nthree\nfour\n", Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "one\nfour\n")
}
