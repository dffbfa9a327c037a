package jqlang

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestIdentityFilter(t *testing.T) {
	res, err := Run(`.`, `{"a":1}`, Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(res.Values), qt.Equals, 1)
	qt.Assert(t, Encode(res.Values[0]), qt.Equals, `{"a":1}`)
}

func TestFieldAccess(t *testing.T) {
	res, err := Run(`.name`, `{"name":"ada"}`, Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(res.Values), qt.Equals, 1)
	qt.Assert(t, res.Values[0], qt.Equals, "ada")
}

func TestArrayIteration(t *testing.T) {
	res, err := Run(`.[]`, `[1,2,3]`, Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(res.Values), qt.Equals, 3)
}

func TestPreservesKeyOrderOnEncode(t *testing.T) {
	res, err := Run(`.`, `{"z":1,"a":2}`, Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, Encode(res.Values[0]), qt.Equals, `{"z":1,"a":2}`)
}

func TestPipeAndObjectConstruction(t *testing.T) {
	res, err := Run(`{n: .name}`, `{"name":"ada","age":36}`, Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, Encode(res.Values[0]), qt.Equals, `{"n":"ada"}`)
}
