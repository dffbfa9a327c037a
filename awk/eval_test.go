package awk

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	qt "github.com/frankban/quicktest"
)

func TestFieldSum(t *testing.T) {
	res, err := Run("BEGIN{s=0} {s+=$1} END{print s}", "1\n2\n3\n", Options{FS: " "})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "6\n")
	qt.Assert(t, res.ExitCode, qt.Equals, 0)
}

func TestExitShortCircuitsButEndStillRuns(t *testing.T) {
	res, err := Run(`{if($1==2)exit 5} END{print "end"}`, "1\n2\n3\n", Options{FS: " "})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "end\n")
	qt.Assert(t, res.ExitCode, qt.Equals, 5)
}

func TestNFReflectsFieldCount(t *testing.T) {
	res, err := Run(`{print NF}`, "a b c\nx\n", Options{FS: " "})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "3\n1\n")
}

func TestGsub(t *testing.T) {
	res, err := Run(`{gsub(/o/,"0"); print}`, "foo bar foo\n", Options{FS: " "})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "f00 bar f00\n")
}

func TestRangePatternIsStateful(t *testing.T) {
	res, err := Run(`/start/,/end/`, "a\nstart\nb\nend\nc\n", Options{FS: " "})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "start\nb\nend\n")
}

func TestArrayInOperator(t *testing.T) {
	res, err := Run(`BEGIN{a["x"]=1; print ("x" in a), ("y" in a)}`, "", Options{FS: " "})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "1 0\n")
}

func TestMixedTypeComparison(t *testing.T) {
	// "10" and "9" as numeric strings compare numerically (10 > 9).
	res, err := Run(`BEGIN{print (10 > 9), ("10" > "9")}`, "", Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "1 1\n")
}

func TestUserDefinedFunction(t *testing.T) {
	res, err := Run(`function double(x) { return x*2 } BEGIN{print double(21)}`, "", Options{})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Output, qt.Equals, "42\n")
}

func TestParseProducesExpectedPatternShape(t *testing.T) {
	prog, err := Parse(`/foo/{print}`)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(prog.Rules), qt.Equals, 1)
	want := RegexPattern{Regex: "foo"}
	if diff := cmp.Diff(want, prog.Rules[0].Pattern); diff != "" {
		t.Fatalf("pattern mismatch (-want +got):\n%s", diff)
	}
}
