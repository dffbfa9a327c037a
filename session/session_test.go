package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/diff"
)

func fixedClock() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestExecCapturesStdoutAndExitCode(t *testing.T) {
	s, err := New(WithClock(fixedClock))
	qt.Assert(t, err, qt.IsNil)

	res, err := s.Exec(context.Background(), "echo hi; exit 3")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Stdout, qt.Equals, "hi\n")
	qt.Assert(t, res.ExitCode, qt.Equals, 3)
}

func TestExecPersistsStateAcrossCalls(t *testing.T) {
	s, err := New(WithClock(fixedClock))
	qt.Assert(t, err, qt.IsNil)

	_, err = s.Exec(context.Background(), "x=42")
	qt.Assert(t, err, qt.IsNil)

	res, err := s.Exec(context.Background(), "echo $x")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Stdout, qt.Equals, "42\n")
}

func TestExecSeesSeededFiles(t *testing.T) {
	s, err := New(WithClock(fixedClock), WithFiles(map[string][]byte{"/greeting.txt": []byte("hello\n")}))
	qt.Assert(t, err, qt.IsNil)

	res, err := s.Exec(context.Background(), "cat /greeting.txt")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Stdout, qt.Equals, "hello\n")
}

func TestExecWritesMutateSessionFS(t *testing.T) {
	s, err := New(WithClock(fixedClock))
	qt.Assert(t, err, qt.IsNil)

	_, err = s.Exec(context.Background(), "echo hi > /out.txt")
	qt.Assert(t, err, qt.IsNil)

	data, err := s.FS().ReadFile("/out.txt")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "hi\n")
}

func TestExecPipefailPropagatesFailure(t *testing.T) {
	s, err := New(WithClock(fixedClock))
	qt.Assert(t, err, qt.IsNil)

	res, err := s.Exec(context.Background(), "set -o pipefail; false | true; echo $?")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Stdout, qt.Equals, "1\n")
}

func TestExecCurlRefusedWithoutNetwork(t *testing.T) {
	s, err := New(WithClock(fixedClock))
	qt.Assert(t, err, qt.IsNil)

	res, err := s.Exec(context.Background(), "curl http://example.com")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.ExitCode, qt.Not(qt.Equals), 0)
}

// TestExecMultilineOutputMatchesGolden diffs a multi-command script's
// output against a golden string, the same way cmd/shfmt's own tests
// compare formatted source against golden files.
func TestExecMultilineOutputMatchesGolden(t *testing.T) {
	s, err := New(WithClock(fixedClock))
	qt.Assert(t, err, qt.IsNil)

	script := `for i in 1 2 3; do echo "n=$i"; done`
	res, err := s.Exec(context.Background(), script)
	qt.Assert(t, err, qt.IsNil)

	want := "n=1\nn=2\nn=3\n"
	if res.Stdout != want {
		var buf bytes.Buffer
		diff.Text("got", "want", strings.NewReader(res.Stdout), strings.NewReader(want), &buf)
		t.Fatalf("output mismatch:\n%s", buf.String())
	}
}
