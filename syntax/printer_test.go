// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"bytes"
	"strings"
	"testing"
)

func printString(t *testing.T, node Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewPrinter().Print(&buf, node); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

// TestPrintRoundTrip checks that printing a parsed program and parsing the
// output again reaches a fixed point: the second print must match the
// first. This is the re-parse property the printer exists to provide for
// trace output and function display.
func TestPrintRoundTrip(t *testing.T) {
	t.Parallel()
	srcs := []string{
		"echo foo bar",
		"a=1 b=2 cmd",
		"foo | bar | baz",
		"a && b || c",
		"! false",
		"cmd >out 2>err <in",
		"if a; then b; fi",
		"if a; then b; elif c; then d; else e; fi",
		"while read x; do echo $x; done",
		"until a; do b; done",
		"for i in a b c; do echo $i; done",
		"for ((i = 0; i < 3; i++)); do echo; done",
		"case $x in a | b) one ;; *) two ;; esac",
		"foo() { bar; }",
		"function foo { bar; }",
		"(a; b)",
		"{ a; b; }",
		"((x + 1))",
		"[[ -f file ]]",
		"[[ $x == y && $z != w ]]",
		"declare -x foo=bar",
		"local x=5",
		"echo ${a:-b} ${c#d} ${e//f/g} ${#h}",
		"echo $(date) `uptime`",
		"echo $((1 + 2 * 3))",
		"echo \"quoted $var and $(cmd)\"",
		"echo 'single quoted'",
		"sleep 1 &",
		"let a=1 b+=2",
		"time -p foo",
	}
	for _, src := range srcs {
		f, err := NewParser().Parse(strings.NewReader(src), "")
		if err != nil {
			t.Errorf("parse %q: %v", src, err)
			continue
		}
		first := printString(t, f)
		f2, err := NewParser().Parse(strings.NewReader(first), "")
		if err != nil {
			t.Errorf("re-parse of %q (printed as %q): %v", src, first, err)
			continue
		}
		second := printString(t, f2)
		if first != second {
			t.Errorf("print of %q did not reach a fixed point:\nfirst:  %q\nsecond: %q",
				src, first, second)
		}
	}
}

func TestPrintHeredoc(t *testing.T) {
	t.Parallel()
	src := "cat <<EOF\nhello\nEOF\n"
	f, err := NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		t.Fatal(err)
	}
	out := printString(t, f)
	f2, err := NewParser().Parse(strings.NewReader(out), "")
	if err != nil {
		t.Fatalf("re-parse of %q: %v", out, err)
	}
	if got := f2.Stmts[0].Redirs[0].Hdoc.Lit(); got != "hello" {
		t.Fatalf("heredoc body after round trip: got %q", got)
	}
}

func TestPrintSingleNodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		node Node
		want string
	}{
		{&Word{Parts: []WordPart{&Lit{Value: "foo"}}}, "foo"},
		{&SglQuoted{Value: "a b"}, "'a b'"},
		{&ParamExp{Short: true, Param: &Lit{Value: "x"}}, "$x"},
		{
			&ParamExp{Param: &Lit{Value: "x"}, Exp: &Expansion{
				Op:   SubstColMinus,
				Word: &Word{Parts: []WordPart{&Lit{Value: "y"}}},
			}},
			"${x:-y}",
		},
		{
			&BinaryArithm{Op: Add,
				X: &Word{Parts: []WordPart{&Lit{Value: "1"}}},
				Y: &Word{Parts: []WordPart{&Lit{Value: "2"}}}},
			"1 + 2",
		},
		{
			&Assign{Name: &Lit{Value: "a"}, Value: &Word{Parts: []WordPart{&Lit{Value: "b"}}}},
			"a=b",
		},
	}
	for _, tc := range tests {
		if got := printString(t, tc.node); got != tc.want {
			t.Errorf("wanted %q, got %q", tc.want, got)
		}
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"foo", "foo"},
		{"foo bar", "'foo bar'"},
		{"don't", `'don'\''t'`},
		{"$var", "'$var'"},
		{"a*b", "'a*b'"},
	}
	for _, tc := range tests {
		got, err := Quote(tc.in, LangBash)
		if err != nil {
			t.Fatalf("Quote(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Quote(%q): wanted %q, got %q", tc.in, tc.want, got)
		}
	}
	if _, err := Quote("a\x00b", LangBash); err == nil {
		t.Errorf("Quote with a null byte should fail")
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]bool{
		"foo":   true,
		"_foo":  true,
		"f1":    true,
		"1f":    false,
		"":      false,
		"a-b":   false,
		"a b":   false,
		"ABC_9": true,
	} {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q): wanted %v, got %v", name, want, got)
		}
	}
}

func TestWalkVisitsEveryWord(t *testing.T) {
	t.Parallel()
	f, err := NewParser().Parse(strings.NewReader("echo foo; echo bar baz"), "")
	if err != nil {
		t.Fatal(err)
	}
	words := 0
	Walk(f, func(node Node) bool {
		if _, ok := node.(*Word); ok {
			words++
		}
		return true
	})
	if words != 5 {
		t.Fatalf("wanted 5 words, got %d", words)
	}
}
