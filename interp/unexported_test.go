// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"testing"
	"time"
)

func TestElapsedString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    time.Duration
		posix bool
		want  string
	}{
		{time.Nanosecond, false, "0m0.000s"},
		{time.Millisecond, false, "0m0.001s"},
		{time.Millisecond, true, "0.00"},
		{2500 * time.Millisecond, false, "0m2.500s"},
		{2500 * time.Millisecond, true, "2.50"},
		{
			10*time.Minute + 10*time.Second,
			false,
			"10m10.000s",
		},
		{
			10*time.Minute + 10*time.Second,
			true,
			"610.00",
		},
		{31 * time.Second, false, "0m31.000s"},
		{102 * time.Second, false, "1m42.000s"},
	}
	for _, tc := range tests {
		t.Run(tc.in.String(), func(t *testing.T) {
			got := elapsedString(tc.in, tc.posix)
			if got != tc.want {
				t.Fatalf("wanted %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFlagParser(t *testing.T) {
	t.Parallel()

	fp := flagParser{remaining: []string{"-ab", "+c", "--", "arg1", "arg2"}}
	var flags []string
	for fp.more() {
		flags = append(flags, fp.flag())
	}
	want := []string{"-a", "-b", "+c"}
	if len(flags) != len(want) {
		t.Fatalf("wanted flags %v, got %v", want, flags)
	}
	for i := range want {
		if flags[i] != want[i] {
			t.Fatalf("flag %d: wanted %q, got %q", i, want[i], flags[i])
		}
	}
	if args := fp.args(); len(args) != 2 || args[0] != "arg1" {
		t.Fatalf("wanted 2 args after --, got %v", args)
	}
}
