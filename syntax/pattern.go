// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"github.com/shellgrove/shellgrove/pattern"
)

// TranslatePattern turns a shell wildcard pattern into a regular expression
// that can be used with regexp.Compile. It will return an error if the input
// pattern was incorrect. Otherwise, the returned expression can be passed to
// [regexp.MustCompile].
//
// For example, TranslatePattern(`foo*bar?`, true) returns `(?s)foo.*bar.`.
//
// Note that this function (and [QuotePattern]) should not be directly used
// with file paths if Windows is supported, as the path separator on that
// platform is a backslash.
func TranslatePattern(pat string, greedy bool) (string, error) {
	var mode pattern.Mode
	if !greedy {
		mode |= pattern.Shortest
	}
	return pattern.Regexp(pat, mode)
}

// HasPattern returns whether a string contains any unescaped wildcard
// characters: '*', '?', or '['. When these characters are used unescaped in
// a shell word, they are interpreted as a pattern during pathname expansion.
func HasPattern(pat string) bool {
	return pattern.HasMeta(pat, 0)
}

// QuotePattern returns a string that quotes all special characters in the
// given wildcard pattern. The returned string is a pattern that matches the
// argument byte-for-byte.
func QuotePattern(pat string) string {
	return pattern.QuoteMeta(pat, 0)
}
