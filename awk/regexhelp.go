package awk

import (
	"regexp"
	"strings"
)

// awkReplace performs sub/gsub's replacement, expanding `&` to the
// matched text and `\&` to a literal ampersand within repl (POSIX awk's
// rule, distinct from Go regexp's own `$1`-style expansion). It replaces
// either the first match (global=false) or every non-overlapping match
// (global=true), incrementing *count once per replacement.
func awkReplace(re *regexp.Regexp, s, repl string, global bool, count *int) string {
	var out strings.Builder
	last := 0
	matches := re.FindAllStringIndex(s, -1)
	for _, m := range matches {
		if !global && *count > 0 {
			break
		}
		out.WriteString(s[last:m[0]])
		out.WriteString(expandRepl(repl, s[m[0]:m[1]]))
		last = m[1]
		*count++
		if !global {
			break
		}
		if m[0] == m[1] {
			// Zero-width match: advance one rune to avoid looping forever,
			// matching the behavior goawk's gsub takes for empty matches.
			if last < len(s) {
				_, size := decodeRune(s[last:])
				out.WriteString(s[last : last+size])
				last += size
			}
		}
	}
	out.WriteString(s[last:])
	return out.String()
}

func decodeRune(s string) (rune, int) {
	for i, r := range s {
		_ = i
		return r, len(string(r))
	}
	return 0, 1
}

// expandRepl expands `&` (whole match), `\&` (literal ampersand) and `\\`
// (one literal backslash) within repl, leaving all other backslash
// sequences untouched.
func expandRepl(repl, match string) string {
	var out strings.Builder
	runes := []rune(repl)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) && runes[i+1] == '&' {
			out.WriteByte('&')
			i++
			continue
		}
		if c == '\\' && i+1 < len(runes) && runes[i+1] == '\\' {
			out.WriteByte('\\')
			i++
			continue
		}
		if c == '&' {
			out.WriteString(match)
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}
