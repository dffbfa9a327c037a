package sedlang

import (
	"regexp"
	"strings"
)

// compileBRE translates a POSIX basic-regular-expression pattern (sed's
// default dialect: `\(`, `\)`, `\{`, `\}`, `\+`, `\?`, `\|` are the special
// forms; bare `(`, `)`, `{`, `}`, `+`, `?`, `|` are literal) into the ERE
// dialect Go's regexp package expects, then compiles it. This is the same
// translation GNU sed users expect from basic regular expressions.
func compileBRE(pattern string) (*regexp.Regexp, error) {
	var out strings.Builder
	out.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			next := pattern[i+1]
			switch next {
			case '(', ')', '{', '}', '+', '?', '|':
				out.WriteByte(next)
				i++
			default:
				out.WriteByte('\\')
				out.WriteByte(next)
				i++
			}
			continue
		}
		switch pattern[i] {
		case '(', ')', '{', '}', '+', '?', '|':
			out.WriteByte('\\')
			out.WriteByte(pattern[i])
		default:
			out.WriteByte(pattern[i])
		}
	}
	return regexp.Compile(out.String())
}

// goReplace converts sed replacement syntax (`\1`..`\9` backreferences,
// `&` whole match, `\n`/`\t` escapes) into Go regexp replacement syntax
// (`$1`..`$9`, `${0}`).
func goReplace(sedRepl string) string {
	var b strings.Builder
	b.Grow(len(sedRepl))
	for i := 0; i < len(sedRepl); i++ {
		ch := sedRepl[i]
		switch ch {
		case '\\':
			if i+1 < len(sedRepl) {
				next := sedRepl[i+1]
				switch {
				case next >= '1' && next <= '9':
					b.WriteByte('$')
					b.WriteByte(next)
				case next == 'n':
					b.WriteByte('\n')
				case next == 't':
					b.WriteByte('\t')
				case next == '\\':
					b.WriteByte('\\')
				case next == '&':
					b.WriteByte('&')
				default:
					b.WriteByte(next)
				}
				i++
			} else {
				b.WriteByte('\\')
			}
		case '&':
			b.WriteString("${0}")
		case '$':
			b.WriteString("$$")
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// execSubstitute performs one s/// command against ps, returning the
// possibly-unchanged pattern space and whether a replacement was made.
func execSubstitute(sub *substitution, ps string) (string, bool) {
	re := sub.regex
	switch {
	case sub.global:
		result := re.ReplaceAllString(ps, goReplace(sub.replace))
		return result, result != ps
	case sub.nth > 0:
		count := 0
		result := re.ReplaceAllStringFunc(ps, func(match string) string {
			count++
			if count == sub.nth {
				return re.ReplaceAllString(match, goReplace(sub.replace))
			}
			return match
		})
		return result, result != ps
	default:
		loc := re.FindStringIndex(ps)
		if loc == nil {
			return ps, false
		}
		matched := ps[loc[0]:loc[1]]
		repl := re.ReplaceAllString(matched, goReplace(sub.replace))
		return ps[:loc[0]] + repl + ps[loc[1]:], true
	}
}

func transliterate(input, from, to string) string {
	fromRunes, toRunes := []rune(from), []rune(to)
	mapping := make(map[rune]rune, len(fromRunes))
	for i, fr := range fromRunes {
		if i < len(toRunes) {
			mapping[fr] = toRunes[i]
		}
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if rep, ok := mapping[r]; ok {
			b.WriteRune(rep)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
