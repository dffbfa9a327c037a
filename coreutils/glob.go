package coreutils

import (
	"regexp"

	"github.com/shellgrove/shellgrove/pattern"
)

func patternRegexp(pat string) (string, error) {
	return pattern.Regexp(pat, pattern.EntireString|pattern.Filenames)
}

// pathMatch reports whether name matches the shell glob pattern pat,
// delegating to the same glob-to-regex translator the expander uses for
// filename expansion, so that `find -name` matches exactly the same
// pattern dialect the shell itself does.
func pathMatch(pat, name string) (bool, error) {
	expr, err := patternRegexp(pat)
	if err != nil {
		return false, err
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return false, err
	}
	return rx.MatchString(name), nil
}
