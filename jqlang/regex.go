package jqlang

import (
	"regexp"
	"strings"
)

// jq's regex builtins (test/capture/splits/sub/gsub) are backed by
// oniguruma upstream; here they run on Go's regexp (RE2) the same way
// package awk and sedlang do, accepting the same practical subset of ERE
// syntax rather than vendoring a regex engine.
func compileJQRegex(pattern, flags string) (*regexp.Regexp, error) {
	prefix := ""
	if strings.Contains(flags, "i") {
		prefix = "(?i)"
	}
	return regexp.Compile(prefix + pattern)
}

func regexArgs(args [][]Value) (pattern, flags string, err error) {
	if len(args) == 0 || len(args[0]) == 0 {
		return "", "", errf("jq: regex function requires a pattern argument")
	}
	p, ok := args[0][0].(string)
	if !ok {
		return "", "", errf("jq: regex pattern must be a string")
	}
	if len(args) > 1 && len(args[1]) > 0 {
		f, _ := args[1][0].(string)
		flags = f
	}
	return p, flags, nil
}

func (ev *evaluator) regexPred(name string, args [][]Value, v Value) ([]Value, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errf("jq: %s input must be a string", name)
	}
	pattern, flags, err := regexArgs(args)
	if err != nil {
		return nil, err
	}
	re, err := compileJQRegex(pattern, flags)
	if err != nil {
		return nil, err
	}
	return []Value{re.MatchString(s)}, nil
}

func (ev *evaluator) regexCapture(args [][]Value, v Value) ([]Value, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errf("jq: capture input must be a string")
	}
	pattern, flags, err := regexArgs(args)
	if err != nil {
		return nil, err
	}
	re, err := compileJQRegex(pattern, flags)
	if err != nil {
		return nil, err
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	obj := NewObject()
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		obj.Set(name, m[i])
	}
	return []Value{obj}, nil
}

func (ev *evaluator) regexSplit(args [][]Value, v Value) ([]Value, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errf("jq: splits input must be a string")
	}
	pattern, flags, err := regexArgs(args)
	if err != nil {
		return nil, err
	}
	re, err := compileJQRegex(pattern, flags)
	if err != nil {
		return nil, err
	}
	parts := re.Split(s, -1)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

// subFilter is the FuncCall-aware entry point for sub/gsub, called from
// evalBuiltin before arguments are flattened to value streams, since the
// replacement argument is a filter evaluated per match, not a plain value.
func (ev *evaluator) subFilter(name string, c FuncCall, v Value) ([]Value, error) {
	if len(c.Args) != 2 {
		return nil, errf("jq: %s requires two arguments", name)
	}
	patVals, err := ev.eval(c.Args[0], v)
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, errf("jq: %s input must be a string", name)
	}
	var out []Value
	for _, pv := range patVals {
		pattern, ok := pv.(string)
		if !ok {
			return nil, errf("jq: %s pattern must be a string", name)
		}
		re, err := compileJQRegex(pattern, "")
		if err != nil {
			return nil, err
		}
		global := name == "gsub"
		replaced, err := ev.applySub(re, s, c.Args[1], global)
		if err != nil {
			return nil, err
		}
		out = append(out, replaced)
	}
	return out, nil
}

func (ev *evaluator) applySub(re *regexp.Regexp, s string, replFilter Filter, global bool) (string, error) {
	var b strings.Builder
	rest := s
	names := re.SubexpNames()
	for {
		loc := re.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		b.WriteString(rest[:loc[0]])
		obj := NewObject()
		for i := 1; i < len(loc)/2; i++ {
			if names[i] == "" {
				continue
			}
			if loc[2*i] < 0 {
				obj.Set(names[i], nil)
				continue
			}
			obj.Set(names[i], rest[loc[2*i]:loc[2*i+1]])
		}
		vs, err := ev.eval(replFilter, obj)
		if err != nil {
			return "", err
		}
		if len(vs) > 0 {
			b.WriteString(toJQString(vs[0]))
		}
		matchEnd := loc[1]
		if matchEnd == loc[0] {
			if matchEnd < len(rest) {
				_, size := decodeRuneJQ(rest[matchEnd:])
				b.WriteString(rest[matchEnd : matchEnd+size])
				matchEnd += size
			} else {
				rest = rest[matchEnd:]
				break
			}
		}
		rest = rest[matchEnd:]
		if !global {
			break
		}
	}
	b.WriteString(rest)
	return b.String(), nil
}

func decodeRuneJQ(s string) (rune, int) {
	for i, r := range s {
		_ = i
		return r, len(string(r))
	}
	return 0, 0
}
