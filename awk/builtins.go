package awk

import (
	"fmt"
	"math"
	"strings"
)

// evalBuiltin dispatches the builtin function set (length, substr,
// tolower, toupper, index, split, sprintf, gsub, sub, match, int, sqrt,
// sin, cos, exp, log, atan2, rand, srand), following the same
// switch-per-name shape goawk's interpreter uses for its builtin table.
func (e *evaluator) evalBuiltin(c BuiltinCallExpr) value {
	switch c.Name {
	case "length":
		return e.builtinLength(c.Args)
	case "substr":
		return e.builtinSubstr(c.Args)
	case "tolower":
		return strVal(strings.ToLower(e.arg(c.Args, 0).str(e.convfmt)))
	case "toupper":
		return strVal(strings.ToUpper(e.arg(c.Args, 0).str(e.convfmt)))
	case "index":
		hay := e.arg(c.Args, 0).str(e.convfmt)
		needle := e.arg(c.Args, 1).str(e.convfmt)
		return numVal(float64(strings.Index(hay, needle) + 1))
	case "split":
		return e.builtinSplit(c.Args)
	case "sprintf":
		return e.builtinSprintf(c.Args)
	case "sub":
		return e.builtinSub(c.Args, false)
	case "gsub":
		return e.builtinSub(c.Args, true)
	case "match":
		return e.builtinMatch(c.Args)
	case "int":
		return numVal(math.Trunc(e.arg(c.Args, 0).num()))
	case "sqrt":
		return numVal(math.Sqrt(e.arg(c.Args, 0).num()))
	case "sin":
		return numVal(math.Sin(e.arg(c.Args, 0).num()))
	case "cos":
		return numVal(math.Cos(e.arg(c.Args, 0).num()))
	case "exp":
		return numVal(math.Exp(e.arg(c.Args, 0).num()))
	case "log":
		return numVal(math.Log(e.arg(c.Args, 0).num()))
	case "atan2":
		return numVal(math.Atan2(e.arg(c.Args, 0).num(), e.arg(c.Args, 1).num()))
	case "rand":
		return numVal(e.rng.Float64())
	case "srand":
		prev := e.randSeed
		if len(c.Args) > 0 {
			e.randSeed = e.eval(c.Args[0]).num()
		} else {
			e.randSeed = float64(e.nr) + 1
		}
		e.rng.Seed(int64(e.randSeed))
		return numVal(prev)
	default:
		panic(ctrlPanic{fmt.Errorf("awk: unknown builtin function %q", c.Name)})
	}
}

func (e *evaluator) arg(args []Expr, i int) value {
	if i >= len(args) {
		return uninitVal()
	}
	return e.eval(args[i])
}

// builtinLength implements AWK's overload of length: length() / length
// (bare) means len($0); length(x) for an array name means element count;
// otherwise it's the string length of x.
func (e *evaluator) builtinLength(args []Expr) value {
	if len(args) == 0 {
		return numVal(float64(len([]rune(e.rec.get(0, e.fs).str(e.convfmt)))))
	}
	if id, ok := args[0].(Ident); ok && e.isArrayName(id.Name) {
		return numVal(float64(len(e.lookupArray(id.Name))))
	}
	return numVal(float64(len([]rune(e.arg(args, 0).str(e.convfmt)))))
}

// builtinSubstr implements 1-based, clamped substr(s, m[, n]) per POSIX
// awk: indices and lengths outside the string bounds are clamped rather
// than erroring.
func (e *evaluator) builtinSubstr(args []Expr) value {
	s := []rune(e.arg(args, 0).str(e.convfmt))
	m := int(e.arg(args, 1).num())
	n := len(s) - m + 1
	if len(args) > 2 {
		n = int(e.arg(args, 2).num())
	}
	start := m - 1
	end := start + n
	if start < 0 {
		n += start
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start > len(s) || end < start || n <= 0 {
		return strVal("")
	}
	return strVal(string(s[start:end]))
}

// builtinSplit implements split(s, arr[, fs]), clearing arr first and
// filling it with 1-based keys, following the same field-splitting rule
// [splitFields] applies to $0.
func (e *evaluator) builtinSplit(args []Expr) value {
	s := e.arg(args, 0).str(e.convfmt)
	id, ok := args[1].(Ident)
	if !ok {
		panic(ctrlPanic{fmt.Errorf("awk: split's second argument must be an array name")})
	}
	fs := e.fs
	if len(args) > 2 {
		if rl, isRegex := args[2].(RegexLit); isRegex {
			fs = rl.Pattern
		} else {
			fs = e.eval(args[2]).str(e.convfmt)
		}
	}
	arr := e.lookupArray(id.Name)
	for k := range arr {
		delete(arr, k)
	}
	parts := splitFields(s, fs)
	for i, p := range parts {
		arr[fmt.Sprintf("%d", i+1)] = strVal(p)
	}
	return numVal(float64(len(parts)))
}

func (e *evaluator) builtinSprintf(args []Expr) value {
	if len(args) == 0 {
		return strVal("")
	}
	format := e.arg(args, 0).str(e.convfmt)
	vals := make([]value, len(args)-1)
	for i, a := range args[1:] {
		vals[i] = e.eval(a)
	}
	return strVal(sprintfAWK(format, vals, e.convfmt))
}

// builtinMatch implements match(s, re), setting RSTART/RLENGTH as a
// side effect.
func (e *evaluator) builtinMatch(args []Expr) value {
	s := e.arg(args, 0).str(e.convfmt)
	pat := e.regexArgPattern(args, 1)
	re, err := e.compileRegex(pat)
	if err != nil {
		panic(ctrlPanic{err})
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		e.rstart, e.rlength = 0, -1
		return numVal(0)
	}
	runesBefore := len([]rune(s[:loc[0]]))
	runesMatch := len([]rune(s[loc[0]:loc[1]]))
	e.rstart = runesBefore + 1
	e.rlength = runesMatch
	return numVal(float64(e.rstart))
}

func (e *evaluator) regexArgPattern(args []Expr, i int) string {
	if i < len(args) {
		if rl, ok := args[i].(RegexLit); ok {
			return rl.Pattern
		}
	}
	return e.arg(args, i).str(e.convfmt)
}

// builtinSub implements sub/gsub(re, repl[, target]), supporting the `&`
// (whole match) and `\&` (literal ampersand) replacement-text rules, and
// writing back to target (default $0).
func (e *evaluator) builtinSub(args []Expr, global bool) value {
	pat := e.regexArgPattern(args, 0)
	repl := e.arg(args, 1).str(e.convfmt)
	var target Expr
	if len(args) > 2 {
		target = args[2]
	}
	var orig string
	if target != nil {
		orig = e.eval(target).str(e.convfmt)
	} else {
		orig = e.rec.get(0, e.fs).str(e.convfmt)
	}

	re, err := e.compileRegex(pat)
	if err != nil {
		panic(ctrlPanic{err})
	}

	count := 0
	result := awkReplace(re, orig, repl, global, &count)
	if count == 0 {
		return numVal(0)
	}
	if target != nil {
		e.assignTo(target, strVal(result))
	} else {
		e.rec.setWhole(result)
	}
	return numVal(float64(count))
}
