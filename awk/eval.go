package awk

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"
)

// errBreak, errContinue, and errNext are sentinel control-flow errors in
// the same idiom goawk's interpreter uses to model break/continue/next as
// values instead of exceptions; errExit additionally carries its code via
// the evaluator's exitCode field, mirroring how goawk's interp stores
// exitStatus on the struct rather than the error.
var (
	errBreak    = errors.New("break")
	errContinue = errors.New("continue")
	errNext     = errors.New("next")
	errExit     = errors.New("exit")
)

// returnValue is the error-shaped carrier for a user function's `return`,
// the same shape goawk's interpreter uses for it.
type returnValue struct{ v value }

func (r returnValue) Error() string { return "return" }

// ctrlPanic lets a control signal raised deep inside a user-defined
// function — most commonly `exit` — unwind back out through however many
// levels of expression evaluation called it, without threading an error
// return through every eval call. It is caught at the nearest execStmt,
// which is the only place the evaluator recovers a panic.
type ctrlPanic struct{ err error }

type frame struct {
	params  map[string]bool
	scalars map[string]*value
	arrays  map[string]map[string]value
}

// record holds the current input line and its lazily-split fields: after
// any mutation of $0, the field split is recomputed on next access; after
// mutation of $i for i>=1, $0 is recomputed by joining with OFS.
type record struct {
	raw    string
	fields []string
	split  bool
}

func (r *record) ensureSplit(fs string) {
	if r.split {
		return
	}
	r.fields = splitFields(r.raw, fs)
	r.split = true
}

func (r *record) nf(fs string) int {
	r.ensureSplit(fs)
	return len(r.fields)
}

func (r *record) get(i int, fs string) value {
	if i == 0 {
		return strVal(r.raw)
	}
	r.ensureSplit(fs)
	if i < 1 || i > len(r.fields) {
		return strVal("")
	}
	return strVal(r.fields[i-1])
}

func (r *record) setWhole(s string) {
	r.raw = s
	r.split = false
}

func (r *record) setField(i int, v, ofs, fs string) {
	if i == 0 {
		r.setWhole(v)
		return
	}
	r.ensureSplit(fs)
	for len(r.fields) < i {
		r.fields = append(r.fields, "")
	}
	r.fields[i-1] = v
	r.raw = strings.Join(r.fields, ofs)
}

func (r *record) setNF(n int, ofs, fs string) {
	r.ensureSplit(fs)
	if n < 0 {
		n = 0
	}
	if n < len(r.fields) {
		r.fields = r.fields[:n]
	} else {
		for len(r.fields) < n {
			r.fields = append(r.fields, "")
		}
	}
	r.raw = strings.Join(r.fields, ofs)
}

// splitFields splits a record on FS: the default " " means "any
// whitespace run"; a single non-space character is a literal separator;
// anything else is a regular expression.
func splitFields(line, fs string) []string {
	switch {
	case fs == " ":
		return strings.Fields(line)
	case line == "":
		return nil
	case len(fs) == 1 && fs != "\\":
		return strings.Split(line, fs)
	default:
		re, err := regexp.Compile(fs)
		if err != nil {
			return strings.Split(line, fs)
		}
		return re.Split(line, -1)
	}
}

// Options configures a single [Run]. The AWK engine itself never touches
// a real filesystem: Open is the seam a caller injects to serve
// `getline < file`, and Files seeds named output sinks with prior content
// for `print >> file` within a single invocation.
type Options struct {
	FS    string
	Vars  map[string]string
	Files map[string]string
	Open  func(name string) (string, bool)
}

// Result is what [Run] returns to its caller: the accumulated output and
// exit code, plus any named sinks written via `print > file` /
// `print >> file` for the caller to persist.
type Result struct {
	Output   string
	Files    map[string]string
	ExitCode int
}

type evaluator struct {
	prog *Program
	opts Options

	rec record
	nr  int
	fnr int

	fs, ofs, ors, subsep, convfmt, ofmt string
	rstart, rlength                    int
	filename                           string

	globals map[string]*value
	arrays  map[string]map[string]value
	frames  []*frame

	out         strings.Builder
	fileOut     map[string]*strings.Builder
	fileOpened  map[string]bool
	openScans   map[string]*bufio.Scanner

	regexCache map[string]*regexp.Regexp
	rng        *rand.Rand
	randSeed   float64

	lines       []string
	lineIdx     int
	rangeActive []bool

	exitCode int
	exited   bool
}

func newEvaluator(prog *Program, opts Options) *evaluator {
	e := &evaluator{
		prog:       prog,
		opts:       opts,
		fs:         " ",
		ofs:        " ",
		ors:        "\n",
		subsep:     "\x1c",
		convfmt:    "%.6g",
		ofmt:       "%.6g",
		globals:    map[string]*value{},
		arrays:     map[string]map[string]value{},
		fileOut:    map[string]*strings.Builder{},
		fileOpened: map[string]bool{},
		openScans:  map[string]*bufio.Scanner{},
		regexCache: map[string]*regexp.Regexp{},
		rangeActive: make([]bool, len(prog.Rules)),
		randSeed:   0,
	}
	e.rng = rand.New(rand.NewSource(1))
	if opts.FS != "" {
		e.fs = opts.FS
	}
	for k, v := range opts.Vars {
		e.setVarOrSpecial(k, strVal(v))
	}
	return e
}

// Run lexes, parses, and executes src against input: every BEGIN block
// runs first, then each input record is run against every rule in source
// order, then every END block runs.
func Run(src, input string, opts Options) (Result, error) {
	prog, err := Parse(src)
	if err != nil {
		return Result{}, err
	}
	return RunProgram(prog, input, opts)
}

func RunProgram(prog *Program, input string, opts Options) (Result, error) {
	e := newEvaluator(prog, opts)
	e.lines = splitRecords(input)

	err := e.runBlockList(prog.Begin)
	if err != nil && err != errExit {
		return Result{}, err
	}
	if err == nil {
		// BEGIN did not call exit: run the main record loop. Whether an
		// exit during BEGIN should still let END run varies across real
		// AWK implementations; this one always runs END afterward,
		// matching gawk/mawk.
		mainErr := e.runMain()
		if mainErr != nil && mainErr != errExit {
			return Result{}, mainErr
		}
	}

	endErr := e.runBlockList(prog.End)
	if endErr != nil && endErr != errExit {
		return Result{}, endErr
	}
	return e.finish(), nil
}

// splitRecords splits input on "\n", dropping the single trailing empty
// record a final newline produces.
func splitRecords(input string) []string {
	if input == "" {
		return nil
	}
	lines := strings.Split(input, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (e *evaluator) finish() Result {
	files := map[string]string{}
	for name, buf := range e.fileOut {
		files[name] = buf.String()
	}
	return Result{Output: e.out.String(), Files: files, ExitCode: e.exitCode}
}

func (e *evaluator) runBlockList(stmts []Stmt) error {
	if len(stmts) == 0 {
		return nil
	}
	return e.execList(stmts)
}

func (e *evaluator) runMain() error {
	if len(e.prog.Rules) == 0 {
		// No main rules: END still runs, but there is nothing to scan.
		return nil
	}
	for e.lineIdx < len(e.lines) {
		line := e.lines[e.lineIdx]
		e.lineIdx++
		e.nr++
		e.fnr++
		e.rec.setWhole(line)

		for i := range e.prog.Rules {
			rule := &e.prog.Rules[i]
			matched, err := e.matchPattern(rule.Pattern, i)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
			if len(rule.Action) == 0 {
				e.out.WriteString(e.rec.get(0, e.fs).str(e.ofmt))
				e.out.WriteString(e.ors)
				continue
			}
			err = e.execList(rule.Action)
			if err == errNext {
				break
			}
			if err == errExit {
				return errExit
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *evaluator) matchPattern(pat Pattern, idx int) (bool, error) {
	switch p := pat.(type) {
	case NoPattern:
		return true, nil
	case RegexPattern:
		re, err := e.compileRegex(p.Regex)
		if err != nil {
			return false, err
		}
		return re.MatchString(e.rec.get(0, e.fs).str(e.convfmt)), nil
	case ExprPattern:
		return e.eval(p.Expr).bool(), nil
	case *RangePattern:
		return e.matchRange(idx, p)
	default:
		return false, fmt.Errorf("awk: unknown pattern type %T", pat)
	}
}

func (e *evaluator) matchRange(idx int, p *RangePattern) (bool, error) {
	if !e.rangeActive[idx] {
		start, err := e.matchPattern(p.Start, idx)
		if err != nil {
			return false, err
		}
		if !start {
			return false, nil
		}
		end, err := e.matchPattern(p.End, idx)
		if err != nil {
			return false, err
		}
		if !end {
			e.rangeActive[idx] = true
		}
		return true, nil
	}
	end, err := e.matchPattern(p.End, idx)
	if err != nil {
		return false, err
	}
	if end {
		e.rangeActive[idx] = false
	}
	return true, nil
}

func (e *evaluator) compileRegex(pat string) (*regexp.Regexp, error) {
	if re, ok := e.regexCache[pat]; ok {
		return re, nil
	}
	// Go's regexp (RE2) already implements POSIX bracket classes like
	// [[:space:]] natively, so no translation layer is needed here;
	// backreferences are the one ERE extension it cannot express.
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("awk: invalid regex %q: %w", pat, err)
	}
	e.regexCache[pat] = re
	return re, nil
}

// ---- statement execution ----

func (e *evaluator) execList(stmts []Stmt) (err error) {
	for _, s := range stmts {
		if err = e.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// execStmt executes a single statement, recovering any [ctrlPanic]
// raised by a function call reached through this statement's expressions
// (see ctrlPanic's doc) and turning it back into a plain error return —
// the one seam where the evaluator uses panic/recover, purely as an
// internal substitute for threading an error return through every eval
// call.
func (e *evaluator) execStmt(s Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if cp, ok := r.(ctrlPanic); ok {
				err = cp.err
				return
			}
			panic(r)
		}
	}()

	switch st := s.(type) {
	case ExprStmt:
		e.eval(st.X)
		return nil
	case BlockStmt:
		return e.execList(st.Body)
	case PrintStmt:
		e.execPrint(st)
		return nil
	case PrintfStmt:
		e.execPrintf(st)
		return nil
	case IfStmt:
		if e.eval(st.Cond).bool() {
			return e.execList(st.Then)
		} else if st.Else != nil {
			return e.execList(st.Else)
		}
		return nil
	case WhileStmt:
		for e.eval(st.Cond).bool() {
			err := e.execList(st.Body)
			if err == errBreak {
				break
			}
			if err == errContinue {
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	case DoWhileStmt:
		for {
			err := e.execList(st.Body)
			if err == errBreak {
				break
			}
			if err != nil && err != errContinue {
				return err
			}
			if !e.eval(st.Cond).bool() {
				break
			}
		}
		return nil
	case ForStmt:
		if st.Init != nil {
			if err := e.execStmt(st.Init); err != nil {
				return err
			}
		}
		for st.Cond == nil || e.eval(st.Cond).bool() {
			err := e.execList(st.Body)
			if err == errBreak {
				break
			}
			if err != nil && err != errContinue {
				return err
			}
			if st.Post != nil {
				if err := e.execStmt(st.Post); err != nil {
					return err
				}
			}
		}
		return nil
	case ForInStmt:
		arr := e.lookupArray(st.Array)
		keys := make([]string, 0, len(arr))
		for k := range arr {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			e.setVarOrSpecial(st.Var, strVal(k))
			err := e.execList(st.Body)
			if err == errBreak {
				break
			}
			if err != nil && err != errContinue {
				return err
			}
		}
		return nil
	case BreakStmt:
		return errBreak
	case ContinueStmt:
		return errContinue
	case NextStmt:
		return errNext
	case ExitStmt:
		if st.Code != nil {
			e.exitCode = int(e.eval(st.Code).num()) % 256
		}
		e.exited = true
		return errExit
	case ReturnStmt:
		var v value
		if st.Value != nil {
			v = e.eval(st.Value)
		} else {
			v = uninitVal()
		}
		return returnValue{v}
	case DeleteStmt:
		arr := e.lookupArray(st.Array)
		if st.Subs == nil {
			for k := range arr {
				delete(arr, k)
			}
		} else {
			delete(arr, e.joinSubs(st.Subs))
		}
		return nil
	default:
		return fmt.Errorf("awk: unhandled statement type %T", s)
	}
}

func (e *evaluator) execPrint(st PrintStmt) {
	var line string
	if len(st.Args) == 0 {
		line = e.rec.get(0, e.fs).str(e.ofmt)
	} else {
		parts := make([]string, len(st.Args))
		for i, a := range st.Args {
			parts[i] = e.eval(a).str(e.ofmt)
		}
		line = strings.Join(parts, e.ofs)
	}
	e.routeOutput(st.Redirect, st.Dest, line+e.ors)
}

func (e *evaluator) execPrintf(st PrintfStmt) {
	if len(st.Args) == 0 {
		e.routeOutput(st.Redirect, st.Dest, "")
		return
	}
	format := e.eval(st.Args[0]).str(e.convfmt)
	vals := make([]value, len(st.Args)-1)
	for i, a := range st.Args[1:] {
		vals[i] = e.eval(a)
	}
	e.routeOutput(st.Redirect, st.Dest, sprintfAWK(format, vals, e.convfmt))
}

// routeOutput sends print/printf text to the main output buffer, or, for
// a `>`/`>>` redirect, to a named in-memory sink the caller can persist
// (there is no real filesystem underneath this buffering model). A `|`
// pipe redirect has no subprocess to run, so its text folds into the
// main output too.
func (e *evaluator) routeOutput(redirect token, dest Expr, text string) {
	if redirect == 0 || dest == nil {
		e.out.WriteString(text)
		return
	}
	if redirect == tPipe {
		e.out.WriteString(text)
		return
	}
	name := e.eval(dest).str(e.convfmt)
	buf, ok := e.fileOut[name]
	if !ok {
		buf = &strings.Builder{}
		if redirect == tAppend {
			if prior, ok := e.opts.Files[name]; ok {
				buf.WriteString(prior)
			}
		}
		e.fileOut[name] = buf
	}
	buf.WriteString(text)
}

// ---- variable and field access ----

func (e *evaluator) getVarOrSpecial(name string) value {
	switch name {
	case "NR":
		return numVal(float64(e.nr))
	case "NF":
		return numVal(float64(e.rec.nf(e.fs)))
	case "FNR":
		return numVal(float64(e.fnr))
	case "FS":
		return strVal(e.fs)
	case "OFS":
		return strVal(e.ofs)
	case "ORS":
		return strVal(e.ors)
	case "SUBSEP":
		return strVal(e.subsep)
	case "RSTART":
		return numVal(float64(e.rstart))
	case "RLENGTH":
		return numVal(float64(e.rlength))
	case "CONVFMT":
		return strVal(e.convfmt)
	case "OFMT":
		return strVal(e.ofmt)
	case "FILENAME":
		return strVal(e.filename)
	}
	return e.getVar(name)
}

func (e *evaluator) setVarOrSpecial(name string, v value) {
	switch name {
	case "NR":
		e.nr = int(v.num())
		return
	case "NF":
		e.rec.setNF(int(v.num()), e.ofs, e.fs)
		return
	case "FNR":
		e.fnr = int(v.num())
		return
	case "FS":
		e.fs = v.str(e.convfmt)
		return
	case "OFS":
		e.ofs = v.str(e.convfmt)
		return
	case "ORS":
		e.ors = v.str(e.convfmt)
		return
	case "SUBSEP":
		e.subsep = v.str(e.convfmt)
		return
	case "RSTART":
		e.rstart = int(v.num())
		return
	case "RLENGTH":
		e.rlength = int(v.num())
		return
	case "CONVFMT":
		e.convfmt = v.str(e.convfmt)
		return
	case "OFMT":
		e.ofmt = v.str(e.convfmt)
		return
	case "FILENAME":
		e.filename = v.str(e.convfmt)
		return
	}
	e.setVar(name, v)
}

func (e *evaluator) getVar(name string) value {
	if n := len(e.frames); n > 0 {
		fr := e.frames[n-1]
		if v, ok := fr.scalars[name]; ok {
			return *v
		}
		if fr.params[name] {
			return uninitVal()
		}
	}
	if v, ok := e.globals[name]; ok {
		return *v
	}
	return uninitVal()
}

func (e *evaluator) setVar(name string, v value) {
	if n := len(e.frames); n > 0 {
		fr := e.frames[n-1]
		if _, ok := fr.scalars[name]; ok || fr.params[name] {
			cp := v
			fr.scalars[name] = &cp
			return
		}
	}
	if p, ok := e.globals[name]; ok {
		*p = v
		return
	}
	cp := v
	e.globals[name] = &cp
}

func (e *evaluator) isArrayName(name string) bool {
	if n := len(e.frames); n > 0 {
		fr := e.frames[n-1]
		if _, ok := fr.arrays[name]; ok {
			return true
		}
		if _, ok := fr.scalars[name]; ok {
			return false
		}
		if fr.params[name] {
			return false
		}
	}
	_, ok := e.arrays[name]
	return ok
}

func (e *evaluator) lookupArray(name string) map[string]value {
	if n := len(e.frames); n > 0 {
		fr := e.frames[n-1]
		if arr, ok := fr.arrays[name]; ok {
			return arr
		}
		if fr.params[name] {
			arr := map[string]value{}
			fr.arrays[name] = arr
			return arr
		}
	}
	if arr, ok := e.arrays[name]; ok {
		return arr
	}
	arr := map[string]value{}
	e.arrays[name] = arr
	return arr
}

func (e *evaluator) joinSubs(subs []Expr) string {
	parts := make([]string, len(subs))
	for i, s := range subs {
		parts[i] = e.eval(s).str(e.convfmt)
	}
	return strings.Join(parts, e.subsep)
}

func (e *evaluator) assignTo(target Expr, v value) {
	switch t := target.(type) {
	case Ident:
		e.setVarOrSpecial(t.Name, v)
	case IndexExpr:
		arr := e.lookupArray(t.Name)
		arr[e.joinSubs(t.Subs)] = v
	case FieldExpr:
		idx := int(e.eval(t.Index).num())
		e.rec.setField(idx, v.str(e.convfmt), e.ofs, e.fs)
	case GroupExpr:
		e.assignTo(t.X, v)
	default:
		panic(ctrlPanic{fmt.Errorf("awk: invalid assignment target %T", target)})
	}
}

// ---- expression evaluation ----

func (e *evaluator) eval(expr Expr) value {
	switch x := expr.(type) {
	case NumLit:
		return numVal(x.Value)
	case StrLit:
		return strVal(x.Value)
	case RegexLit:
		return boolVal(e.matchRegexAgainst(x.Pattern, e.rec.get(0, e.fs).str(e.convfmt)))
	case Ident:
		return e.getVarOrSpecial(x.Name)
	case FieldExpr:
		return e.rec.get(int(e.eval(x.Index).num()), e.fs)
	case IndexExpr:
		arr := e.lookupArray(x.Name)
		key := e.joinSubs(x.Subs)
		if v, ok := arr[key]; ok {
			return v
		}
		arr[key] = uninitVal()
		return uninitVal()
	case InExpr:
		arr := e.lookupArray(x.Array)
		_, ok := arr[e.joinSubs(x.Subs)]
		return boolVal(ok)
	case GroupExpr:
		return e.eval(x.X)
	case ConcatExpr:
		var sb strings.Builder
		for _, part := range x.Parts {
			sb.WriteString(e.eval(part).str(e.convfmt))
		}
		return strVal(sb.String())
	case TernaryExpr:
		if e.eval(x.Cond).bool() {
			return e.eval(x.Then)
		}
		return e.eval(x.Else)
	case MatchExpr:
		s := e.eval(x.X).str(e.convfmt)
		var pat string
		if rl, ok := x.Pattern.(RegexLit); ok {
			pat = rl.Pattern
		} else {
			pat = e.eval(x.Pattern).str(e.convfmt)
		}
		matched := e.matchRegexAgainst(pat, s)
		if x.Negate {
			matched = !matched
		}
		return boolVal(matched)
	case UnaryExpr:
		return e.evalUnary(x)
	case BinaryExpr:
		return e.evalBinary(x)
	case AssignExpr:
		return e.evalAssign(x)
	case CallExpr:
		return e.evalCall(x)
	case BuiltinCallExpr:
		return e.evalBuiltin(x)
	case GetlineExpr:
		return e.evalGetline(x)
	default:
		panic(ctrlPanic{fmt.Errorf("awk: unhandled expression type %T", expr)})
	}
}

func (e *evaluator) matchRegexAgainst(pat, s string) bool {
	re, err := e.compileRegex(pat)
	if err != nil {
		panic(ctrlPanic{err})
	}
	return re.MatchString(s)
}

func boolVal(b bool) value {
	if b {
		return numVal(1)
	}
	return numVal(0)
}

func (e *evaluator) evalUnary(x UnaryExpr) value {
	switch x.Op {
	case tNot:
		return boolVal(!e.eval(x.X).bool())
	case tMinus:
		return numVal(-e.eval(x.X).num())
	case tPlus:
		return numVal(+e.eval(x.X).num())
	case tIncr, tDecr:
		old := e.eval(x.X)
		delta := 1.0
		if x.Op == tDecr {
			delta = -1.0
		}
		next := numVal(old.num() + delta)
		e.assignTo(x.X, next)
		if x.Post {
			return numVal(old.num())
		}
		return next
	default:
		panic(ctrlPanic{fmt.Errorf("awk: unhandled unary operator %s", x.Op)})
	}
}

func (e *evaluator) evalBinary(x BinaryExpr) value {
	switch x.Op {
	case tAnd:
		if !e.eval(x.Left).bool() {
			return numVal(0)
		}
		return boolVal(e.eval(x.Right).bool())
	case tOr:
		if e.eval(x.Left).bool() {
			return numVal(1)
		}
		return boolVal(e.eval(x.Right).bool())
	}

	l, r := e.eval(x.Left), e.eval(x.Right)
	switch x.Op {
	case tLt, tLe, tGt, tGe, tEq, tNe:
		return boolVal(compareValues(l, r, x.Op))
	case tPlus:
		return numVal(l.num() + r.num())
	case tMinus:
		return numVal(l.num() - r.num())
	case tStar:
		return numVal(l.num() * r.num())
	case tSlash:
		rv := r.num()
		if rv == 0 {
			return numVal(0)
		}
		return numVal(l.num() / rv)
	case tPercent:
		rv := r.num()
		if rv == 0 {
			return numVal(0)
		}
		return numVal(math.Mod(l.num(), rv))
	case tPow:
		return numVal(math.Pow(l.num(), r.num()))
	default:
		panic(ctrlPanic{fmt.Errorf("awk: unhandled binary operator %s", x.Op)})
	}
}

// compareValues implements AWK's mixed-type comparison rule: if both
// operands are numeric, or are strings that parse wholly as numbers,
// compare numerically; otherwise compare lexicographically.
func compareValues(l, r value, op token) bool {
	ln, lok := l.numeric()
	rn, rok := r.numeric()
	if lok && rok {
		switch op {
		case tLt:
			return ln < rn
		case tLe:
			return ln <= rn
		case tGt:
			return ln > rn
		case tGe:
			return ln >= rn
		case tEq:
			return ln == rn
		case tNe:
			return ln != rn
		}
	}
	ls, rs := l.str("%.6g"), r.str("%.6g")
	switch op {
	case tLt:
		return ls < rs
	case tLe:
		return ls <= rs
	case tGt:
		return ls > rs
	case tGe:
		return ls >= rs
	case tEq:
		return ls == rs
	case tNe:
		return ls != rs
	}
	return false
}

func (e *evaluator) evalAssign(x AssignExpr) value {
	if x.Op == tAssign {
		v := e.eval(x.Value)
		e.assignTo(x.Target, v)
		return v
	}
	old := e.eval(x.Target)
	rhs := e.eval(x.Value)
	var nv value
	switch x.Op {
	case tAddAssign:
		nv = numVal(old.num() + rhs.num())
	case tSubAssign:
		nv = numVal(old.num() - rhs.num())
	case tMulAssign:
		nv = numVal(old.num() * rhs.num())
	case tDivAssign:
		if rhs.num() == 0 {
			nv = numVal(0)
		} else {
			nv = numVal(old.num() / rhs.num())
		}
	case tModAssign:
		if rhs.num() == 0 {
			nv = numVal(0)
		} else {
			nv = numVal(math.Mod(old.num(), rhs.num()))
		}
	case tPowAssign:
		nv = numVal(math.Pow(old.num(), rhs.num()))
	default:
		panic(ctrlPanic{fmt.Errorf("awk: unhandled assignment operator %s", x.Op)})
	}
	e.assignTo(x.Target, nv)
	return nv
}

func (e *evaluator) evalCall(c CallExpr) value {
	fn, ok := e.prog.Funcs[c.Name]
	if !ok {
		panic(ctrlPanic{fmt.Errorf("awk: calling undefined function %q", c.Name)})
	}
	fr := &frame{params: map[string]bool{}, scalars: map[string]*value{}, arrays: map[string]map[string]value{}}
	for _, p := range fn.Params {
		fr.params[p] = true
	}
	for i, p := range fn.Params {
		if i >= len(c.Args) {
			continue
		}
		arg := c.Args[i]
		if id, isIdent := arg.(Ident); isIdent && e.isArrayName(id.Name) {
			fr.arrays[p] = e.lookupArray(id.Name)
			continue
		}
		v := e.eval(arg)
		fr.scalars[p] = &v
	}

	e.frames = append(e.frames, fr)
	err := e.execList(fn.Body)
	e.frames = e.frames[:len(e.frames)-1]

	if err == nil {
		return uninitVal()
	}
	if rv, ok := err.(returnValue); ok {
		return rv.v
	}
	panic(ctrlPanic{err})
}

func (e *evaluator) evalGetline(g GetlineExpr) value {
	if g.FromCmd {
		// No real process to pipe getline output from in this sandbox.
		return numVal(-1)
	}
	var line string
	ok := false
	if g.Source == nil {
		if e.lineIdx < len(e.lines) {
			line, ok = e.lines[e.lineIdx], true
			e.lineIdx++
		}
	} else {
		name := e.eval(g.Source).str(e.convfmt)
		sc, found := e.openScanner(name)
		if found {
			ok = sc.Scan()
			if ok {
				line = sc.Text()
			}
		}
	}
	if !ok {
		return numVal(0)
	}
	if g.Source == nil {
		e.nr++
		e.fnr++
	}
	if g.Target != nil {
		e.assignTo(g.Target, strVal(line))
	} else {
		e.rec.setWhole(line)
	}
	return numVal(1)
}

func (e *evaluator) openScanner(name string) (*bufio.Scanner, bool) {
	if sc, ok := e.openScans[name]; ok {
		return sc, true
	}
	var content string
	var ok bool
	if e.opts.Open != nil {
		content, ok = e.opts.Open(name)
	}
	if !ok {
		content, ok = e.opts.Files[name]
	}
	if !ok {
		return nil, false
	}
	sc := bufio.NewScanner(strings.NewReader(content))
	e.openScans[name] = sc
	return sc, true
}

func identName(ex Expr) (string, bool) {
	id, ok := ex.(Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}
