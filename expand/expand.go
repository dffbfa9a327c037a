// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/shellgrove/shellgrove/syntax"
)

// Config carries everything the expander needs to turn shell words into
// strings and fields. There is no real operating system underneath: glob
// expansion reads directories through ReadDir2, which the interpreter wires
// to the session's in-memory filesystem, and command/process substitution
// run through CmdSubst/ProcSubst rather than forking.
type Config struct {
	// Env supplies variables. Assignments made during expansion, such as
	// ${foo:=bar}, are written back only when Env is also a WriteEnviron.
	Env Environ

	// ReadDir2 lists a directory for glob expansion. A nil value disables
	// globbing entirely, matching the "noglob" shell option.
	ReadDir2 func(string) ([]fs.DirEntry, error)

	NoGlob     bool
	GlobStar   bool
	NoCaseGlob bool
	NullGlob   bool
	NoUnset    bool

	// CmdSubst runs the statements inside $(...) or `...`, writing their
	// standard output to w.
	CmdSubst func(w io.Writer, cs *syntax.CmdSubst) error
	// ProcSubst runs the statements inside <(...) or >(...) and returns a
	// path the interpreter's open handler can later resolve to the
	// substitution's buffered result.
	ProcSubst func(ps *syntax.ProcSubst) (string, error)

	// OnError is called instead of panicking when expansion hits an error
	// such as an unset parameter under "set -u". If nil, the error is
	// turned into a panic that the exported Fields/Literal/Document/Pattern/
	// Arithm functions recover from and return as a plain error.
	OnError func(error)

	bufferAlloc bytes.Buffer
	fieldAlloc  [4]fieldPart
	fieldsAlloc [4][]fieldPart

	ifs string
	// A pointer to a parameter expansion node, if we're inside one.
	// Necessary for ${LINENO}.
	curParam *syntax.ParamExp
}

// recoverErr turns a panic raised via (*Config).err into a returned error,
// for use at the boundary of every exported expansion entry point.
func recoverErr(errp *error) {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			*errp = err
			return
		}
		panic(r)
	}
}

// orZero lets every exported entry point accept a nil *Config, equivalent to
// a zero-valued one: expanding against no environment and no globbing.
func (cfg *Config) orZero() *Config {
	if cfg == nil {
		return &Config{}
	}
	return cfg
}

// Fields expands a list of words into shell fields, performing brace
// expansion, parameter/arithmetic/command substitution, field splitting, and
// pathname expansion.
func Fields(cfg *Config, words ...*syntax.Word) (fields []string, err error) {
	defer recoverErr(&err)
	return cfg.orZero().expandFields(words...), nil
}

// Literal expands a single word without field splitting or globbing, as used
// for redirection targets, here-doc delimiters, and the right-hand side of
// assignments.
func Literal(cfg *Config, word *syntax.Word) (str string, err error) {
	defer recoverErr(&err)
	return cfg.orZero().expandLiteral(word), nil
}

// Document expands a single word in the context of a here-document body.
func Document(cfg *Config, word *syntax.Word) (str string, err error) {
	defer recoverErr(&err)
	if word == nil {
		return "", nil
	}
	cfg = cfg.orZero()
	field := cfg.wordField(word.Parts, quoteDouble)
	return cfg.fieldJoin(field), nil
}

// Pattern expands a single word into an extended glob pattern, leaving glob
// metacharacters from quoted parts of the word escaped.
func Pattern(cfg *Config, word *syntax.Word) (str string, err error) {
	defer recoverErr(&err)
	return cfg.orZero().expandPattern(word), nil
}

// Format implements printf/echo-style format-string expansion.
func Format(cfg *Config, format string, args []string) (str string, consumed int, err error) {
	defer recoverErr(&err)
	str, consumed, ferr := cfg.orZero().expandFormat(format, args)
	if ferr != nil {
		return "", 0, ferr
	}
	return str, consumed, nil
}

// ReadFields splits s into up to n IFS-delimited fields, as used by the read
// builtin.
func ReadFields(cfg *Config, s string, n int, raw bool) []string {
	return cfg.orZero().readFields(s, n, raw)
}

// getVar reads a variable, tolerating a Config with no Env: Fields(nil, ...)
// and &Config{} are both valid ways to expand a word with no variables set.
func (cfg *Config) getVar(name string) Variable {
	if cfg.Env == nil {
		return Variable{}
	}
	return cfg.Env.Get(name)
}

func (cfg *Config) prepareIFS() {
	vr := cfg.getVar("IFS")
	if !vr.IsSet() {
		cfg.ifs = " \t\n"
	} else {
		cfg.ifs = vr.String()
	}
}

func (cfg *Config) ifsRune(r rune) bool {
	for _, r2 := range cfg.ifs {
		if r == r2 {
			return true
		}
	}
	return false
}

func (cfg *Config) ifsJoin(strs []string) string {
	sep := ""
	if cfg.ifs != "" {
		sep = cfg.ifs[:1]
	}
	return strings.Join(strs, sep)
}

func (cfg *Config) err(err error) {
	if cfg.OnError == nil {
		panic(err)
	}
	cfg.OnError(err)
}

func (cfg *Config) strBuilder() *bytes.Buffer {
	b := &cfg.bufferAlloc
	b.Reset()
	return b
}

func (cfg *Config) envGet(name string) string {
	return cfg.getVar(name).String()
}

func (cfg *Config) envSet(name, value string) error {
	wenv, ok := cfg.Env.(WriteEnviron)
	if !ok {
		return nil
	}
	return wenv.Set(name, Variable{Set: true, Kind: String, Str: value})
}

// arithmVal evaluates an arithmetic expression, surfacing any error through
// the panic/recover boundary that the exported expansion functions use.
func (cfg *Config) arithmVal(expr syntax.ArithmExpr) int {
	n, err := Arithm(cfg, expr)
	if err != nil {
		cfg.err(err)
	}
	return n
}

func (cfg *Config) expandLiteral(word *syntax.Word) string {
	if word == nil {
		return ""
	}
	field := cfg.wordField(word.Parts, quoteDouble)
	return cfg.fieldJoin(field)
}

func (cfg *Config) expandFormat(format string, args []string) (string, int, error) {
	buf := cfg.strBuilder()
	esc := false
	var fmts []rune
	initialArgs := len(args)

	fr := []rune(format)
	for i := 0; i < len(fr); i++ {
		c := fr[i]
		switch {
		case esc:
			esc = false
			switch c {
			case 'n':
				buf.WriteRune('\n')
			case 'r':
				buf.WriteRune('\r')
			case 't':
				buf.WriteRune('\t')
			case 'a':
				buf.WriteRune('\a')
			case 'b':
				buf.WriteRune('\b')
			case 'e', 'E':
				buf.WriteRune('\x1b')
			case 'f':
				buf.WriteRune('\f')
			case 'v':
				buf.WriteRune('\v')
			case '\\':
				buf.WriteRune('\\')
			case 'x':
				// \xHH: up to two hex digits
				n, used := 0, 0
				for used < 2 && i+1 < len(fr) && isHexDigit(fr[i+1]) {
					n = n*16 + hexVal(fr[i+1])
					i++
					used++
				}
				if used == 0 {
					buf.WriteString(`\x`)
				} else {
					buf.WriteByte(byte(n))
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				// \0NNN or \NNN: up to three octal digits
				n := 0
				if c != '0' {
					n = int(c - '0')
				}
				used := 0
				for used < 3 && i+1 < len(fr) && fr[i+1] >= '0' && fr[i+1] <= '7' {
					n = n*8 + int(fr[i+1]-'0')
					i++
					used++
				}
				buf.WriteByte(byte(n))
			default:
				buf.WriteRune('\\')
				buf.WriteRune(c)
			}

		case len(fmts) > 0:
			switch c {
			case '%':
				buf.WriteByte('%')
				fmts = nil
			case 'c':
				var b byte
				if len(args) > 0 {
					arg := ""
					arg, args = args[0], args[1:]
					if len(arg) > 0 {
						b = arg[0]
					}
				}
				buf.WriteByte(b)
				fmts = nil
			case '+', '-', ' ':
				if len(fmts) > 1 {
					return "", 0, fmt.Errorf("invalid format char: %c", c)
				}
				fmts = append(fmts, c)
			case '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
				fmts = append(fmts, c)
			case 's', 'd', 'i', 'u', 'o', 'x', 'X', 'f', 'e', 'g':
				arg := ""
				if len(args) > 0 {
					arg, args = args[0], args[1:]
				}
				var farg interface{} = arg
				switch c {
				case 's':
				case 'f', 'e', 'g':
					f, _ := strconv.ParseFloat(arg, 64)
					farg = f
				default:
					n, _ := strconv.ParseInt(arg, 0, 0)
					if c == 'i' || c == 'd' {
						farg = int(n)
					} else {
						farg = uint(n)
					}
					if c == 'i' || c == 'u' {
						c = 'd'
					}
				}
				fmts = append(fmts, c)
				fmt.Fprintf(buf, string(fmts), farg)
				fmts = nil
			default:
				return "", 0, fmt.Errorf("invalid format char: %c", c)
			}
		case c == '\\':
			esc = true
		case args != nil && c == '%':
			// if args == nil, we are not doing format arguments
			fmts = []rune{c}
		default:
			buf.WriteRune(c)
		}
	}
	if len(fmts) > 0 {
		return "", 0, fmt.Errorf("missing format char")
	}
	return buf.String(), initialArgs - len(args), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexVal(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}

func (cfg *Config) fieldJoin(parts []fieldPart) string {
	switch len(parts) {
	case 0:
		return ""
	case 1: // short-cut without a string copy
		return parts[0].val
	}
	buf := cfg.strBuilder()
	for _, part := range parts {
		buf.WriteString(part.val)
	}
	return buf.String()
}

func (cfg *Config) escapedGlobField(parts []fieldPart) (escaped string, glob bool) {
	buf := cfg.strBuilder()
	for _, part := range parts {
		if part.quote > quoteNone {
			buf.WriteString(syntax.QuotePattern(part.val))
			continue
		}
		buf.WriteString(part.val)
		if syntax.HasPattern(part.val) {
			glob = true
		}
	}
	if glob { // only copy the string if it will be used
		escaped = buf.String()
	}
	return escaped, glob
}

func (cfg *Config) expandFields(words ...*syntax.Word) []string {
	cfg.prepareIFS()

	fields := make([]string, 0, len(words))
	dir := cfg.envGet("PWD")
	baseDir := syntax.QuotePattern(dir)
	for _, expWord := range Braces(words...) {
		for _, field := range cfg.wordFields(expWord.Parts) {
			pattern, doGlob := cfg.escapedGlobField(field)
			var matches []string
			abs := path.IsAbs(pattern)
			if doGlob && !cfg.NoGlob && cfg.ReadDir2 != nil {
				if !abs {
					pattern = path.Join(baseDir, pattern)
				}
				matches = cfg.expandGlob(pattern)
			}
			if len(matches) == 0 {
				if doGlob && cfg.NullGlob {
					continue
				}
				fields = append(fields, cfg.fieldJoin(field))
				continue
			}
			for _, match := range matches {
				if !abs {
					endSeparator := strings.HasSuffix(match, "/")
					match = strings.TrimPrefix(match, dir)
					match = strings.TrimPrefix(match, "/")
					if match == "" {
						match = "."
					}
					if endSeparator && !strings.HasSuffix(match, "/") {
						match += "/"
					}
				}
				fields = append(fields, match)
			}
		}
	}
	return fields
}

func (cfg *Config) expandPattern(word *syntax.Word) string {
	field := cfg.wordField(word.Parts, quoteSingle)
	buf := cfg.strBuilder()
	for _, part := range field {
		if part.quote > quoteNone {
			buf.WriteString(syntax.QuotePattern(part.val))
		} else {
			buf.WriteString(part.val)
		}
	}
	return buf.String()
}

type fieldPart struct {
	val   string
	quote quoteLevel
}

type quoteLevel uint

const (
	quoteNone quoteLevel = iota
	quoteDouble
	quoteSingle
)

func (cfg *Config) wordField(wps []syntax.WordPart, ql quoteLevel) []fieldPart {
	var field []fieldPart
	for i, wp := range wps {
		switch x := wp.(type) {
		case *syntax.Lit:
			s := x.Value
			if i == 0 {
				s = cfg.expandUser(s)
			}
			if ql == quoteDouble && strings.Contains(s, "\\") {
				buf := cfg.strBuilder()
				for i := 0; i < len(s); i++ {
					b := s[i]
					if b == '\\' && i+1 < len(s) {
						switch s[i+1] {
						case '\n': // remove \\\n
							i++
							continue
						case '"', '\\', '$', '`': // special chars
							continue
						}
					}
					buf.WriteByte(b)
				}
				s = buf.String()
			}
			field = append(field, fieldPart{val: s})
		case *syntax.SglQuoted:
			fp := fieldPart{quote: quoteSingle, val: x.Value}
			if x.Dollar {
				fp.val, _, _ = cfg.expandFormat(fp.val, nil)
			}
			field = append(field, fp)
		case *syntax.DblQuoted:
			for _, part := range cfg.wordField(x.Parts, quoteDouble) {
				part.quote = quoteDouble
				field = append(field, part)
			}
		case *syntax.ParamExp:
			field = append(field, fieldPart{val: cfg.paramExp(x)})
		case *syntax.CmdSubst:
			field = append(field, fieldPart{val: cfg.cmdSubst(x)})
		case *syntax.ArithmExp:
			field = append(field, fieldPart{
				val: strconv.Itoa(cfg.arithmVal(x.X)),
			})
		case *syntax.ProcSubst:
			field = append(field, fieldPart{val: cfg.procSubst(x)})
		default:
			panic(fmt.Sprintf("unhandled word part: %T", x))
		}
	}
	return field
}

func (cfg *Config) cmdSubst(cs *syntax.CmdSubst) string {
	if cfg.CmdSubst == nil {
		cfg.err(fmt.Errorf("command substitution not supported"))
		return ""
	}
	buf := cfg.strBuilder()
	if err := cfg.CmdSubst(buf, cs); err != nil {
		cfg.err(err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (cfg *Config) procSubst(ps *syntax.ProcSubst) string {
	if cfg.ProcSubst == nil {
		cfg.err(fmt.Errorf("process substitution not supported"))
		return ""
	}
	path, err := cfg.ProcSubst(ps)
	if err != nil {
		cfg.err(err)
	}
	return path
}

func (cfg *Config) wordFields(wps []syntax.WordPart) [][]fieldPart {
	fields := cfg.fieldsAlloc[:0]
	curField := cfg.fieldAlloc[:0]
	allowEmpty := false
	flush := func() {
		if len(curField) == 0 {
			return
		}
		fields = append(fields, curField)
		curField = nil
	}
	splitAdd := func(val string) {
		for i, field := range strings.FieldsFunc(val, cfg.ifsRune) {
			if i > 0 {
				flush()
			}
			curField = append(curField, fieldPart{val: field})
		}
	}
	for i, wp := range wps {
		switch x := wp.(type) {
		case *syntax.Lit:
			s := x.Value
			if i == 0 {
				s = cfg.expandUser(s)
			}
			if strings.Contains(s, "\\") {
				buf := cfg.strBuilder()
				for i := 0; i < len(s); i++ {
					b := s[i]
					if b == '\\' {
						i++
						b = s[i]
					}
					buf.WriteByte(b)
				}
				s = buf.String()
			}
			curField = append(curField, fieldPart{val: s})
		case *syntax.SglQuoted:
			allowEmpty = true
			fp := fieldPart{quote: quoteSingle, val: x.Value}
			if x.Dollar {
				fp.val, _, _ = cfg.expandFormat(fp.val, nil)
			}
			curField = append(curField, fp)
		case *syntax.DblQuoted:
			allowEmpty = true
			if len(x.Parts) == 1 {
				pe, _ := x.Parts[0].(*syntax.ParamExp)
				if elems := cfg.quotedElems(pe); elems != nil {
					for i, elem := range elems {
						if i > 0 {
							flush()
						}
						curField = append(curField, fieldPart{
							quote: quoteDouble,
							val:   elem,
						})
					}
					continue
				}
			}
			for _, part := range cfg.wordField(x.Parts, quoteDouble) {
				part.quote = quoteDouble
				curField = append(curField, part)
			}
		case *syntax.ParamExp:
			splitAdd(cfg.paramExp(x))
		case *syntax.CmdSubst:
			splitAdd(cfg.cmdSubst(x))
		case *syntax.ArithmExp:
			curField = append(curField, fieldPart{
				val: strconv.Itoa(cfg.arithmVal(x.X)),
			})
		case *syntax.ProcSubst:
			curField = append(curField, fieldPart{val: cfg.procSubst(x)})
		default:
			panic(fmt.Sprintf("unhandled word part: %T", x))
		}
	}
	flush()
	if allowEmpty && len(fields) == 0 {
		fields = append(fields, curField)
	}
	return fields
}

// quotedElems checks if a parameter expansion is exactly ${@} or ${foo[@]}
func (cfg *Config) quotedElems(pe *syntax.ParamExp) []string {
	if pe == nil || pe.Excl || pe.Length || pe.Width {
		return nil
	}
	if pe.Param.Value == "@" {
		return cfg.getVar("@").List
	}
	if anyOfLit(pe.Index, "@") == "" {
		return nil
	}
	vr := cfg.getVar(pe.Param.Value)
	if vr.Kind == Indexed {
		return vr.List
	}
	return nil
}

func (cfg *Config) expandUser(field string) string {
	if len(field) == 0 || field[0] != '~' {
		return field
	}
	name := field[1:]
	rest := ""
	if i := strings.Index(name, "/"); i >= 0 {
		rest = name[i:]
		name = name[:i]
	}
	if name == "" {
		return cfg.getVar("HOME").String() + rest
	}
	// There is no real user database to consult in the sandbox; only "~"
	// on its own (the current user's HOME) is supported.
	return field
}

func findAllIndex(pattern, name string, n int) [][]int {
	expr, err := syntax.TranslatePattern(pattern, true)
	if err != nil {
		return nil
	}
	rx := regexp.MustCompile(expr)
	return rx.FindAllStringIndex(name, n)
}

// glob matches a single path component against the entries of dir, listed
// through cfg.ReadDir2 (the handler the interpreter wires to the session's
// in-memory filesystem). Matches are returned in the order ReadDir2
// reports them, not sorted, since the in-memory FS is free to choose its
// own entry order.
func (cfg *Config) glob(dir, pattern string) ([]string, error) {
	if cfg.ReadDir2 == nil {
		return nil, nil
	}
	expr, err := syntax.TranslatePattern(pattern, true)
	if err != nil {
		return nil, err
	}
	// hidden files are only matched when the pattern itself starts with
	// a literal dot
	matchHidden := strings.HasPrefix(pattern, ".") || strings.HasPrefix(pattern, `\.`)
	if cfg.NoCaseGlob {
		expr = "(?i)" + expr
	}
	rx, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, err
	}
	entries, err := cfg.ReadDir2(dir)
	if err != nil {
		// An unreadable directory simply contributes no matches; it is not
		// a fatal error for the overall pathname expansion.
		return nil, nil
	}
	var matches []string
	for _, e := range entries {
		name := e.Name()
		if !matchHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if rx.MatchString(name) {
			matches = append(matches, name)
		}
	}
	return matches, nil
}

// expandGlob expands a full, possibly multi-component pathname pattern,
// walking one path segment at a time via glob above.
func (cfg *Config) expandGlob(pattern string) []string {
	if cfg.ReadDir2 == nil {
		return nil
	}
	parts := strings.Split(pattern, "/")
	matches := []string{"."}
	if path.IsAbs(pattern) {
		matches[0] = "/"
		parts = parts[1:]
	}
	for _, part := range parts {
		if part == "**" && cfg.GlobStar {
			for i := range matches {
				// "a/**" should match "a/ a/b a/b/c ..."; note
				// how the zero-match case has a trailing
				// separator.
				matches[i] += "/"
			}
			latest := matches
			for {
				var newMatches []string
				for _, dir := range latest {
					names, err := cfg.glob(dir, "*")
					if err != nil {
						cfg.err(err)
						return nil
					}
					for _, name := range names {
						newMatches = append(newMatches, path.Join(dir, name))
					}
				}
				if len(newMatches) == 0 {
					break
				}
				matches = append(matches, newMatches...)
				latest = newMatches
			}
			continue
		}
		var newMatches []string
		for _, dir := range matches {
			names, err := cfg.glob(dir, part)
			if err != nil {
				cfg.err(err)
				return nil
			}
			for _, name := range names {
				newMatches = append(newMatches, path.Join(dir, name))
			}
		}
		matches = newMatches
	}
	return matches
}

func (cfg *Config) readFields(s string, n int, raw bool) []string {
	cfg.prepareIFS()
	type pos struct {
		start, end int
	}
	var fpos []pos

	runes := make([]rune, 0, len(s))
	infield := false
	esc := false
	for _, r := range s {
		if infield {
			if cfg.ifsRune(r) && (raw || !esc) {
				fpos[len(fpos)-1].end = len(runes)
				infield = false
			}
		} else {
			if !cfg.ifsRune(r) && (raw || !esc) {
				fpos = append(fpos, pos{start: len(runes), end: -1})
				infield = true
			}
		}
		if r == '\\' {
			if raw || esc {
				runes = append(runes, r)
			}
			esc = !esc
			continue
		}
		runes = append(runes, r)
		esc = false
	}
	if len(fpos) == 0 {
		return nil
	}
	if infield {
		fpos[len(fpos)-1].end = len(runes)
	}

	switch {
	case n == 1:
		// include heading/trailing IFSs
		fpos[0].start, fpos[0].end = 0, len(runes)
		fpos = fpos[:1]
	case n != -1 && n < len(fpos):
		// combine to max n fields
		fpos[n-1].end = fpos[len(fpos)-1].end
		fpos = fpos[:n]
	}

	fields := make([]string, len(fpos))
	for i, p := range fpos {
		fields[i] = string(runes[p.start:p.end])
	}
	return fields
}
