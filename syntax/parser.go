// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// KeepComments makes the parser parse comments and attach them to nodes, as
// opposed to discarding them.
func KeepComments(enabled bool) ParserOption {
	return func(p *Parser) { p.keepComments = enabled }
}

// LangVariant describes a shell language variant to use when tokenizing and
// parsing shell code. The zero value is [LangBash].
type LangVariant uint32

const (
	// LangBash corresponds to the GNU Bash language, as described in its
	// manual at https://www.gnu.org/software/bash/manual/bash.html.
	//
	// Note that this is the language this entire module targets; the other
	// variants below exist so that the few call sites which name another
	// dialect (quoting helpers, diagnostics) still compile, and carry no
	// behavioral difference in the parser itself.
	LangBash LangVariant = iota

	// LangPOSIX corresponds to the POSIX Shell language, as described at
	// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html.
	LangPOSIX

	// LangMirBSDKorn corresponds to the MirBSD Korn Shell, also known as
	// mksh.
	LangMirBSDKorn

	// LangAuto lets the parser itself choose a language variant.
	LangAuto
)

// Variant changes the shell language variant that the parser will accept.
func Variant(l LangVariant) ParserOption {
	return func(p *Parser) { p.lang = l }
}

func (l LangVariant) String() string {
	switch l {
	case LangBash:
		return "bash"
	case LangPOSIX:
		return "posix"
	case LangMirBSDKorn:
		return "mksh"
	case LangAuto:
		return "auto"
	}
	return "unknown shell language variant"
}

// Parser holds the internal state of the parsing mechanism of a program.
type Parser struct {
	src []byte
	pos int

	line, col int

	filename     string
	keepComments bool
	lang         LangVariant

	comments []Comment

	// pending here-document redirects, waiting for the next newline to
	// read their bodies
	heredocs []*Redirect
}

// NewParser allocates a new [Parser] and applies any number of options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParserOption is a function which can be passed to [NewParser] to alter its
// behavior.
type ParserOption func(*Parser)

func (p *Parser) reset(src []byte, name string) {
	p.src = src
	p.pos = 0
	p.line, p.col = 1, 1
	p.filename = name
	p.comments = nil
	p.heredocs = nil
}

// posErr aborts the current parse with an error at pos.
func (p *Parser) posErr(pos Pos, format string, a ...any) {
	panic(ParseError{
		Filename:   p.filename,
		Pos:        pos,
		Text:       fmt.Sprintf(format, a...),
		Incomplete: p.eof(),
	})
}

func (p *Parser) curErr(format string, a ...any) {
	p.posErr(p.getPos(), format, a...)
}

func (p *Parser) recoverError(err *error) {
	if r := recover(); r != nil {
		if perr, ok := r.(ParseError); ok {
			*err = perr
			return
		}
		panic(r)
	}
}

// Parse reads and parses a shell program with an optional name. It returns the
// parsed program if no issues were encountered. Otherwise, an error is
// returned. Reads from r are buffered.
//
// Parse can be called more than once, but not concurrently. That is, a Parser
// can be reused once it is done working.
func (p *Parser) Parse(r io.Reader, name string) (f *File, err error) {
	defer p.recoverError(&err)
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p.reset(src, name)
	f = &File{Name: name}
	f.Stmts = p.stmtList()
	if !p.eof() {
		p.curErr("%s can only be used to close a subshell", ")")
	}
	f.Last = p.takeComments()
	return f, nil
}

// Parse is a convenience wrapper around [Parser.Parse] for parsing a program
// held in memory with the default parser options.
func Parse(src []byte, name string) (*File, error) {
	return NewParser().Parse(strings.NewReader(string(src)), name)
}

// Document parses a single here-document body: a word that can contain
// parameter, command, and arithmetic expansions, where whitespace and
// newlines are kept as literal characters.
func (p *Parser) Document(r io.Reader) (w *Word, err error) {
	defer p.recoverError(&err)
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p.reset(src, "")
	parts := p.hdocLitParts(string(src))
	return &Word{Parts: parts}, nil
}

// WordsSeq parses a series of words separated by blanks or newlines,
// yielding each in turn. It is used by the `alias` builtin, which stores an
// alias's expansion as a list of words rather than a full command.
func (p *Parser) WordsSeq(r io.Reader) iter.Seq2[*Word, error] {
	return func(yield func(*Word, error) bool) {
		src, err := io.ReadAll(r)
		if err != nil {
			yield(nil, err)
			return
		}
		p.reset(src, "")
		var perr error
		func() {
			defer p.recoverError(&perr)
			for {
				p.spaces()
				for p.cur() == '\n' {
					p.advance()
					p.spaces()
				}
				if p.eof() {
					return
				}
				w := p.getWord(wordCtxNormal)
				if w == nil {
					return
				}
				if !yield(w, nil) {
					return
				}
			}
		}()
		if perr != nil {
			yield(nil, perr)
		}
	}
}

func (p *Parser) takeComments() []Comment {
	cs := p.comments
	p.comments = nil
	return cs
}

// stmtList parses statements until the end of input, an unbalanced closing
// parenthesis, or one of the given closing keywords, which is left for the
// caller to consume.
func (p *Parser) stmtList(stops ...string) []*Stmt {
	var stmts []*Stmt
	for {
		p.newlines()
		if p.eof() || p.cur() == ')' {
			break
		}
		if w := p.peekLitKeyword(stops...); w != "" {
			break
		}
		if tok, _ := p.peekOperator(); tok == dblSemicolon || tok == semiAnd || tok == dblSemiAnd || tok == semiOr {
			break
		}
		comments := p.takeComments()
		s := p.getStmt()
		if s == nil {
			break
		}
		s.Comments = comments
		// statement separators; `&` marks the statement as background
		p.spaces()
		switch tok, n := p.peekOperator(); tok {
		case semicolon:
			s.Semicolon = p.getPos()
			p.advanceN(n)
		case and:
			s.Semicolon = p.getPos()
			p.advanceN(n)
			s.Background = true
		case orAnd:
			// mksh's `cmd |&` background form
			s.Semicolon = p.getPos()
			p.advanceN(n)
			s.Coprocess = true
		}
		stmts = append(stmts, s)
	}
	return stmts
}

// peekLitKeyword reports which of the given keywords appears, unquoted, at
// the current position and followed by a word boundary.
func (p *Parser) peekLitKeyword(words ...string) string {
	for _, w := range words {
		if p.pos+len(w) > len(p.src) {
			continue
		}
		if string(p.src[p.pos:p.pos+len(w)]) != w {
			continue
		}
		if p.pos+len(w) == len(p.src) || wordBreak(p.src[p.pos+len(w)]) {
			return w
		}
	}
	return ""
}

// expectKeyword consumes the given keyword, or aborts with an error
// mentioning the construct that needed it.
func (p *Parser) expectKeyword(w, inside string) Pos {
	p.newlines()
	kpos := p.getPos()
	if p.peekLitKeyword(w) == "" {
		p.posErr(kpos, "%s must be followed by %q", inside, w)
	}
	p.advanceN(len(w))
	return kpos
}

// getStmt parses a full statement: a pipeline, possibly continued by the
// `&&` and `||` list operators in a left-associative chain.
func (p *Parser) getStmt() *Stmt {
	s := p.getPipeline()
	if s == nil {
		return nil
	}
	for {
		p.spaces()
		tok, n := p.peekOperator()
		if tok != andAnd && tok != orOr {
			break
		}
		opPos := p.getPos()
		p.advanceN(n)
		p.newlines()
		y := p.getPipeline()
		if y == nil {
			p.posErr(opPos, "%s must be followed by a statement", tok)
		}
		op := AndStmt
		if tok == orOr {
			op = OrStmt
		}
		s = &Stmt{
			Position: s.Position,
			Cmd:      &BinaryCmd{OpPos: opPos, Op: op, X: s, Y: y},
		}
	}
	return s
}

// getPipeline parses a pipeline: one or more commands joined by `|` or
// `|&`, with an optional leading `!` negating the pipeline's exit status.
func (p *Parser) getPipeline() *Stmt {
	p.spaces()
	pos := p.getPos()
	negated := false
	if p.peekLitKeyword("!") != "" {
		negated = true
		p.advance()
		p.spaces()
	}
	s := p.getCmdStmt()
	if s == nil {
		if negated {
			p.posErr(pos, "%q cannot form a statement alone", "!")
		}
		return nil
	}
	for {
		p.spaces()
		tok, n := p.peekOperator()
		if tok != or && tok != orAnd {
			break
		}
		opPos := p.getPos()
		p.advanceN(n)
		p.newlines()
		y := p.getCmdStmt()
		if y == nil {
			p.posErr(opPos, "%s must be followed by a statement", tok)
		}
		op := Pipe
		if tok == orAnd {
			op = PipeAll
		}
		s = &Stmt{
			Position: s.Position,
			Cmd:      &BinaryCmd{OpPos: opPos, Op: op, X: s, Y: y},
		}
	}
	if negated {
		s.Negated = true
		s.Position = pos
	}
	return s
}

// getCmdStmt parses one command with its redirections, either a compound
// command or a simple command with assignments.
func (p *Parser) getCmdStmt() *Stmt {
	p.spaces()
	if p.eof() || p.cur() == '\n' || p.cur() == ')' {
		return nil
	}
	s := &Stmt{Position: p.getPos()}
	if cmd := p.compoundCommand(s); cmd != nil {
		s.Cmd = cmd
		// compound commands can carry trailing redirections
		for p.maybeRedirect(s) {
		}
		return s
	}
	p.simpleCommand(s)
	if s.Cmd == nil && len(s.Redirs) == 0 {
		return nil
	}
	return s
}

// compoundCommand recognizes a compound command keyword at the start of a
// statement and parses it; it returns nil if the statement is simple.
func (p *Parser) compoundCommand(s *Stmt) Command {
	switch {
	case p.cur() == '(' && p.peek() == '(':
		return p.arithmCmd()
	case p.cur() == '(':
		return p.subshell()
	case p.peekLitKeyword("{") != "":
		return p.block()
	case p.peekLitKeyword("[[") != "":
		return p.testClause()
	case p.peekLitKeyword("if") != "":
		return p.ifClause()
	case p.peekLitKeyword("while") != "":
		return p.whileClause(false)
	case p.peekLitKeyword("until") != "":
		return p.whileClause(true)
	case p.peekLitKeyword("for") != "":
		return p.forClause(false)
	case p.peekLitKeyword("select") != "":
		return p.forClause(true)
	case p.peekLitKeyword("case") != "":
		return p.caseClause()
	case p.peekLitKeyword("function") != "":
		return p.funcDecl()
	case p.peekLitKeyword("time") != "":
		return p.timeClause()
	case p.peekLitKeyword("coproc") != "":
		return p.coprocClause()
	case p.peekLitKeyword("let") != "":
		return p.letClause()
	}
	for _, variant := range [...]string{
		"declare", "local", "export", "readonly", "typeset", "nameref",
	} {
		if p.peekLitKeyword(variant) != "" {
			return p.declClause(variant)
		}
	}
	return nil
}

func (p *Parser) subshell() Command {
	sub := &Subshell{Lparen: p.getPos()}
	p.advance()
	sub.Stmts = p.stmtList()
	sub.Last = p.takeComments()
	p.newlines()
	if p.cur() != ')' {
		p.posErr(sub.Lparen, "reached %s without matching %s with %s", p.describeCur(), "(", ")")
	}
	sub.Rparen = p.getPos()
	p.advance()
	return sub
}

func (p *Parser) block() Command {
	b := &Block{Lbrace: p.getPos()}
	p.advance()
	b.Stmts = p.stmtList("}")
	b.Last = p.takeComments()
	p.newlines()
	if p.peekLitKeyword("}") == "" {
		p.posErr(b.Lbrace, "reached %s without matching %s with %s", p.describeCur(), "{", "}")
	}
	b.Rbrace = p.getPos()
	p.advance()
	return b
}

func (p *Parser) ifClause() Command {
	ic := &IfClause{Position: p.getPos()}
	p.advanceN(len("if"))
	ic.Cond = p.stmtList("then")
	ic.ThenPos = p.expectKeyword("then", "\"if <cond>\"")
	ic.Then = p.stmtList("fi", "elif", "else")
	curIf := ic
	for {
		p.newlines()
		if p.peekLitKeyword("elif") != "" {
			elf := &IfClause{Position: p.getPos()}
			p.advanceN(len("elif"))
			elf.Cond = p.stmtList("then")
			elf.ThenPos = p.expectKeyword("then", "\"elif <cond>\"")
			elf.Then = p.stmtList("fi", "elif", "else")
			curIf.Else = elf
			curIf = elf
			continue
		}
		if p.peekLitKeyword("else") != "" {
			els := &IfClause{Position: p.getPos()}
			p.advanceN(len("else"))
			els.Then = p.stmtList("fi")
			curIf.Else = els
			curIf = els
		}
		break
	}
	p.newlines()
	if p.peekLitKeyword("fi") == "" {
		p.posErr(ic.Position, `if statement must end with "fi"`)
	}
	fi := p.getPos()
	p.advanceN(len("fi"))
	// every if clause in the chain shares the closing "fi"
	for cur := ic; cur != nil; cur = cur.Else {
		cur.FiPos = fi
	}
	return ic
}

func (p *Parser) whileClause(until bool) Command {
	wc := &WhileClause{WhilePos: p.getPos(), Until: until}
	if until {
		p.advanceN(len("until"))
	} else {
		p.advanceN(len("while"))
	}
	wc.Cond = p.stmtList("do")
	name := "\"while <cond>\""
	if until {
		name = "\"until <cond>\""
	}
	wc.DoPos = p.expectKeyword("do", name)
	wc.Do = p.stmtList("done")
	wc.DonePos = p.expectKeyword("done", "\"do <stmts>\"")
	return wc
}

func (p *Parser) forClause(selectClause bool) Command {
	fc := &ForClause{ForPos: p.getPos(), Select: selectClause}
	if selectClause {
		p.advanceN(len("select"))
	} else {
		p.advanceN(len("for"))
	}
	p.spaces()
	if !selectClause && p.cur() == '(' && p.peek() == '(' {
		loop := &CStyleLoop{Lparen: p.getPos()}
		p.advanceN(2)
		loop.Init = p.arithmSection(';')
		if p.cur() != ';' {
			p.curErr("c-style for loop sections must be separated by %s", ";")
		}
		p.advance()
		loop.Cond = p.arithmSection(';')
		if p.cur() != ';' {
			p.curErr("c-style for loop sections must be separated by %s", ";")
		}
		p.advance()
		loop.Post = p.arithmSection(')')
		if p.cur() != ')' || p.peek() != ')' {
			p.curErr("reached %s without matching %s with %s", p.describeCur(), "((", "))")
		}
		loop.Rparen = p.getPos()
		p.advanceN(2)
		fc.Loop = loop
	} else {
		it := &WordIter{}
		namePos := p.getPos()
		name := p.getLitName()
		if name == "" {
			p.posErr(namePos, "%s must be followed by a literal name", "for")
		}
		it.Name = &Lit{ValuePos: namePos, ValueEnd: p.getPos(), Value: name}
		p.spaces()
		if p.peekLitKeyword("in") != "" {
			it.InPos = p.getPos()
			p.advanceN(len("in"))
			for {
				p.spaces()
				if p.eof() || p.cur() == '\n' || p.cur() == ';' {
					break
				}
				w := p.getWord(wordCtxNormal)
				if w == nil {
					break
				}
				it.Items = append(it.Items, w)
			}
		}
		fc.Loop = it
	}
	p.spaces()
	if p.cur() == ';' {
		p.advance()
	}
	fc.DoPos = p.expectKeyword("do", "\"for foo [in words]\"")
	fc.Do = p.stmtList("done")
	fc.DonePos = p.expectKeyword("done", "\"do <stmts>\"")
	return fc
}

func (p *Parser) caseClause() Command {
	cc := &CaseClause{Case: p.getPos()}
	p.advanceN(len("case"))
	p.spaces()
	cc.Word = p.getWord(wordCtxNormal)
	if cc.Word == nil {
		p.posErr(cc.Case, "%s must be followed by a word", "case")
	}
	cc.In = p.expectKeyword("in", "\"case x\"")
	for {
		p.newlines()
		if p.eof() {
			p.posErr(cc.Case, `case statement must end with "esac"`)
		}
		if p.peekLitKeyword("esac") != "" {
			break
		}
		ci := &CaseItem{Comments: p.takeComments()}
		if p.cur() == '(' {
			p.advance()
			p.spaces()
		}
		for {
			w := p.getWord(wordCtxCasePattern)
			if w == nil {
				p.curErr("case patterns must consist of words")
			}
			ci.Patterns = append(ci.Patterns, w)
			p.spaces()
			if p.cur() == '|' {
				p.advance()
				p.spaces()
				continue
			}
			break
		}
		if p.cur() != ')' {
			p.curErr("case patterns must be separated with |, and end with %s", ")")
		}
		p.advance()
		ci.Stmts = p.stmtList("esac")
		ci.Last = p.takeComments()
		p.newlines()
		switch tok, n := p.peekOperator(); tok {
		case dblSemicolon, semiAnd, dblSemiAnd, semiOr:
			ci.Op = CaseOperator(tok)
			ci.OpPos = p.getPos()
			p.advanceN(n)
		default:
			ci.Op = Break
		}
		cc.Items = append(cc.Items, ci)
	}
	cc.Last = p.takeComments()
	cc.Esac = p.getPos()
	p.advanceN(len("esac"))
	return cc
}

func (p *Parser) funcDecl() Command {
	fd := &FuncDecl{Position: p.getPos(), RsrvWord: true}
	p.advanceN(len("function"))
	p.spaces()
	namePos := p.getPos()
	name := p.getLitName()
	if name == "" {
		p.posErr(namePos, "%s must be followed by a name", "function")
	}
	fd.Name = &Lit{ValuePos: namePos, ValueEnd: p.getPos(), Value: name}
	p.spaces()
	if p.cur() == '(' && p.peek() == ')' {
		fd.Parens = true
		p.advanceN(2)
	}
	p.newlines()
	fd.Body = p.getStmt()
	if fd.Body == nil {
		p.posErr(fd.Position, "%s must be followed by a body", "function declaration")
	}
	return fd
}

func (p *Parser) timeClause() Command {
	tc := &TimeClause{Time: p.getPos()}
	p.advanceN(len("time"))
	p.spaces()
	if p.peekLitKeyword("-p") != "" {
		tc.PosixFormat = true
		p.advanceN(2)
		p.spaces()
	}
	if !p.eof() && p.cur() != '\n' && p.cur() != ';' {
		tc.Stmt = p.getPipeline()
	}
	return tc
}

func (p *Parser) coprocClause() Command {
	cc := &CoprocClause{Coproc: p.getPos()}
	p.advanceN(len("coproc"))
	p.spaces()
	// `coproc name { ... }` gives the coprocess a name; any other word
	// begins the command itself.
	if name := p.getLitName(); name != "" {
		p.spaces()
		if p.peekLitKeyword("{") != "" || p.cur() == '(' {
			cc.Name = &Word{Parts: []WordPart{&Lit{Value: name}}}
			cc.Stmt = p.getStmt()
		} else {
			// not a name after all, but the first word of the command;
			// parse the rest of the simple command after it
			s := &Stmt{Position: cc.Coproc}
			p.simpleCommand(s)
			nameWord := &Word{Parts: []WordPart{&Lit{Value: name}}}
			if ce, ok := s.Cmd.(*CallExpr); ok {
				ce.Args = append([]*Word{nameWord}, ce.Args...)
			} else if s.Cmd == nil {
				s.Cmd = &CallExpr{Args: []*Word{nameWord}}
			}
			cc.Stmt = s
		}
	} else {
		cc.Stmt = p.getStmt()
	}
	if cc.Stmt == nil {
		p.posErr(cc.Coproc, "coproc clause requires a command")
	}
	return cc
}

func (p *Parser) letClause() Command {
	lc := &LetClause{Let: p.getPos()}
	p.advanceN(len("let"))
	for {
		p.spaces()
		if p.eof() || p.cur() == '\n' || p.cur() == ';' || p.cur() == ')' {
			break
		}
		if tok, _ := p.peekOperator(); tok == and || tok == andAnd || tok == orOr || tok == or {
			break
		}
		x := p.arithmExprCompact()
		if x == nil {
			break
		}
		lc.Exprs = append(lc.Exprs, x)
	}
	if len(lc.Exprs) == 0 {
		p.posErr(lc.Let, "%s clause requires at least one expression", "let")
	}
	return lc
}

func (p *Parser) declClause(variant string) Command {
	dc := &DeclClause{Variant: &Lit{
		ValuePos: p.getPos(),
		Value:    variant,
	}}
	p.advanceN(len(variant))
	dc.Variant.ValueEnd = p.getPos()
	for {
		p.spaces()
		if p.eof() || p.cur() == '\n' || p.cur() == ')' {
			break
		}
		if tok, _ := p.peekOperator(); tok != illegalTok {
			break
		}
		if as := p.getAssign(true); as != nil {
			dc.Args = append(dc.Args, as)
			continue
		}
		w := p.getWord(wordCtxNormal)
		if w == nil {
			break
		}
		dc.Args = append(dc.Args, &Assign{Naked: true, Value: w})
	}
	return dc
}

func (p *Parser) arithmCmd() Command {
	ac := &ArithmCmd{Left: p.getPos()}
	p.advanceN(2)
	ac.X = p.arithmSection(')')
	if ac.X == nil {
		p.posErr(ac.Left, "%s must contain an expression", "((")
	}
	if p.cur() != ')' || p.peek() != ')' {
		p.curErr("reached %s without matching %s with %s", p.describeCur(), "((", "))")
	}
	ac.Right = p.getPos()
	p.advanceN(2)
	return ac
}

// simpleCommand parses assignments, argument words, and redirections into a
// CallExpr attached to s. Any of the three may be missing.
func (p *Parser) simpleCommand(s *Stmt) {
	ce := &CallExpr{}
	for {
		p.spaces()
		if p.eof() || p.cur() == '\n' {
			break
		}
		if p.maybeRedirect(s) {
			continue
		}
		if (p.cur() == '<' || p.cur() == '>') && p.peek() == '(' {
			// process substitution begins a word
			ce.Args = append(ce.Args, p.getWord(wordCtxNormal))
			continue
		}
		if tok, _ := p.peekOperator(); tok != illegalTok {
			break
		}
		if len(ce.Args) == 0 {
			if as := p.getAssign(false); as != nil {
				ce.Assigns = append(ce.Assigns, as)
				continue
			}
		}
		w := p.getWord(wordCtxNormal)
		if w == nil {
			break
		}
		if len(ce.Args) == 0 && len(ce.Assigns) == 0 && len(s.Redirs) == 0 {
			// `name()` starts a function declaration
			if name := w.Lit(); ValidName(name) {
				p.spaces()
				if p.cur() == '(' && p.peek() == ')' {
					p.advanceN(2)
					p.newlines()
					body := p.getStmt()
					if body == nil {
						p.posErr(w.Pos(), "%s must be followed by a body", "function declaration")
					}
					s.Cmd = &FuncDecl{
						Position: w.Pos(),
						Parens:   true,
						Name: &Lit{
							ValuePos: w.Pos(),
							ValueEnd: w.End(),
							Value:    name,
						},
						Body: body,
					}
					return
				}
			}
		}
		ce.Args = append(ce.Args, w)
	}
	if len(ce.Args) == 0 && len(ce.Assigns) == 0 {
		return
	}
	s.Cmd = ce
}

// maybeRedirect parses one redirection if the parser is sitting on one,
// attaching it to s and reporting whether it did.
func (p *Parser) maybeRedirect(s *Stmt) bool {
	p.spaces()
	// An fd number may prefix the operator directly, as in `2>err`. Digits
	// immediately followed by `<` or `>` always denote a redirection.
	nEnd := p.pos
	for nEnd < len(p.src) && p.src[nEnd] >= '0' && p.src[nEnd] <= '9' {
		nEnd++
	}
	var lit string
	if nEnd > p.pos && nEnd < len(p.src) && (p.src[nEnd] == '>' || p.src[nEnd] == '<') {
		lit = string(p.src[p.pos:nEnd])
	}
	savedPos := p.getPos()
	oldPos, oldCol := p.pos, p.col
	if lit != "" {
		p.advanceN(len(lit))
	}
	op, n := p.peekRedir()
	if n == 0 {
		// `2>(cmd)` and similar: the digits belong to a word after all
		p.pos, p.col = oldPos, oldCol
		return false
	}
	rd := &Redirect{OpPos: p.getPos(), Op: op}
	if lit != "" {
		rd.N = &Lit{ValuePos: savedPos, ValueEnd: rd.OpPos, Value: lit}
	}
	p.advanceN(n)
	p.spaces()
	switch op {
	case Hdoc, DashHdoc:
		rd.Word = p.getWord(wordCtxNormal)
		if rd.Word == nil {
			p.posErr(rd.OpPos, "%s must be followed by a word", op)
		}
		p.heredocs = append(p.heredocs, rd)
	default:
		rd.Word = p.getWord(wordCtxNormal)
		if rd.Word == nil {
			p.posErr(rd.OpPos, "%s must be followed by a word", op)
		}
	}
	s.Redirs = append(s.Redirs, rd)
	return true
}

// getAssign parses a variable assignment if one begins at the current
// position, returning nil (and consuming nothing) otherwise. In declClause
// mode, words that aren't assignments are not claimed.
func (p *Parser) getAssign(decl bool) *Assign {
	i := 0
	for paramNameByte(p.at(i)) {
		i++
	}
	if i == 0 || !ValidName(string(p.src[p.pos:p.pos+i])) {
		return nil
	}
	as := &Assign{}
	nameEnd := i
	// optional [index] between the name and the equals sign
	hasIndex := p.at(i) == '['
	j := i
	if hasIndex {
		depth := 0
		for ; p.pos+j < len(p.src); j++ {
			if p.src[p.pos+j] == '[' {
				depth++
			} else if p.src[p.pos+j] == ']' {
				depth--
				if depth == 0 {
					j++
					break
				}
			}
		}
	}
	switch {
	case p.at(j) == '+' && p.at(j+1) == '=':
		as.Append = true
	case p.at(j) == '=':
	default:
		return nil
	}
	namePos := p.getPos()
	name := string(p.src[p.pos : p.pos+nameEnd])
	p.advanceN(nameEnd)
	as.Name = &Lit{ValuePos: namePos, ValueEnd: p.getPos(), Value: name}
	if hasIndex {
		p.advance() // '['
		as.Index = p.arithmSection(']')
		if p.cur() != ']' {
			p.curErr("reached %s without matching %s with %s", p.describeCur(), "[", "]")
		}
		p.advance()
	}
	if as.Append {
		p.advance()
	}
	p.advance() // '='
	if p.cur() == '(' {
		arr := &ArrayExpr{Lparen: p.getPos()}
		p.advance()
		for {
			p.newlines()
			if p.cur() == ')' {
				break
			}
			if p.eof() {
				p.posErr(arr.Lparen, "array literal must end with %s", ")")
			}
			elem := &ArrayElem{}
			if p.cur() == '[' {
				p.advance()
				elem.Index = p.arithmSection(']')
				if p.cur() != ']' || p.peek() != '=' {
					p.curErr("array element index must be followed by %s", "]=")
				}
				p.advanceN(2)
			}
			elem.Value = p.getWord(wordCtxNormal)
			if elem.Index == nil && elem.Value == nil {
				p.curErr("array elements must be words")
			}
			arr.Elems = append(arr.Elems, elem)
		}
		arr.Rparen = p.getPos()
		p.advance()
		as.Array = arr
		return as
	}
	if p.eof() || wordBreak(p.cur()) {
		// no value: `a=`
		return as
	}
	as.Value = p.getWord(wordCtxNormal)
	return as
}

// getLitName reads a literal name (as in a variable or function name),
// consuming it and returning it, or returning "" without consuming anything.
func (p *Parser) getLitName() string {
	i := 0
	for paramNameByte(p.at(i)) {
		i++
	}
	name := string(p.src[p.pos : p.pos+i])
	if !ValidName(name) {
		return ""
	}
	p.advanceN(i)
	return name
}

func (p *Parser) describeCur() string {
	if p.eof() {
		return "EOF"
	}
	if p.cur() == '\n' {
		return "a newline"
	}
	return fmt.Sprintf("%q", string(p.cur()))
}

// doHeredocs reads the bodies of all pending here-documents; called just
// after a newline has been crossed.
func (p *Parser) doHeredocs() {
	if len(p.heredocs) == 0 {
		return
	}
	pending := p.heredocs
	p.heredocs = nil
	for _, rd := range pending {
		delim, quoted := hdocDelim(rd.Word)
		var body strings.Builder
		bodyPos := p.getPos()
		for {
			if p.eof() {
				p.posErr(rd.OpPos, "unclosed here-document '%s'", delim)
			}
			lineStart := p.pos
			for !p.eof() && p.cur() != '\n' {
				p.advance()
			}
			line := string(p.src[lineStart:p.pos])
			if !p.eof() {
				p.advance() // the newline
			}
			cmp := line
			if rd.Op == DashHdoc {
				cmp = strings.TrimLeft(line, "\t")
			}
			if cmp == delim {
				break
			}
			body.WriteString(line)
			body.WriteString("\n")
		}
		text := strings.TrimSuffix(body.String(), "\n")
		if body.Len() == 0 {
			text = ""
		}
		w := &Word{}
		if quoted {
			w.Parts = []WordPart{&Lit{
				ValuePos: bodyPos,
				ValueEnd: p.getPos(),
				Value:    text,
			}}
		} else {
			w.Parts = p.hdocLitParts(text)
		}
		if len(w.Parts) == 0 {
			w.Parts = []WordPart{&Lit{ValuePos: bodyPos, ValueEnd: bodyPos}}
		}
		rd.Hdoc = w
	}
}

// hdocDelim returns the delimiter string of a here-document redirect, and
// whether any part of it was quoted, which suppresses expansions in the
// body.
func hdocDelim(w *Word) (string, bool) {
	var sb strings.Builder
	quoted := false
	for _, part := range w.Parts {
		switch x := part.(type) {
		case *Lit:
			val := x.Value
			for i := 0; i < len(val); i++ {
				if val[i] == '\\' && i+1 < len(val) {
					quoted = true
					i++
					sb.WriteByte(val[i])
					continue
				}
				sb.WriteByte(val[i])
			}
		case *SglQuoted:
			quoted = true
			sb.WriteString(x.Value)
		case *DblQuoted:
			quoted = true
			for _, inner := range x.Parts {
				if lit, ok := inner.(*Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		}
	}
	return sb.String(), quoted
}

// hdocLitParts parses text as an unquoted here-document body: literal
// characters with $-expansions and backquotes active, and backslash only
// escaping $, `, \, and newline.
func (p *Parser) hdocLitParts(text string) []WordPart {
	sub := &Parser{lang: p.lang}
	sub.reset([]byte(text), p.filename)
	var parts []WordPart
	var lit []byte
	litPos := sub.getPos()
	flush := func() {
		if len(lit) > 0 {
			parts = append(parts, &Lit{
				ValuePos: litPos,
				ValueEnd: sub.getPos(),
				Value:    string(lit),
			})
			lit = nil
		}
	}
	for !sub.eof() {
		switch b := sub.cur(); b {
		case '\\':
			switch sub.peek() {
			case '$', '`', '\\':
				sub.advance()
				lit = append(lit, sub.cur())
				sub.advance()
			case '\n':
				sub.advanceN(2)
			default:
				lit = append(lit, b)
				sub.advance()
			}
		case '$':
			flush()
			parts = append(parts, sub.dollar())
			litPos = sub.getPos()
		case '`':
			flush()
			parts = append(parts, sub.backquotes())
			litPos = sub.getPos()
		default:
			lit = append(lit, b)
			sub.advance()
		}
	}
	flush()
	return parts
}
