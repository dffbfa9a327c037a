// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Printer holds the internal state of the printing mechanism of a program.
type Printer struct {
	bw *bufio.Writer

	level int // indentation level

	// compactArithm drops the blanks around binary arithmetic operators,
	// needed inside `let` arguments where a blank ends the expression.
	compactArithm bool

	// pendingHdocs is the list of pending heredocs to write.
	pendingHdocs []*Redirect
}

// NewPrinter allocates a new [Printer] and applies any number of options.
func NewPrinter(opts ...PrinterOption) *Printer {
	p := &Printer{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PrinterOption is a function which can be passed to NewPrinter to alter its
// behavior.
type PrinterOption func(*Printer)

// Print writes the given node to w in shell source form.
//
// It supports all nodes a [Parser] can produce: a whole [*File], a [*Stmt],
// any [Command], [*Word], [WordPart], [ArithmExpr], [TestExpr], or
// [*Assign].
func (p *Printer) Print(w io.Writer, node Node) error {
	p.bw = bufio.NewWriter(w)
	p.level = 0
	p.pendingHdocs = nil
	switch x := node.(type) {
	case *File:
		p.stmtList(x.Stmts)
		p.newline()
	case *Stmt:
		p.stmt(x)
	case Command:
		p.command(x)
	case *Word:
		p.word(x)
	case WordPart:
		p.wordPart(x)
	case ArithmExpr:
		p.arithmExpr(x)
	case TestExpr:
		p.testExpr(x)
	case *Assign:
		p.assign(x)
	case *Redirect:
		p.redirect(x)
	default:
		return fmt.Errorf("syntax: unsupported node type %T", node)
	}
	return p.bw.Flush()
}

func (p *Printer) str(s string) { p.bw.WriteString(s) }

func (p *Printer) newline() {
	p.flushHeredocs()
	p.bw.WriteByte('\n')
}

func (p *Printer) indent() {
	for range p.level {
		p.bw.WriteByte('\t')
	}
}

func (p *Printer) flushHeredocs() {
	if len(p.pendingHdocs) == 0 {
		return
	}
	hdocs := p.pendingHdocs
	p.pendingHdocs = nil
	for _, rd := range hdocs {
		p.bw.WriteByte('\n')
		if rd.Hdoc != nil {
			body := p.wordString(rd.Hdoc)
			if body != "" {
				p.str(body)
				p.bw.WriteByte('\n')
			}
		}
		delim, _ := hdocDelim(rd.Word)
		p.str(delim)
	}
}

// stmtList prints statements one per line at the current indentation.
func (p *Printer) stmtList(stmts []*Stmt) {
	for i, s := range stmts {
		if i > 0 {
			p.newline()
		}
		p.indent()
		p.stmt(s)
	}
}

func (p *Printer) stmt(s *Stmt) {
	if s.Negated {
		p.str("! ")
	}
	if s.Cmd != nil {
		p.command(s.Cmd)
	}
	for _, rd := range s.Redirs {
		p.bw.WriteByte(' ')
		p.redirect(rd)
	}
	if s.Background {
		p.str(" &")
	}
}

func (p *Printer) redirect(rd *Redirect) {
	if rd.N != nil {
		p.str(rd.N.Value)
	}
	p.str(rd.Op.String())
	if rd.Word != nil {
		p.word(rd.Word)
	}
	switch rd.Op {
	case Hdoc, DashHdoc:
		p.pendingHdocs = append(p.pendingHdocs, rd)
	}
}

func (p *Printer) command(cmd Command) {
	switch x := cmd.(type) {
	case *CallExpr:
		for i, as := range x.Assigns {
			if i > 0 {
				p.bw.WriteByte(' ')
			}
			p.assign(as)
		}
		for i, w := range x.Args {
			if i > 0 || len(x.Assigns) > 0 {
				p.bw.WriteByte(' ')
			}
			p.word(w)
		}
	case *BinaryCmd:
		p.stmt(x.X)
		p.str(" " + x.Op.String() + " ")
		p.stmt(x.Y)
	case *Subshell:
		p.str("(")
		p.nestedStmts(x.Stmts)
		p.str(")")
	case *Block:
		p.str("{")
		p.nestedStmtsLn(x.Stmts)
		p.str("}")
	case *IfClause:
		p.ifClause(x, false)
	case *WhileClause:
		if x.Until {
			p.str("until ")
		} else {
			p.str("while ")
		}
		p.condStmts(x.Cond)
		p.str("; do")
		p.nestedStmtsLn(x.Do)
		p.str("done")
	case *ForClause:
		if x.Select {
			p.str("select ")
		} else {
			p.str("for ")
		}
		switch loop := x.Loop.(type) {
		case *WordIter:
			p.str(loop.Name.Value)
			if loop.InPos.IsValid() {
				p.str(" in")
				for _, w := range loop.Items {
					p.bw.WriteByte(' ')
					p.word(w)
				}
			}
		case *CStyleLoop:
			p.str("((")
			if loop.Init != nil {
				p.arithmExpr(loop.Init)
			}
			p.str("; ")
			if loop.Cond != nil {
				p.arithmExpr(loop.Cond)
			}
			p.str("; ")
			if loop.Post != nil {
				p.arithmExpr(loop.Post)
			}
			p.str("))")
		}
		p.str("; do")
		p.nestedStmtsLn(x.Do)
		p.str("done")
	case *CaseClause:
		p.str("case ")
		p.word(x.Word)
		p.str(" in")
		p.level++
		for _, ci := range x.Items {
			p.newline()
			p.indent()
			for i, pat := range ci.Patterns {
				if i > 0 {
					p.str(" | ")
				}
				p.word(pat)
			}
			p.str(")")
			p.nestedStmtsLn(ci.Stmts)
			p.indent()
			p.str(ci.Op.String())
		}
		p.level--
		p.newline()
		p.indent()
		p.str("esac")
	case *FuncDecl:
		if x.RsrvWord {
			p.str("function ")
			p.str(x.Name.Value)
			if x.Parens {
				p.str("()")
			}
			p.bw.WriteByte(' ')
		} else {
			p.str(x.Name.Value)
			p.str("() ")
		}
		p.stmt(x.Body)
	case *ArithmCmd:
		p.str("((")
		p.arithmExpr(x.X)
		p.str("))")
	case *TestClause:
		p.str("[[ ")
		p.testExpr(x.X)
		p.str(" ]]")
	case *DeclClause:
		p.str(x.Variant.Value)
		for _, as := range x.Args {
			p.bw.WriteByte(' ')
			p.assign(as)
		}
	case *LetClause:
		p.str("let")
		p.compactArithm = true
		for _, expr := range x.Exprs {
			p.bw.WriteByte(' ')
			p.arithmExpr(expr)
		}
		p.compactArithm = false
	case *TimeClause:
		p.str("time ")
		if x.PosixFormat {
			p.str("-p ")
		}
		if x.Stmt != nil {
			p.stmt(x.Stmt)
		}
	case *CoprocClause:
		p.str("coproc ")
		if x.Name != nil {
			p.word(x.Name)
			p.bw.WriteByte(' ')
		}
		if x.Stmt != nil {
			p.stmt(x.Stmt)
		}
	default:
		panic(fmt.Sprintf("syntax: unexpected command type %T", x))
	}
}

func (p *Printer) ifClause(ic *IfClause, elif bool) {
	if !elif {
		p.str("if ")
	}
	if len(ic.Cond) > 0 {
		p.condStmts(ic.Cond)
		p.str("; then")
	}
	p.nestedStmtsLn(ic.Then)
	if ic.Else != nil {
		p.indent()
		if len(ic.Else.Cond) > 0 {
			p.str("elif ")
		} else {
			p.str("else")
		}
		p.ifClause(ic.Else, true)
		return
	}
	p.indent()
	p.str("fi")
}

// condStmts prints a condition statement list on a single line, separated
// by semicolons.
func (p *Printer) condStmts(stmts []*Stmt) {
	for i, s := range stmts {
		if i > 0 {
			p.str("; ")
		}
		p.stmt(s)
	}
}

// nestedStmts prints statements on the current line, separated by
// semicolons and surrounded by single blanks, for subshells.
func (p *Printer) nestedStmts(stmts []*Stmt) {
	for i, s := range stmts {
		if i > 0 {
			p.str("; ")
		} else {
			p.bw.WriteByte(' ')
		}
		p.stmt(s)
	}
	p.bw.WriteByte(' ')
}

// nestedStmtsLn prints an indented statement block followed by a final
// newline and outer indentation, for blocks and loop bodies.
func (p *Printer) nestedStmtsLn(stmts []*Stmt) {
	p.level++
	if len(stmts) > 0 {
		p.newline()
		p.stmtList(stmts)
	}
	p.level--
	p.newline()
	p.indent()
}

func (p *Printer) assign(as *Assign) {
	if as.Name != nil {
		p.str(as.Name.Value)
		if as.Index != nil {
			p.str("[")
			p.arithmExpr(as.Index)
			p.str("]")
		}
		if as.Naked {
			return
		}
		if as.Append {
			p.str("+")
		}
		p.str("=")
	}
	if as.Array != nil {
		p.str("(")
		for i, elem := range as.Array.Elems {
			if i > 0 {
				p.bw.WriteByte(' ')
			}
			if elem.Index != nil {
				p.str("[")
				p.arithmExpr(elem.Index)
				p.str("]=")
			}
			if elem.Value != nil {
				p.word(elem.Value)
			}
		}
		p.str(")")
		return
	}
	if as.Value != nil {
		p.word(as.Value)
	}
}

func (p *Printer) word(w *Word) {
	for _, part := range w.Parts {
		p.wordPart(part)
	}
}

// wordString renders a word to a plain string, for heredoc bodies.
func (p *Printer) wordString(w *Word) string {
	var sb strings.Builder
	old := p.bw
	p.bw = bufio.NewWriter(&sb)
	for _, part := range w.Parts {
		p.wordPart(part)
	}
	p.bw.Flush()
	p.bw = old
	return sb.String()
}

func (p *Printer) wordPart(part WordPart) {
	switch x := part.(type) {
	case *Lit:
		p.str(x.Value)
	case *SglQuoted:
		if x.Dollar {
			p.str("$")
		}
		p.str("'")
		p.str(x.Value)
		p.str("'")
	case *DblQuoted:
		if x.Dollar {
			p.str("$")
		}
		p.str(`"`)
		for _, inner := range x.Parts {
			p.wordPart(inner)
		}
		p.str(`"`)
	case *ParamExp:
		p.paramExp(x)
	case *CmdSubst:
		if x.Backquotes {
			p.str("`")
			p.condStmts(x.Stmts)
			p.str("`")
		} else {
			p.str("$(")
			p.condStmts(x.Stmts)
			p.str(")")
		}
	case *ArithmExp:
		if x.Bracket {
			p.str("$[")
			p.arithmExpr(x.X)
			p.str("]")
		} else {
			p.str("$((")
			p.arithmExpr(x.X)
			p.str("))")
		}
	case *ProcSubst:
		p.str(x.Op.String())
		p.condStmts(x.Stmts)
		p.str(")")
	case *ExtGlob:
		p.str(x.Op.String())
		p.str(x.Pattern.Value)
		p.str(")")
	case *BraceExp:
		p.str("{")
		for i, elem := range x.Elems {
			if i > 0 {
				if x.Sequence {
					p.str("..")
				} else {
					p.str(",")
				}
			}
			p.word(elem)
		}
		p.str("}")
	default:
		panic(fmt.Sprintf("syntax: unexpected word part type %T", x))
	}
}

func (p *Printer) paramExp(pe *ParamExp) {
	if pe.Short {
		p.str("$")
		p.str(pe.Param.Value)
		if pe.Index != nil {
			p.str("[")
			p.arithmExpr(pe.Index)
			p.str("]")
		}
		return
	}
	p.str("${")
	switch {
	case pe.Length:
		p.str("#")
	case pe.Width:
		p.str("%")
	case pe.Excl:
		p.str("!")
	}
	p.str(pe.Param.Value)
	if pe.Index != nil {
		p.str("[")
		p.arithmExpr(pe.Index)
		p.str("]")
	}
	switch {
	case pe.Names != 0:
		p.str(pe.Names.String())
	case pe.Slice != nil:
		p.str(":")
		if pe.Slice.Offset != nil {
			p.arithmExpr(pe.Slice.Offset)
		}
		if pe.Slice.Length != nil {
			p.str(":")
			p.arithmExpr(pe.Slice.Length)
		}
	case pe.Repl != nil:
		p.str("/")
		if pe.Repl.All {
			p.str("/")
		}
		if pe.Repl.Orig != nil {
			p.word(pe.Repl.Orig)
		}
		p.str("/")
		if pe.Repl.With != nil {
			p.word(pe.Repl.With)
		}
	case pe.Exp != nil:
		p.str(pe.Exp.Op.String())
		if pe.Exp.Word != nil {
			p.word(pe.Exp.Word)
		}
	}
	p.str("}")
}

func (p *Printer) arithmExpr(expr ArithmExpr) {
	switch x := expr.(type) {
	case *Word:
		p.word(x)
	case *BinaryArithm:
		p.arithmExpr(x.X)
		if !p.compactArithm && x.Op != Comma {
			p.bw.WriteByte(' ')
		}
		p.str(x.Op.String())
		if !p.compactArithm {
			p.bw.WriteByte(' ')
		}
		p.arithmExpr(x.Y)
	case *UnaryArithm:
		if x.Post {
			p.arithmExpr(x.X)
			p.str(x.Op.String())
		} else {
			p.str(x.Op.String())
			p.arithmExpr(x.X)
		}
	case *ParenArithm:
		p.str("(")
		p.arithmExpr(x.X)
		p.str(")")
	default:
		panic(fmt.Sprintf("syntax: unexpected arithmetic expression type %T", x))
	}
}

func (p *Printer) testExpr(expr TestExpr) {
	switch x := expr.(type) {
	case *Word:
		p.word(x)
	case *BinaryTest:
		p.testExpr(x.X)
		p.str(" " + x.Op.String() + " ")
		p.testExpr(x.Y)
	case *UnaryTest:
		p.str(x.Op.String())
		p.bw.WriteByte(' ')
		p.testExpr(x.X)
	case *ParenTest:
		p.str("( ")
		p.testExpr(x.X)
		p.str(" )")
	default:
		panic(fmt.Sprintf("syntax: unexpected test expression type %T", x))
	}
}
