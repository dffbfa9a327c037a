// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"io"
	"reflect"
)

// Walk traverses a syntax tree in depth-first order: it starts by calling
// f(node); node must not be nil. If f returns true, Walk invokes f
// recursively for each of the non-nil children of node, followed by
// f(nil).
func Walk(node Node, f func(Node) bool) {
	if node == nil {
		panic("syntax.Walk: node must not be nil")
	}
	if !f(node) {
		return
	}
	walkChildren(node, f)
	f(nil)
}

func walkList(f func(Node) bool, stmts []*Stmt, last []Comment) {
	for _, s := range stmts {
		Walk(s, f)
	}
	for i := range last {
		Walk(&last[i], f)
	}
}

func walkWords(f func(Node) bool, words []*Word) {
	for _, w := range words {
		Walk(w, f)
	}
}

func walkChildren(node Node, f func(Node) bool) {
	switch x := node.(type) {
	case *File:
		walkList(f, x.Stmts, x.Last)
	case *Comment:
	case *Stmt:
		for i := range x.Comments {
			if !x.Comments[i].End().After(x.Pos()) {
				defer Walk(&x.Comments[i], f)
				continue
			}
			Walk(&x.Comments[i], f)
		}
		if x.Cmd != nil {
			Walk(x.Cmd, f)
		}
		for _, r := range x.Redirs {
			Walk(r, f)
		}
	case *Assign:
		if x.Name != nil {
			Walk(x.Name, f)
		}
		if x.Value != nil {
			Walk(x.Value, f)
		}
		if x.Index != nil {
			Walk(x.Index, f)
		}
		if x.Array != nil {
			Walk(x.Array, f)
		}
	case *Redirect:
		if x.N != nil {
			Walk(x.N, f)
		}
		Walk(x.Word, f)
		if x.Hdoc != nil {
			Walk(x.Hdoc, f)
		}
	case *CallExpr:
		for _, a := range x.Assigns {
			Walk(a, f)
		}
		walkWords(f, x.Args)
	case *Subshell:
		walkList(f, x.Stmts, x.Last)
	case *Block:
		walkList(f, x.Stmts, x.Last)
	case *IfClause:
		walkList(f, x.Cond, x.CondLast)
		walkList(f, x.Then, x.ThenLast)
		if x.Else != nil {
			Walk(x.Else, f)
		}
	case *WhileClause:
		walkList(f, x.Cond, x.CondLast)
		walkList(f, x.Do, x.DoLast)
	case *ForClause:
		Walk(x.Loop, f)
		walkList(f, x.Do, x.DoLast)
	case *WordIter:
		Walk(x.Name, f)
		walkWords(f, x.Items)
	case *CStyleLoop:
		if x.Init != nil {
			Walk(x.Init, f)
		}
		if x.Cond != nil {
			Walk(x.Cond, f)
		}
		if x.Post != nil {
			Walk(x.Post, f)
		}
	case *BinaryCmd:
		Walk(x.X, f)
		Walk(x.Y, f)
	case *FuncDecl:
		Walk(x.Name, f)
		Walk(x.Body, f)
	case *Word:
		for _, wp := range x.Parts {
			Walk(wp, f)
		}
	case *Lit:
	case *SglQuoted:
	case *DblQuoted:
		for _, wp := range x.Parts {
			Walk(wp, f)
		}
	case *CmdSubst:
		walkList(f, x.Stmts, x.Last)
	case *ParamExp:
		Walk(x.Param, f)
		if x.Index != nil {
			Walk(x.Index, f)
		}
		if x.Repl != nil {
			if x.Repl.Orig != nil {
				Walk(x.Repl.Orig, f)
			}
			if x.Repl.With != nil {
				Walk(x.Repl.With, f)
			}
		}
		if x.Exp != nil && x.Exp.Word != nil {
			Walk(x.Exp.Word, f)
		}
	case *ArithmExp:
		if x.X != nil {
			Walk(x.X, f)
		}
	case *ArithmCmd:
		if x.X != nil {
			Walk(x.X, f)
		}
	case *BinaryArithm:
		Walk(x.X, f)
		Walk(x.Y, f)
	case *UnaryArithm:
		Walk(x.X, f)
	case *ParenArithm:
		Walk(x.X, f)
	case *CaseClause:
		Walk(x.Word, f)
		for _, ci := range x.Items {
			Walk(ci, f)
		}
	case *CaseItem:
		for i := range x.Comments {
			if !x.Comments[i].End().After(x.Pos()) {
				defer Walk(&x.Comments[i], f)
				continue
			}
			Walk(&x.Comments[i], f)
		}
		walkWords(f, x.Patterns)
		walkList(f, x.Stmts, x.Last)
	case *TestClause:
		Walk(x.X, f)
	case *BinaryTest:
		Walk(x.X, f)
		Walk(x.Y, f)
	case *UnaryTest:
		Walk(x.X, f)
	case *ParenTest:
		Walk(x.X, f)
	case *DeclClause:
		Walk(x.Variant, f)
		for _, a := range x.Args {
			Walk(a, f)
		}
	case *ArrayExpr:
		for _, el := range x.Elems {
			Walk(el, f)
		}
	case *ArrayElem:
		if x.Index != nil {
			Walk(x.Index, f)
		}
		if x.Value != nil {
			Walk(x.Value, f)
		}
	case *ExtGlob:
		Walk(x.Pattern, f)
	case *ProcSubst:
		walkList(f, x.Stmts, x.Last)
	case *TimeClause:
		if x.Stmt != nil {
			Walk(x.Stmt, f)
		}
	case *CoprocClause:
		if x.Name != nil {
			Walk(x.Name, f)
		}
		Walk(x.Stmt, f)
	case *LetClause:
		for _, expr := range x.Exprs {
			Walk(expr, f)
		}
	case *TestDecl:
		Walk(x.Description, f)
		Walk(x.Body, f)
	default:
		panic(fmt.Sprintf("syntax.Walk: unexpected node type %T", x))
	}
}

// DebugPrint prints the provided syntax tree, spanning multiple lines and
// with indentation. Can be useful to investigate the content of a syntax
// tree.
func DebugPrint(w io.Writer, node Node) error {
	p := debugPrinter{out: w}
	p.print(reflect.ValueOf(node))
	return p.err
}

type debugPrinter struct {
	out   io.Writer
	level int
	err   error
}

func (p *debugPrinter) printf(format string, args ...any) {
	_, err := fmt.Fprintf(p.out, format, args...)
	if err != nil && p.err == nil {
		p.err = err
	}
}

func (p *debugPrinter) newline() {
	p.printf("\n")
	for range p.level {
		p.printf(".  ")
	}
}

func (p *debugPrinter) print(x reflect.Value) {
	switch x.Kind() {
	case reflect.Interface:
		if x.IsNil() {
			p.printf("nil")
			return
		}
		p.print(x.Elem())
	case reflect.Ptr:
		if x.IsNil() {
			p.printf("nil")
			return
		}
		p.printf("*")
		p.print(x.Elem())
	case reflect.Slice:
		p.printf("%s (len = %d) {", x.Type(), x.Len())
		if x.Len() > 0 {
			p.level++
			for i := range x.Len() {
				p.newline()
				p.printf("%d: ", i)
				p.print(x.Index(i))
			}
			p.level--
			p.newline()
		}
		p.printf("}")
	case reflect.Struct:
		if v, ok := x.Interface().(Pos); ok {
			p.printf("%v:%v", v.Line(), v.Col())
			return
		}
		t := x.Type()
		p.printf("%s {", t)
		p.level++
		for i := range t.NumField() {
			p.newline()
			p.printf("%s: ", t.Field(i).Name)
			p.print(x.Field(i))
		}
		p.level--
		p.newline()
		p.printf("}")
	default:
		if s, ok := x.Interface().(fmt.Stringer); ok && !x.IsZero() {
			p.printf("%#v (%s)", x.Interface(), s)
		} else {
			p.printf("%#v", x.Interface())
		}
	}
}
