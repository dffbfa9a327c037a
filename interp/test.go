// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"

	"github.com/shellgrove/shellgrove/expand"
	"github.com/shellgrove/shellgrove/syntax"
)

// testParser parses the arguments of the `test` and `[` builtins into the
// same [syntax.TestExpr] tree that `[[ ... ]]` produces, so that both
// front ends share one evaluator.
type testParser struct {
	rem []string
	cur string
	eof bool
	err func(error)
}

func (p *testParser) next() {
	if len(p.rem) == 0 {
		p.eof = true
		p.cur = ""
		return
	}
	p.cur = p.rem[0]
	p.rem = p.rem[1:]
}

func (p *testParser) errf(format string, a ...any) {
	p.err(fmt.Errorf(format, a...))
}

var testUnaryOps = map[string]syntax.UnTestOperator{
	"-e": syntax.TsExists, "-f": syntax.TsRegFile, "-d": syntax.TsDirect,
	"-c": syntax.TsCharSp, "-b": syntax.TsBlckSp, "-p": syntax.TsNmPipe,
	"-S": syntax.TsSocket, "-L": syntax.TsSmbLink, "-h": syntax.TsSmbLink,
	"-k": syntax.TsSticky, "-g": syntax.TsGIDSet, "-u": syntax.TsUIDSet,
	"-G": syntax.TsGrpOwn, "-O": syntax.TsUsrOwn, "-N": syntax.TsModif,
	"-r": syntax.TsRead, "-w": syntax.TsWrite, "-x": syntax.TsExec,
	"-s": syntax.TsNoEmpty, "-t": syntax.TsFdTerm, "-z": syntax.TsEmpStr,
	"-n": syntax.TsNempStr, "-o": syntax.TsOptSet, "-v": syntax.TsVarSet,
	"-R": syntax.TsRefVar,
}

var testBinaryOps = map[string]syntax.BinTestOperator{
	"=":   syntax.TsMatchShort,
	"==":  syntax.TsMatch,
	"!=":  syntax.TsNoMatch,
	"=~":  syntax.TsReMatch,
	"-nt": syntax.TsNewer,
	"-ot": syntax.TsOlder,
	"-ef": syntax.TsDevIno,
	"-eq": syntax.TsEql,
	"-ne": syntax.TsNeq,
	"-le": syntax.TsLeq,
	"-ge": syntax.TsGeq,
	"-lt": syntax.TsLss,
	"-gt": syntax.TsGtr,
	"<":   syntax.TsBefore,
	">":   syntax.TsAfter,
}

func testWord(s string) *syntax.Word {
	return &syntax.Word{Parts: []syntax.WordPart{&syntax.Lit{Value: s}}}
}

// classicTest parses an entire classic test expression; the name is used
// in diagnostics, matching whether the builtin was called as `test` or `[`.
func (p *testParser) classicTest(name string, posix bool) syntax.TestExpr {
	if p.eof {
		// `test` with no arguments is false
		return nil
	}
	expr := p.testExprOr()
	if !p.eof {
		p.errf("%s: unexpected argument %q", name, p.cur)
		return nil
	}
	return expr
}

func (p *testParser) testExprOr() syntax.TestExpr {
	x := p.testExprAnd()
	for !p.eof && p.cur == "-o" {
		p.next()
		y := p.testExprAnd()
		if y == nil {
			p.errf("-o must be followed by an expression")
			return x
		}
		x = &syntax.BinaryTest{Op: syntax.OrTest, X: x, Y: y}
	}
	return x
}

func (p *testParser) testExprAnd() syntax.TestExpr {
	x := p.testExprUnary()
	for !p.eof && p.cur == "-a" {
		p.next()
		y := p.testExprUnary()
		if y == nil {
			p.errf("-a must be followed by an expression")
			return x
		}
		x = &syntax.BinaryTest{Op: syntax.AndTest, X: x, Y: y}
	}
	return x
}

func (p *testParser) testExprUnary() syntax.TestExpr {
	if p.eof {
		return nil
	}
	switch p.cur {
	case "!":
		p.next()
		x := p.testExprUnary()
		if x == nil {
			p.errf("! must be followed by an expression")
			return nil
		}
		return &syntax.UnaryTest{Op: syntax.TsNot, X: x}
	case "(":
		p.next()
		x := p.testExprOr()
		if p.eof || p.cur != ")" {
			p.errf("expected )")
			return x
		}
		p.next()
		return &syntax.ParenTest{X: x}
	}
	if op, ok := testUnaryOps[p.cur]; ok && len(p.rem) > 0 {
		p.next()
		w := testWord(p.cur)
		p.next()
		return &syntax.UnaryTest{Op: op, X: w}
	}
	// a plain word, optionally followed by a binary operator
	x := testWord(p.cur)
	p.next()
	if p.eof {
		return x
	}
	if op, ok := testBinaryOps[p.cur]; ok {
		p.next()
		if p.eof {
			p.errf("%s must be followed by a word", op)
			return x
		}
		y := testWord(p.cur)
		p.next()
		return &syntax.BinaryTest{Op: op, X: x, Y: y}
	}
	return x
}

// bashTest evaluates a test expression, returning a non-empty string when
// it holds and "" when it does not, following the convention that the
// string result of the expression drives truthiness.
//
// classic is true for `test`/`[`, where `=`/`==` compare literally rather
// than as patterns.
func (r *Runner) bashTest(ctx context.Context, expr syntax.TestExpr, classic bool) string {
	truth := func(b bool) string {
		if b {
			return "1"
		}
		return ""
	}
	switch x := expr.(type) {
	case nil:
		return ""
	case *syntax.Word:
		return r.testStr(x)
	case *syntax.ParenTest:
		return r.bashTest(ctx, x.X, classic)
	case *syntax.UnaryTest:
		switch x.Op {
		case syntax.TsNot:
			return truth(r.bashTest(ctx, x.X, classic) == "")
		}
		operand := r.testOperand(x.X)
		switch x.Op {
		case syntax.TsEmpStr:
			return truth(operand == "")
		case syntax.TsNempStr:
			return truth(operand != "")
		case syntax.TsVarSet:
			return truth(r.lookupVar(operand).IsSet())
		case syntax.TsRefVar:
			vr := r.lookupVar(operand)
			return truth(vr.Kind == expand.NameRef)
		case syntax.TsOptSet:
			if _, opt := r.optByName(operand, false); opt != nil {
				return truth(*opt)
			}
			return ""
		case syntax.TsExists:
			_, err := r.stat(ctx, operand)
			return truth(err == nil)
		case syntax.TsRegFile:
			info, err := r.stat(ctx, operand)
			return truth(err == nil && info.Mode().IsRegular())
		case syntax.TsDirect:
			info, err := r.stat(ctx, operand)
			return truth(err == nil && info.IsDir())
		case syntax.TsSmbLink:
			info, err := r.lstat(ctx, operand)
			return truth(err == nil && info.Mode()&fs.ModeSymlink != 0)
		case syntax.TsNoEmpty:
			info, err := r.stat(ctx, operand)
			return truth(err == nil && info.Size() > 0)
		case syntax.TsRead:
			return truth(r.access(ctx, r.absPath(operand), access_R_OK) == nil)
		case syntax.TsWrite:
			return truth(r.access(ctx, r.absPath(operand), access_W_OK) == nil)
		case syntax.TsExec:
			return truth(r.access(ctx, r.absPath(operand), access_X_OK) == nil)
		case syntax.TsNmPipe, syntax.TsSocket, syntax.TsCharSp, syntax.TsBlckSp,
			syntax.TsSticky, syntax.TsGIDSet, syntax.TsUIDSet, syntax.TsGrpOwn,
			syntax.TsUsrOwn, syntax.TsModif, syntax.TsFdTerm:
			// none of these file kinds exist in the in-memory filesystem,
			// and there is no terminal
			return ""
		}
		return ""
	case *syntax.BinaryTest:
		switch x.Op {
		case syntax.AndTest:
			if r.bashTest(ctx, x.X, classic) == "" {
				return ""
			}
			return r.bashTest(ctx, x.Y, classic)
		case syntax.OrTest:
			if s := r.bashTest(ctx, x.X, classic); s != "" {
				return s
			}
			return r.bashTest(ctx, x.Y, classic)
		}
		lhs := r.testOperand(x.X)
		switch x.Op {
		case syntax.TsMatch, syntax.TsMatchShort, syntax.TsNoMatch:
			want := x.Op != syntax.TsNoMatch
			if classic {
				rhs := r.testOperand(x.Y)
				return truth((lhs == rhs) == want)
			}
			pat := r.pattern(x.Y.(*syntax.Word))
			return truth(match(pat, lhs) == want)
		case syntax.TsReMatch:
			rhs := r.testOperand(x.Y)
			rx, err := regexp.Compile(rhs)
			if err != nil {
				r.errf("invalid regex: %v\n", err)
				r.exit.code = 2
				return ""
			}
			return truth(rx.MatchString(lhs))
		case syntax.TsBefore:
			rhs := r.testOperand(x.Y)
			return truth(lhs < rhs)
		case syntax.TsAfter:
			rhs := r.testOperand(x.Y)
			return truth(lhs > rhs)
		case syntax.TsEql, syntax.TsNeq, syntax.TsLeq, syntax.TsGeq,
			syntax.TsLss, syntax.TsGtr:
			rhs := r.testOperand(x.Y)
			l, err1 := strconv.Atoi(lhs)
			rn, err2 := strconv.Atoi(rhs)
			if err1 != nil || err2 != nil {
				r.errf("integer expression expected\n")
				r.exit.code = 2
				return ""
			}
			switch x.Op {
			case syntax.TsEql:
				return truth(l == rn)
			case syntax.TsNeq:
				return truth(l != rn)
			case syntax.TsLeq:
				return truth(l <= rn)
			case syntax.TsGeq:
				return truth(l >= rn)
			case syntax.TsLss:
				return truth(l < rn)
			default:
				return truth(l > rn)
			}
		case syntax.TsNewer, syntax.TsOlder:
			rhs := r.testOperand(x.Y)
			i1, err1 := r.stat(ctx, lhs)
			i2, err2 := r.stat(ctx, rhs)
			if err1 != nil || err2 != nil {
				return ""
			}
			if x.Op == syntax.TsNewer {
				return truth(i1.ModTime().After(i2.ModTime()))
			}
			return truth(i1.ModTime().Before(i2.ModTime()))
		case syntax.TsDevIno:
			rhs := r.testOperand(x.Y)
			return truth(r.absPath(lhs) == r.absPath(rhs))
		}
		return ""
	}
	return ""
}

// testOperand resolves a test operand to its string value; only words can
// be operands.
func (r *Runner) testOperand(e syntax.TestExpr) string {
	if w, ok := e.(*syntax.Word); ok {
		return r.testStr(w)
	}
	return ""
}

// testStr resolves a test operand word to its string value. Words built by
// testParser from already-expanded argv strings are used verbatim; words
// from a [[ ]] clause go through the usual expansion.
func (r *Runner) testStr(w *syntax.Word) string {
	if w == nil {
		return ""
	}
	if len(w.Parts) == 1 {
		if lit, ok := w.Parts[0].(*syntax.Lit); ok && lit.ValuePos == (syntax.Pos{}) {
			return lit.Value
		}
	}
	return r.literal(w)
}
