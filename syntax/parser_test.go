// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strings"
	"testing"
)

func parseString(t *testing.T, src string) *File {
	t.Helper()
	f, err := NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return f
}

func firstCmd(t *testing.T, src string) Command {
	t.Helper()
	f := parseString(t, src)
	if len(f.Stmts) == 0 {
		t.Fatalf("parsing %q produced no statements", src)
	}
	return f.Stmts[0].Cmd
}

func TestParseSimpleCommand(t *testing.T) {
	t.Parallel()
	ce, ok := firstCmd(t, "echo foo bar").(*CallExpr)
	if !ok {
		t.Fatalf("wanted *CallExpr")
	}
	if len(ce.Args) != 3 {
		t.Fatalf("wanted 3 args, got %d", len(ce.Args))
	}
	for i, want := range []string{"echo", "foo", "bar"} {
		if got := ce.Args[i].Lit(); got != want {
			t.Errorf("arg %d: wanted %q, got %q", i, want, got)
		}
	}
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()
	ce := firstCmd(t, "a=1 b=2 cmd").(*CallExpr)
	if len(ce.Assigns) != 2 {
		t.Fatalf("wanted 2 assigns, got %d", len(ce.Assigns))
	}
	if ce.Assigns[0].Name.Value != "a" || ce.Assigns[1].Name.Value != "b" {
		t.Fatalf("wrong assign names: %q, %q", ce.Assigns[0].Name.Value, ce.Assigns[1].Name.Value)
	}
	if len(ce.Args) != 1 || ce.Args[0].Lit() != "cmd" {
		t.Fatalf("wanted single arg %q", "cmd")
	}
}

func TestParseAppendAssign(t *testing.T) {
	t.Parallel()
	ce := firstCmd(t, "a+=x").(*CallExpr)
	if len(ce.Assigns) != 1 || !ce.Assigns[0].Append {
		t.Fatalf("wanted a single append assign")
	}
}

func TestParsePipelineAndList(t *testing.T) {
	t.Parallel()
	bc := firstCmd(t, "a | b && c").(*BinaryCmd)
	if bc.Op != AndStmt {
		t.Fatalf("outer op: wanted &&, got %s", bc.Op)
	}
	pipe, ok := bc.X.Cmd.(*BinaryCmd)
	if !ok || pipe.Op != Pipe {
		t.Fatalf("left side should be a pipeline")
	}
}

func TestParseNegatedPipeline(t *testing.T) {
	t.Parallel()
	f := parseString(t, "! false")
	if !f.Stmts[0].Negated {
		t.Fatalf("statement should be negated")
	}
}

func TestParseBackground(t *testing.T) {
	t.Parallel()
	f := parseString(t, "sleep 1 &")
	if !f.Stmts[0].Background {
		t.Fatalf("statement should be backgrounded")
	}
}

func TestParseRedirects(t *testing.T) {
	t.Parallel()
	f := parseString(t, "cmd >out 2>err <in")
	rd := f.Stmts[0].Redirs
	if len(rd) != 3 {
		t.Fatalf("wanted 3 redirects, got %d", len(rd))
	}
	if rd[0].Op != RdrOut || rd[1].Op != RdrOut || rd[2].Op != RdrIn {
		t.Fatalf("wrong redirect ops: %s %s %s", rd[0].Op, rd[1].Op, rd[2].Op)
	}
	if rd[1].N == nil || rd[1].N.Value != "2" {
		t.Fatalf("second redirect should have fd 2")
	}
}

func TestParseHeredoc(t *testing.T) {
	t.Parallel()
	f := parseString(t, "cat <<EOF\nhello\nworld\nEOF\n")
	rd := f.Stmts[0].Redirs
	if len(rd) != 1 || rd[0].Op != Hdoc {
		t.Fatalf("wanted a heredoc redirect")
	}
	if got := rd[0].Hdoc.Lit(); got != "hello\nworld" {
		t.Fatalf("heredoc body: got %q", got)
	}
}

func TestParseQuotedHeredocSuppressesExpansion(t *testing.T) {
	t.Parallel()
	f := parseString(t, "cat <<'EOF'\n$x\nEOF\n")
	rd := f.Stmts[0].Redirs
	if got := rd[0].Hdoc.Lit(); got != "$x" {
		t.Fatalf("quoted heredoc body: got %q", got)
	}
}

func TestParseIfElifElse(t *testing.T) {
	t.Parallel()
	ic := firstCmd(t, "if a; then b; elif c; then d; else e; fi").(*IfClause)
	if len(ic.Cond) != 1 || len(ic.Then) != 1 {
		t.Fatalf("if clause misparsed")
	}
	elf := ic.Else
	if elf == nil || len(elf.Cond) != 1 {
		t.Fatalf("elif missing")
	}
	els := elf.Else
	if els == nil || len(els.Cond) != 0 || len(els.Then) != 1 {
		t.Fatalf("else missing")
	}
}

func TestParseWhileUntil(t *testing.T) {
	t.Parallel()
	wc := firstCmd(t, "while a; do b; done").(*WhileClause)
	if wc.Until {
		t.Fatalf("while parsed as until")
	}
	uc := firstCmd(t, "until a; do b; done").(*WhileClause)
	if !uc.Until {
		t.Fatalf("until parsed as while")
	}
}

func TestParseForWords(t *testing.T) {
	t.Parallel()
	fc := firstCmd(t, "for i in a b c; do echo $i; done").(*ForClause)
	it := fc.Loop.(*WordIter)
	if it.Name.Value != "i" || len(it.Items) != 3 {
		t.Fatalf("for loop misparsed: name=%q items=%d", it.Name.Value, len(it.Items))
	}
}

func TestParseCStyleFor(t *testing.T) {
	t.Parallel()
	fc := firstCmd(t, "for ((i = 0; i < 3; i++)); do echo; done").(*ForClause)
	loop := fc.Loop.(*CStyleLoop)
	if loop.Init == nil || loop.Cond == nil || loop.Post == nil {
		t.Fatalf("c-style loop misparsed: %#v", loop)
	}
	if _, ok := loop.Post.(*UnaryArithm); !ok {
		t.Fatalf("post should be i++")
	}
}

func TestParseCase(t *testing.T) {
	t.Parallel()
	cc := firstCmd(t, "case $x in a|b) echo one ;; *) echo two ;; esac").(*CaseClause)
	if len(cc.Items) != 2 {
		t.Fatalf("wanted 2 case items, got %d", len(cc.Items))
	}
	if len(cc.Items[0].Patterns) != 2 {
		t.Fatalf("first item should have 2 patterns")
	}
}

func TestParseFuncDecls(t *testing.T) {
	t.Parallel()
	fd := firstCmd(t, "foo() { bar; }").(*FuncDecl)
	if fd.Name.Value != "foo" || fd.RsrvWord {
		t.Fatalf("posix function decl misparsed")
	}
	fd2 := firstCmd(t, "function foo { bar; }").(*FuncDecl)
	if fd2.Name.Value != "foo" || !fd2.RsrvWord {
		t.Fatalf("function-keyword decl misparsed")
	}
}

func TestParseSubshellAndBlock(t *testing.T) {
	t.Parallel()
	if _, ok := firstCmd(t, "(a; b)").(*Subshell); !ok {
		t.Fatalf("wanted *Subshell")
	}
	if _, ok := firstCmd(t, "{ a; b; }").(*Block); !ok {
		t.Fatalf("wanted *Block")
	}
}

func TestParseArithmCmd(t *testing.T) {
	t.Parallel()
	ac := firstCmd(t, "((x > 2))").(*ArithmCmd)
	ba, ok := ac.X.(*BinaryArithm)
	if !ok || ba.Op != Gtr {
		t.Fatalf("arithmetic command misparsed")
	}
}

func TestParseTestClause(t *testing.T) {
	t.Parallel()
	tc := firstCmd(t, "[[ -f file && $x == y* ]]").(*TestClause)
	bt, ok := tc.X.(*BinaryTest)
	if !ok || bt.Op != AndTest {
		t.Fatalf("test clause misparsed: %#v", tc.X)
	}
	ut, ok := bt.X.(*UnaryTest)
	if !ok || ut.Op != TsRegFile {
		t.Fatalf("left side should be -f")
	}
	mt, ok := bt.Y.(*BinaryTest)
	if !ok || mt.Op != TsMatch {
		t.Fatalf("right side should be a pattern match")
	}
}

func TestParseDeclClause(t *testing.T) {
	t.Parallel()
	dc := firstCmd(t, "declare -x foo=bar").(*DeclClause)
	if dc.Variant.Value != "declare" || len(dc.Args) != 2 {
		t.Fatalf("declare misparsed: %#v", dc)
	}
	if dc.Args[1].Name.Value != "foo" {
		t.Fatalf("assignment name: got %q", dc.Args[1].Name.Value)
	}
}

func TestParseParamExpansions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src   string
		check func(pe *ParamExp) bool
	}{
		{`${a}`, func(pe *ParamExp) bool { return pe.Param.Value == "a" && pe.Exp == nil }},
		{`${a:-b}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == SubstColMinus }},
		{`${a-b}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == SubstMinus }},
		{`${a:?msg}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == SubstColQuest }},
		{`${#a}`, func(pe *ParamExp) bool { return pe.Length }},
		{`${a#pre}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == RemSmallPrefix }},
		{`${a##pre}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == RemLargePrefix }},
		{`${a%suf}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == RemSmallSuffix }},
		{`${a%%suf}`, func(pe *ParamExp) bool { return pe.Exp != nil && pe.Exp.Op == RemLargeSuffix }},
		{`${a/b/c}`, func(pe *ParamExp) bool { return pe.Repl != nil && !pe.Repl.All }},
		{`${a//b/c}`, func(pe *ParamExp) bool { return pe.Repl != nil && pe.Repl.All }},
		{`${a:1:2}`, func(pe *ParamExp) bool { return pe.Slice != nil && pe.Slice.Length != nil }},
		{`${!a}`, func(pe *ParamExp) bool { return pe.Excl }},
		{`${a[1]}`, func(pe *ParamExp) bool { return pe.Index != nil }},
	}
	for _, tc := range tests {
		ce, ok := firstCmd(t, "echo "+tc.src).(*CallExpr)
		if !ok || len(ce.Args) != 2 {
			t.Fatalf("parsing %q: unexpected shape", tc.src)
		}
		pe, ok := ce.Args[1].Parts[0].(*ParamExp)
		if !ok {
			t.Fatalf("parsing %q: wanted *ParamExp, got %T", tc.src, ce.Args[1].Parts[0])
		}
		if !tc.check(pe) {
			t.Errorf("parsing %q: check failed on %#v", tc.src, pe)
		}
	}
}

func TestParseCmdSubstShortcut(t *testing.T) {
	t.Parallel()
	// `$(<file)` parses as a lone redirect with no command
	ce := firstCmd(t, "echo $(<file)").(*CallExpr)
	cs := ce.Args[1].Parts[0].(*CmdSubst)
	if len(cs.Stmts) != 1 || cs.Stmts[0].Cmd != nil || len(cs.Stmts[0].Redirs) != 1 {
		t.Fatalf("cat shortcut misparsed: %#v", cs.Stmts[0])
	}
}

func TestParseBackquotes(t *testing.T) {
	t.Parallel()
	ce := firstCmd(t, "echo `date`").(*CallExpr)
	cs, ok := ce.Args[1].Parts[0].(*CmdSubst)
	if !ok || !cs.Backquotes {
		t.Fatalf("backquotes misparsed")
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"if true; then echo",
		"while x; do y",
		"'unclosed",
		`"unclosed`,
		"echo ${",
		"case x in",
		"(",
	} {
		_, err := NewParser().Parse(strings.NewReader(src), "")
		if err == nil {
			t.Errorf("parsing %q should fail", src)
			continue
		}
		if _, ok := err.(ParseError); !ok {
			t.Errorf("parsing %q: wanted ParseError, got %T", src, err)
		}
	}
}

func TestParsePositions(t *testing.T) {
	t.Parallel()
	f := parseString(t, "echo foo\necho bar")
	if got := f.Stmts[0].Pos().Line(); got != 1 {
		t.Fatalf("first stmt line: wanted 1, got %d", got)
	}
	if got := f.Stmts[1].Pos().Line(); got != 2 {
		t.Fatalf("second stmt line: wanted 2, got %d", got)
	}
}

func TestWordsSeq(t *testing.T) {
	t.Parallel()
	p := NewParser()
	var words []string
	for w, err := range p.WordsSeq(strings.NewReader("ls -l 'a b'")) {
		if err != nil {
			t.Fatal(err)
		}
		words = append(words, printString(t, w))
	}
	want := []string{"ls", "-l", "'a b'"}
	if len(words) != len(want) {
		t.Fatalf("wanted %d words, got %v", len(want), words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d: wanted %q, got %q", i, want[i], words[i])
		}
	}
}
