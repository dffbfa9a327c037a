package jqlang

import "fmt"

// parser builds a Filter tree from jq source text using a recursive-descent
// scheme with explicit precedence climbing for the binary operators, the
// same shape as awk's parser but over jq's postfix-chaining path grammar
// (`.foo[0][]?`) instead of C-like statements.
type parser struct {
	lex *lexer
}

// Parse compiles a jq filter expression such as `.foo | .bar[0]`.
func Parse(src string) (f Filter, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				err = fmt.Errorf("jq: %s", pe.msg)
				return
			}
			panic(r)
		}
	}()
	p := &parser{lex: newLexer(src)}
	p.lex.next()
	f = p.parsePipe()
	p.expect(tEOF)
	return f, nil
}

type parseError struct{ msg string }

func (p *parser) fail(format string, args ...interface{}) {
	panic(parseError{fmt.Sprintf(format, args...)})
}

func (p *parser) expect(t token) {
	if p.lex.tok == tError {
		p.fail("%s", p.lex.val)
	}
	if p.lex.tok != t {
		p.fail("unexpected token near %q", p.lex.val)
	}
	p.lex.next()
}

func (p *parser) at(t token) bool { return p.lex.tok == t }

// parsePipe handles the lowest-precedence combinator: `a | b`.
func (p *parser) parsePipe() Filter {
	left := p.parseComma()
	for p.at(tPipe) {
		p.lex.next()
		right := p.parseComma()
		left = Pipe{Left: left, Right: right}
	}
	return left
}

// parseComma handles `a, b`, binding tighter than `|` but looser than
// everything else, matching jq's own grammar precedence.
func (p *parser) parseComma() Filter {
	left := p.parseOr()
	for p.at(tComma) {
		p.lex.next()
		right := p.parseOr()
		left = Comma{Left: left, Right: right}
	}
	return left
}

func (p *parser) parseOr() Filter {
	left := p.parseAnd()
	for p.at(tOr) {
		p.lex.next()
		right := p.parseAnd()
		left = BinOp{Op: "or", Left: left, Right: right}
	}
	return left
}

func (p *parser) parseAnd() Filter {
	left := p.parseAlt()
	for p.at(tAnd) {
		p.lex.next()
		right := p.parseAlt()
		left = BinOp{Op: "and", Left: left, Right: right}
	}
	return left
}

// parseAlt handles jq's `//` alternative operator (use right side when left
// produces no truthy values).
func (p *parser) parseAlt() Filter {
	left := p.parseCompare()
	for p.at(tAlt) {
		p.lex.next()
		right := p.parseCompare()
		left = BinOp{Op: "//", Left: left, Right: right}
	}
	return left
}

func (p *parser) parseCompare() Filter {
	left := p.parseAdd()
	for {
		var op string
		switch p.lex.tok {
		case tEq:
			op = "=="
		case tNe:
			op = "!="
		case tLt:
			op = "<"
		case tLe:
			op = "<="
		case tGt:
			op = ">"
		case tGe:
			op = ">="
		default:
			return left
		}
		p.lex.next()
		right := p.parseAdd()
		left = BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdd() Filter {
	left := p.parseMul()
	for p.at(tPlus) || p.at(tMinus) {
		op := "+"
		if p.at(tMinus) {
			op = "-"
		}
		p.lex.next()
		right := p.parseMul()
		left = BinOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseMul() Filter {
	left := p.parseUnary()
	for p.at(tStar) || p.at(tSlash) || p.at(tPercent) {
		var op string
		switch p.lex.tok {
		case tStar:
			op = "*"
		case tSlash:
			op = "/"
		case tPercent:
			op = "%"
		}
		p.lex.next()
		right := p.parseUnary()
		left = BinOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseUnary() Filter {
	if p.at(tMinus) {
		p.lex.next()
		x := p.parseUnary()
		return BinOp{Op: "-", Left: Literal{Value: 0.0}, Right: x}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary filter followed by any chain of
// `.foo`, `[...]`, `[]`, and trailing `?` suffixes.
func (p *parser) parsePostfix() Filter {
	f := p.parsePrimary()
	for {
		switch {
		case p.at(tField):
			name := p.lex.val
			p.lex.next()
			opt := p.eatOptional()
			f = Field{Base: f, Name: name, Optional: opt}
		case p.at(tDot):
			p.lex.next()
			if p.at(tLbracket) {
				f = p.parseBracket(f)
			} else if p.at(tIdent) || isKeywordTok(p.lex.tok) {
				name := p.lex.val
				p.lex.next()
				opt := p.eatOptional()
				f = Field{Base: f, Name: name, Optional: opt}
			} else {
				p.fail("expected field name after '.'")
			}
		case p.at(tLbracket):
			f = p.parseBracket(f)
		case p.at(tQuestion):
			p.lex.next()
			f = wrapOptional(f)
		default:
			return f
		}
	}
}

func isKeywordTok(t token) bool {
	switch t {
	case tAnd, tOr, tNot, tIf, tThen, tElif, tElse, tEnd:
		return true
	}
	return false
}

func (p *parser) eatOptional() bool {
	if p.at(tQuestion) {
		p.lex.next()
		return true
	}
	return false
}

// wrapOptional marks the outermost access node of f as optional, used for
// the postfix `?` form (`.foo?`) as opposed to the inline form
// (`.foo?.bar`, where `?` attaches directly to the preceding access).
func wrapOptional(f Filter) Filter {
	switch x := f.(type) {
	case Field:
		x.Optional = true
		return x
	case Index:
		x.Optional = true
		return x
	case IterateAll:
		x.Optional = true
		return x
	case Slice:
		x.Optional = true
		return x
	default:
		return f
	}
}

// parseBracket parses `[expr]`, `[expr:expr]`, `[:expr]`, `[expr:]`, or
// `[]` (iterate-all) following base.
func (p *parser) parseBracket(base Filter) Filter {
	p.expect(tLbracket)
	if p.at(tRbracket) {
		p.lex.next()
		opt := p.eatOptional()
		return IterateAll{Base: base, Optional: opt}
	}
	if p.at(tColon) {
		p.lex.next()
		to := p.parsePipe()
		p.expect(tRbracket)
		opt := p.eatOptional()
		return Slice{Base: base, From: nil, To: to, Optional: opt}
	}
	first := p.parsePipe()
	if p.at(tColon) {
		p.lex.next()
		if p.at(tRbracket) {
			p.lex.next()
			opt := p.eatOptional()
			return Slice{Base: base, From: first, To: nil, Optional: opt}
		}
		to := p.parsePipe()
		p.expect(tRbracket)
		opt := p.eatOptional()
		return Slice{Base: base, From: first, To: to, Optional: opt}
	}
	p.expect(tRbracket)
	opt := p.eatOptional()
	return Index{Base: base, IndexOf: first, Optional: opt}
}

func (p *parser) parsePrimary() Filter {
	switch p.lex.tok {
	case tDot:
		p.lex.next()
		if p.at(tLbracket) {
			return p.parseBracket(nil)
		}
		return Identity{}
	case tField:
		name := p.lex.val
		p.lex.next()
		opt := p.eatOptional()
		return Field{Base: nil, Name: name, Optional: opt}
	case tNumber:
		n := p.lex.num
		p.lex.next()
		return Literal{Value: n}
	case tString:
		s := p.lex.val
		p.lex.next()
		return Literal{Value: s}
	case tLparen:
		p.lex.next()
		f := p.parsePipe()
		p.expect(tRparen)
		return f
	case tLbracket:
		p.lex.next()
		if p.at(tRbracket) {
			p.lex.next()
			return ArrayConstruct{Body: nil}
		}
		body := p.parsePipe()
		p.expect(tRbracket)
		return ArrayConstruct{Body: body}
	case tLbrace:
		return p.parseObjectConstruct()
	case tNot:
		p.lex.next()
		return FuncCall{Name: "not"}
	case tIf:
		return p.parseIf()
	case tIdent:
		return p.parseFuncCall()
	default:
		p.fail("unexpected token near %q", p.lex.val)
		return nil
	}
}

func (p *parser) parseIf() Filter {
	p.expect(tIf)
	cond := p.parsePipe()
	p.expect(tThen)
	then := p.parsePipe()
	return p.parseIfTail(cond, then)
}

func (p *parser) parseIfTail(cond, then Filter) Filter {
	switch p.lex.tok {
	case tElif:
		p.lex.next()
		elifCond := p.parsePipe()
		p.expect(tThen)
		elifThen := p.parsePipe()
		elseBranch := p.parseIfTail(elifCond, elifThen)
		return IfExpr{Cond: cond, Then: then, Else: elseBranch}
	case tElse:
		p.lex.next()
		elseBranch := p.parsePipe()
		p.expect(tEnd)
		return IfExpr{Cond: cond, Then: then, Else: elseBranch}
	case tEnd:
		p.lex.next()
		return IfExpr{Cond: cond, Then: then, Else: Identity{}}
	default:
		p.fail("expected elif/else/end in if expression")
		return nil
	}
}

func (p *parser) parseObjectConstruct() Filter {
	p.expect(tLbrace)
	var entries []ObjectEntry
	if !p.at(tRbrace) {
		entries = append(entries, p.parseObjectEntry())
		for p.at(tComma) {
			p.lex.next()
			entries = append(entries, p.parseObjectEntry())
		}
	}
	p.expect(tRbrace)
	return ObjectConstruct{Entries: entries}
}

func (p *parser) parseObjectEntry() ObjectEntry {
	var key string
	var keyExpr Filter
	switch {
	case p.at(tIdent):
		key = p.lex.val
		p.lex.next()
	case p.at(tString):
		key = p.lex.val
		p.lex.next()
	case p.at(tLparen):
		p.lex.next()
		keyExpr = p.parsePipe()
		p.expect(tRparen)
	default:
		p.fail("expected object key near %q", p.lex.val)
	}
	if p.at(tColon) {
		p.lex.next()
		val := p.parseAlt()
		return ObjectEntry{KeyExpr: keyExpr, KeyName: key, ValExpr: val}
	}
	if keyExpr != nil {
		p.fail("object key expression requires a value")
	}
	return ObjectEntry{KeyName: key, ValExpr: Field{Base: nil, Name: key}}
}

func (p *parser) parseFuncCall() Filter {
	name := p.lex.val
	p.lex.next()
	if !p.at(tLparen) {
		return FuncCall{Name: name}
	}
	p.lex.next()
	var args []Filter
	args = append(args, p.parsePipe())
	for p.at(tComma) {
		p.lex.next()
		args = append(args, p.parsePipe())
	}
	p.expect(tRparen)
	return FuncCall{Name: name, Args: args}
}
