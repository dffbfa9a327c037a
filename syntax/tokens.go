// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// token is the set of lexical tokens the scanner can produce. The parser
// never exposes these directly; word parts and operators reach the AST as
// the typed operator enums further below.
type token uint32

const (
	illegalTok token = iota

	_EOF
	_Newl
	_Lit
	_LitWord // a literal that was followed by a delimiter
	_LitRedir

	sglQuote // '
	dblQuote // "
	bckQuote // `

	and    // &
	andAnd // &&
	orOr   // ||
	or     // |
	orAnd  // |&

	dollar       // $
	dollSglQuote // $'
	dollDblQuote // $"
	dollBrace    // ${
	dollBrack    // $[
	dollParen    // $(
	dollDblParen // $((
	leftBrack    // [
	dblLeftBrack // [[
	leftParen    // (
	dblLeftParen // ((

	rightBrace    // }
	rightBrack    // ]
	rightParen    // )
	dblRightParen // ))
	semicolon     // ;

	dblSemicolon // ;;
	semiAnd      // ;&
	dblSemiAnd   // ;;&
	semiOr       // ;|

	exclMark // !
	tilde    // ~
	addAdd   // ++
	subSub   // --
	star     // *
	power    // **
	equal    // ==
	nequal   // !=
	lequal   // <=
	gequal   // >=

	addAssgn // +=
	subAssgn // -=
	mulAssgn // *=
	quoAssgn // /=
	remAssgn // %=
	andAssgn // &=
	orAssgn  // |=
	xorAssgn // ^=
	shlAssgn // <<=
	shrAssgn // >>=

	rdrOut   // >
	appOut   // >>
	rdrIn    // <
	rdrInOut // <>
	dplIn    // <&
	dplOut   // >&
	clbOut   // >|
	hdoc     // <<
	dashHdoc // <<-
	wordHdoc // <<<
	rdrAll   // &>
	appAll   // &>>

	cmdIn  // <(
	cmdOut // >(

	plus     // +
	colPlus  // :+
	minus    // -
	colMinus // :-
	quest    // ?
	colQuest // :?
	assgn    // =
	colAssgn // :=
	perc     // %
	dblPerc  // %%
	hash     // #
	dblHash  // ##
	caret    // ^
	dblCaret // ^^
	comma    // ,
	dblComma // ,,
	at       // @
	slash    // /
	dblSlash // //
	colon    // :

	tsExists  // -e
	tsRegFile // -f
	tsDirect  // -d
	tsCharSp  // -c
	tsBlckSp  // -b
	tsNmPipe  // -p
	tsSocket  // -S
	tsSmbLink // -L
	tsSticky  // -k
	tsGIDSet  // -g
	tsUIDSet  // -u
	tsGrpOwn  // -G
	tsUsrOwn  // -O
	tsModif   // -N
	tsRead    // -r
	tsWrite   // -w
	tsExec    // -x
	tsNoEmpty // -s
	tsFdTerm  // -t
	tsEmpStr  // -z
	tsNempStr // -n
	tsOptSet  // -o
	tsVarSet  // -v
	tsRefVar  // -R

	tsReMatch // =~
	tsNewer   // -nt
	tsOlder   // -ot
	tsDevIno  // -ef
	tsEql     // -eq
	tsNeq     // -ne
	tsLeq     // -le
	tsGeq     // -ge
	tsLss     // -lt
	tsGtr     // -gt

	globQuest // ?(
	globStar  // *(
	globPlus  // +(
	globAt    // @(
	globExcl  // !(
)

// RedirOperator is a redirection operator such as `>` or `<<`.
type RedirOperator uint32

const (
	RdrOut   = RedirOperator(rdrOut)   // >
	AppOut   = RedirOperator(appOut)   // >>
	RdrIn    = RedirOperator(rdrIn)    // <
	RdrInOut = RedirOperator(rdrInOut) // <>
	DplIn    = RedirOperator(dplIn)    // <&
	DplOut   = RedirOperator(dplOut)   // >&
	ClbOut   = RedirOperator(clbOut)   // >|
	Hdoc     = RedirOperator(hdoc)     // <<
	DashHdoc = RedirOperator(dashHdoc) // <<-
	WordHdoc = RedirOperator(wordHdoc) // <<<
	RdrAll   = RedirOperator(rdrAll)   // &>
	AppAll   = RedirOperator(appAll)   // &>>
)

// ProcOperator is a process substitution operator: `<(` or `>(`.
type ProcOperator uint32

const (
	CmdIn  = ProcOperator(cmdIn)  // <(
	CmdOut = ProcOperator(cmdOut) // >(
)

// BinCmdOperator joins two commands, as in a pipeline or an and-or list.
type BinCmdOperator uint32

const (
	AndStmt = BinCmdOperator(andAnd) // &&
	OrStmt  = BinCmdOperator(orOr)   // ||
	Pipe    = BinCmdOperator(or)     // |
	PipeAll = BinCmdOperator(orAnd)  // |&
)

// CaseOperator ends one pattern list within a case clause.
type CaseOperator uint32

const (
	Break       = CaseOperator(dblSemicolon) // ;;
	Fallthrough = CaseOperator(semiAnd)      // ;&
	Resume      = CaseOperator(dblSemiAnd)   // ;;&
	ResumeKorn  = CaseOperator(semiOr)       // ;|
)

// ParNamesOperator selects a names-matching form of `${!prefix*}`.
type ParNamesOperator uint32

const (
	NamesPrefix      = ParNamesOperator(star) // *
	NamesPrefixWords = ParNamesOperator(at)   // @
)

// ParExpOperator is a parameter expansion operator, such as the `:-` in
// `${a:-b}`.
type ParExpOperator uint32

const (
	SubstPlus     = ParExpOperator(plus)     // +
	SubstColPlus  = ParExpOperator(colPlus)  // :+
	SubstMinus    = ParExpOperator(minus)    // -
	SubstColMinus = ParExpOperator(colMinus) // :-
	SubstQuest    = ParExpOperator(quest)    // ?
	SubstColQuest = ParExpOperator(colQuest) // :?
	SubstAssgn    = ParExpOperator(assgn)    // =
	SubstColAssgn = ParExpOperator(colAssgn) // :=

	RemSmallSuffix = ParExpOperator(perc)    // %
	RemLargeSuffix = ParExpOperator(dblPerc) // %%
	RemSmallPrefix = ParExpOperator(hash)    // #
	RemLargePrefix = ParExpOperator(dblHash) // ##

	UpperFirst = ParExpOperator(caret)    // ^
	UpperAll   = ParExpOperator(dblCaret) // ^^
	LowerFirst = ParExpOperator(comma)    // ,
	LowerAll   = ParExpOperator(dblComma) // ,,

	OtherParamOps = ParExpOperator(at) // @
)

// UnAritOperator is a unary arithmetic operator.
type UnAritOperator uint32

const (
	Not         = UnAritOperator(exclMark) // !
	BitNegation = UnAritOperator(tilde)    // ~
	Inc         = UnAritOperator(addAdd)   // ++
	Dec         = UnAritOperator(subSub)   // --
	Plus        = UnAritOperator(plus)     // +
	Minus       = UnAritOperator(minus)    // -
)

// BinAritOperator is a binary arithmetic operator.
type BinAritOperator uint32

const (
	Add = BinAritOperator(plus)   // +
	Sub = BinAritOperator(minus)  // -
	Mul = BinAritOperator(star)   // *
	Quo = BinAritOperator(slash)  // /
	Rem = BinAritOperator(perc)   // %
	Pow = BinAritOperator(power)  // **
	Eql = BinAritOperator(equal)  // ==
	Gtr = BinAritOperator(rdrOut) // >
	Lss = BinAritOperator(rdrIn)  // <
	Neq = BinAritOperator(nequal) // !=
	Leq = BinAritOperator(lequal) // <=
	Geq = BinAritOperator(gequal) // >=
	And = BinAritOperator(and)    // &
	Or  = BinAritOperator(or)     // |
	Xor = BinAritOperator(caret)  // ^
	Shr = BinAritOperator(appOut) // >>
	Shl = BinAritOperator(hdoc)   // <<

	AndArit   = BinAritOperator(andAnd) // &&
	OrArit    = BinAritOperator(orOr)   // ||
	Comma     = BinAritOperator(comma)  // ,
	TernQuest = BinAritOperator(quest)  // ?
	TernColon = BinAritOperator(colon)  // :

	Assgn    = BinAritOperator(assgn)    // =
	AddAssgn = BinAritOperator(addAssgn) // +=
	SubAssgn = BinAritOperator(subAssgn) // -=
	MulAssgn = BinAritOperator(mulAssgn) // *=
	QuoAssgn = BinAritOperator(quoAssgn) // /=
	RemAssgn = BinAritOperator(remAssgn) // %=
	AndAssgn = BinAritOperator(andAssgn) // &=
	OrAssgn  = BinAritOperator(orAssgn)  // |=
	XorAssgn = BinAritOperator(xorAssgn) // ^=
	ShlAssgn = BinAritOperator(shlAssgn) // <<=
	ShrAssgn = BinAritOperator(shrAssgn) // >>=
)

// UnTestOperator is a unary test operator within `[[ ]]` or `test`.
type UnTestOperator uint32

const (
	TsExists  = UnTestOperator(tsExists)  // -e
	TsRegFile = UnTestOperator(tsRegFile) // -f
	TsDirect  = UnTestOperator(tsDirect)  // -d
	TsCharSp  = UnTestOperator(tsCharSp)  // -c
	TsBlckSp  = UnTestOperator(tsBlckSp)  // -b
	TsNmPipe  = UnTestOperator(tsNmPipe)  // -p
	TsSocket  = UnTestOperator(tsSocket)  // -S
	TsSmbLink = UnTestOperator(tsSmbLink) // -L
	TsSticky  = UnTestOperator(tsSticky)  // -k
	TsGIDSet  = UnTestOperator(tsGIDSet)  // -g
	TsUIDSet  = UnTestOperator(tsUIDSet)  // -u
	TsGrpOwn  = UnTestOperator(tsGrpOwn)  // -G
	TsUsrOwn  = UnTestOperator(tsUsrOwn)  // -O
	TsModif   = UnTestOperator(tsModif)   // -N
	TsRead    = UnTestOperator(tsRead)    // -r
	TsWrite   = UnTestOperator(tsWrite)   // -w
	TsExec    = UnTestOperator(tsExec)    // -x
	TsNoEmpty = UnTestOperator(tsNoEmpty) // -s
	TsFdTerm  = UnTestOperator(tsFdTerm)  // -t
	TsEmpStr  = UnTestOperator(tsEmpStr)  // -z
	TsNempStr = UnTestOperator(tsNempStr) // -n
	TsOptSet  = UnTestOperator(tsOptSet)  // -o
	TsVarSet  = UnTestOperator(tsVarSet)  // -v
	TsRefVar  = UnTestOperator(tsRefVar)  // -R
	TsNot     = UnTestOperator(exclMark)  // !
)

// BinTestOperator is a binary test operator within `[[ ]]` or `test`.
type BinTestOperator uint32

const (
	TsReMatch    = BinTestOperator(tsReMatch) // =~
	TsNewer      = BinTestOperator(tsNewer)   // -nt
	TsOlder      = BinTestOperator(tsOlder)   // -ot
	TsDevIno     = BinTestOperator(tsDevIno)  // -ef
	TsEql        = BinTestOperator(tsEql)     // -eq
	TsNeq        = BinTestOperator(tsNeq)     // -ne
	TsLeq        = BinTestOperator(tsLeq)     // -le
	TsGeq        = BinTestOperator(tsGeq)     // -ge
	TsLss        = BinTestOperator(tsLss)     // -lt
	TsGtr        = BinTestOperator(tsGtr)     // -gt
	AndTest      = BinTestOperator(andAnd)    // &&
	OrTest       = BinTestOperator(orOr)      // ||
	TsMatchShort = BinTestOperator(assgn)     // =
	TsMatch      = BinTestOperator(equal)     // ==
	TsNoMatch    = BinTestOperator(nequal)    // !=
	TsBefore     = BinTestOperator(rdrIn)     // <
	TsAfter      = BinTestOperator(rdrOut)    // >
)

// GlobOperator opens an extended globbing group, such as `+(` in `+(foo)`.
type GlobOperator uint32

const (
	GlobZeroOrOne  = GlobOperator(globQuest) // ?(
	GlobZeroOrMore = GlobOperator(globStar)  // *(
	GlobOneOrMore  = GlobOperator(globPlus)  // +(
	GlobOne        = GlobOperator(globAt)    // @(
	GlobExcept     = GlobOperator(globExcl)  // !(
)

var tokNames = map[token]string{
	illegalTok: "illegal",
	_EOF:       "EOF",
	_Newl:      "newline",
	_Lit:       "literal",
	_LitWord:   "literal",
	_LitRedir:  "literal",

	sglQuote: "'",
	dblQuote: `"`,
	bckQuote: "`",

	and:    "&",
	andAnd: "&&",
	orOr:   "||",
	or:     "|",
	orAnd:  "|&",

	dollar:       "$",
	dollSglQuote: "$'",
	dollDblQuote: `$"`,
	dollBrace:    "${",
	dollBrack:    "$[",
	dollParen:    "$(",
	dollDblParen: "$((",
	leftBrack:    "[",
	dblLeftBrack: "[[",
	leftParen:    "(",
	dblLeftParen: "((",

	rightBrace:    "}",
	rightBrack:    "]",
	rightParen:    ")",
	dblRightParen: "))",
	semicolon:     ";",

	dblSemicolon: ";;",
	semiAnd:      ";&",
	dblSemiAnd:   ";;&",
	semiOr:       ";|",

	exclMark: "!",
	tilde:    "~",
	addAdd:   "++",
	subSub:   "--",
	star:     "*",
	power:    "**",
	equal:    "==",
	nequal:   "!=",
	lequal:   "<=",
	gequal:   ">=",

	addAssgn: "+=",
	subAssgn: "-=",
	mulAssgn: "*=",
	quoAssgn: "/=",
	remAssgn: "%=",
	andAssgn: "&=",
	orAssgn:  "|=",
	xorAssgn: "^=",
	shlAssgn: "<<=",
	shrAssgn: ">>=",

	rdrOut:   ">",
	appOut:   ">>",
	rdrIn:    "<",
	rdrInOut: "<>",
	dplIn:    "<&",
	dplOut:   ">&",
	clbOut:   ">|",
	hdoc:     "<<",
	dashHdoc: "<<-",
	wordHdoc: "<<<",
	rdrAll:   "&>",
	appAll:   "&>>",

	cmdIn:  "<(",
	cmdOut: ">(",

	plus:     "+",
	colPlus:  ":+",
	minus:    "-",
	colMinus: ":-",
	quest:    "?",
	colQuest: ":?",
	assgn:    "=",
	colAssgn: ":=",
	perc:     "%",
	dblPerc:  "%%",
	hash:     "#",
	dblHash:  "##",
	caret:    "^",
	dblCaret: "^^",
	comma:    ",",
	dblComma: ",,",
	at:       "@",
	slash:    "/",
	dblSlash: "//",
	colon:    ":",

	tsExists:  "-e",
	tsRegFile: "-f",
	tsDirect:  "-d",
	tsCharSp:  "-c",
	tsBlckSp:  "-b",
	tsNmPipe:  "-p",
	tsSocket:  "-S",
	tsSmbLink: "-L",
	tsSticky:  "-k",
	tsGIDSet:  "-g",
	tsUIDSet:  "-u",
	tsGrpOwn:  "-G",
	tsUsrOwn:  "-O",
	tsModif:   "-N",
	tsRead:    "-r",
	tsWrite:   "-w",
	tsExec:    "-x",
	tsNoEmpty: "-s",
	tsFdTerm:  "-t",
	tsEmpStr:  "-z",
	tsNempStr: "-n",
	tsOptSet:  "-o",
	tsVarSet:  "-v",
	tsRefVar:  "-R",

	tsReMatch: "=~",
	tsNewer:   "-nt",
	tsOlder:   "-ot",
	tsDevIno:  "-ef",
	tsEql:     "-eq",
	tsNeq:     "-ne",
	tsLeq:     "-le",
	tsGeq:     "-ge",
	tsLss:     "-lt",
	tsGtr:     "-gt",

	globQuest: "?(",
	globStar:  "*(",
	globPlus:  "+(",
	globAt:    "@(",
	globExcl:  "!(",
}

func (t token) String() string { return tokNames[t] }

func (o RedirOperator) String() string   { return token(o).String() }
func (o ProcOperator) String() string    { return token(o).String() }
func (o BinCmdOperator) String() string  { return token(o).String() }
func (o CaseOperator) String() string    { return token(o).String() }
func (o ParNamesOperator) String() string { return token(o).String() }
func (o ParExpOperator) String() string  { return token(o).String() }
func (o UnAritOperator) String() string  { return token(o).String() }
func (o BinAritOperator) String() string { return token(o).String() }
func (o UnTestOperator) String() string  { return token(o).String() }
func (o BinTestOperator) String() string { return token(o).String() }
func (o GlobOperator) String() string    { return token(o).String() }
