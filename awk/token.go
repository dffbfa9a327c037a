// Package awk implements an embedded AWK subset: a self-contained lexer,
// recursive-descent parser, and tree-walking evaluator. Control flow is
// modeled with sentinel errors for exit/break/next and a return-shaped
// error for function return, the way goawk's interpreter does.
package awk

// token identifies a single lexical token.
type token int

const (
	tEOF token = iota
	tError

	tNumber
	tString
	tRegex
	tIdent
	tFuncName // identifier immediately followed by '(' with no space
	tBuiltinFunc

	// Punctuation and operators.
	tLbrace
	tRbrace
	tLparen
	tRparen
	tLbracket
	tRbracket
	tSemi
	tNewline
	tComma
	tDollar

	tAssign
	tAddAssign
	tSubAssign
	tMulAssign
	tDivAssign
	tModAssign
	tPowAssign

	tOr
	tAnd
	tNot
	tLt
	tLe
	tGt
	tGe
	tEq
	tNe
	tMatch
	tNotMatch
	tIn

	tPlus
	tMinus
	tStar
	tSlash
	tPercent
	tPow
	tIncr
	tDecr

	tQuestion
	tColon
	tPipe
	tAppend // >>

	// Keywords.
	tBegin
	tEnd
	tFunction
	tIf
	tElse
	tWhile
	tFor
	tDo
	tBreak
	tContinue
	tNext
	tNextfile
	tExit
	tReturn
	tDelete
	tGetline
	tPrint
	tPrintf
)

var keywords = map[string]token{
	"BEGIN":    tBegin,
	"END":      tEnd,
	"function": tFunction,
	"func":     tFunction,
	"if":       tIf,
	"else":     tElse,
	"while":    tWhile,
	"for":      tFor,
	"do":       tDo,
	"break":    tBreak,
	"continue": tContinue,
	"next":     tNext,
	"nextfile": tNextfile,
	"exit":     tExit,
	"return":   tReturn,
	"delete":   tDelete,
	"getline":  tGetline,
	"print":    tPrint,
	"printf":   tPrintf,
	"in":       tIn,
}

// builtinFuncs is the set of recognized builtin function names.
var builtinFuncs = map[string]bool{
	"length": true, "substr": true, "tolower": true, "toupper": true,
	"index": true, "split": true, "sprintf": true, "gsub": true, "sub": true,
	"match": true, "int": true, "sqrt": true, "sin": true, "cos": true,
	"exp": true, "log": true, "atan2": true, "rand": true, "srand": true,
}

func (t token) String() string {
	switch t {
	case tEOF:
		return "EOF"
	case tNewline:
		return "newline"
	case tNumber:
		return "number"
	case tString:
		return "string"
	case tIdent:
		return "identifier"
	default:
		return "token"
	}
}
