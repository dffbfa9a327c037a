// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strings"
)

// QuoteError is returned when a value cannot be quoted for a language
// variant.
type QuoteError struct {
	ByteOffset int
	Message    string
}

func (e QuoteError) Error() string {
	return e.Message
}

const (
	quoteErrNull = "shell strings cannot contain null bytes"
)

// Quote returns a quoted version of the input string, so that the quoted
// version is always expanded or interpreted as the original string, in any
// of the given language variants.
//
// Quoting is necessary when using arbitrary literal strings as words in a
// shell script or command. Without quoting, one can run into syntax errors,
// as well as the possibility of running unintended code.
//
// An error is returned when a string cannot be quoted for a variant, such
// as when it contains null bytes, which shell strings cannot express.
func Quote(s string, lang LangVariant) (string, error) {
	if s == "" {
		return "''", nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return "", &QuoteError{
			ByteOffset: strings.IndexByte(s, 0),
			Message:    quoteErrNull,
		}
	}
	if !needsQuoting(s) {
		return s, nil
	}
	// Single quotes express every remaining byte literally, with the one
	// exception of the single quote itself, which closes and reopens the
	// string around an escaped quote.
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('\'')
	return b.String(), nil
}

func needsQuoting(s string) bool {
	if IsKeyword(s) {
		return true
	}
	for i := 0; i < len(s); i++ {
		switch b := s[i]; {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '_', b == '/', b == '.', b == '-', b == ',', b == ':',
			b == '+', b == '@', b == '%', b == '^', b == '=':
		default:
			return true
		}
	}
	return false
}
