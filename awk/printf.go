package awk

import (
	"fmt"
	"strconv"
	"strings"
)

// sprintfAWK implements a printf/sprintf subset: %s, %d, %f, %e, %g, %c,
// %x, %X, %o, %% with flags -, 0, width, and
// precision. It walks the format string itself rather than handing the
// whole format to fmt.Sprintf, since AWK's conversion from value to the
// requested verb (string vs number) doesn't match Go's %v-style verbs;
// each single conversion, once its argument is converted, is formatted
// with fmt.Sprintf.
func sprintfAWK(format string, args []value, convfmt string) string {
	var out strings.Builder
	ai := 0
	next := func() value {
		if ai < len(args) {
			v := args[ai]
			ai++
			return v
		}
		return strVal("")
	}

	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '%' {
			out.WriteRune(c)
			continue
		}
		i++
		if i >= len(runes) {
			out.WriteByte('%')
			break
		}
		if runes[i] == '%' {
			out.WriteByte('%')
			continue
		}

		start := i
		for i < len(runes) && strings.ContainsRune("-+ 0#", runes[i]) {
			i++
		}
		flags := string(runes[start:i])

		width := ""
		if i < len(runes) && runes[i] == '*' {
			width = strconv.Itoa(int(next().num()))
			i++
		} else {
			for i < len(runes) && isDigit(runes[i]) {
				width += string(runes[i])
				i++
			}
		}

		prec := ""
		hasPrec := false
		if i < len(runes) && runes[i] == '.' {
			hasPrec = true
			i++
			if i < len(runes) && runes[i] == '*' {
				prec = strconv.Itoa(int(next().num()))
				i++
			} else {
				for i < len(runes) && isDigit(runes[i]) {
					prec += string(runes[i])
					i++
				}
			}
		}

		if i >= len(runes) {
			out.WriteByte('%')
			out.WriteString(string(runes[start:i]))
			break
		}
		verb := runes[i]

		spec := "%" + flags + width
		if hasPrec {
			spec += "." + prec
		}

		switch verb {
		case 'd', 'i':
			out.WriteString(fmt.Sprintf(spec+"d", int64(next().num())))
		case 'o':
			out.WriteString(fmt.Sprintf(spec+"o", int64(next().num())))
		case 'x':
			out.WriteString(fmt.Sprintf(spec+"x", int64(next().num())))
		case 'X':
			out.WriteString(fmt.Sprintf(spec+"X", int64(next().num())))
		case 'c':
			v := next()
			if v.isNum {
				out.WriteString(fmt.Sprintf(spec+"c", rune(int64(v.n))))
			} else if len(v.s) > 0 {
				out.WriteString(fmt.Sprintf(spec+"c", []rune(v.s)[0]))
			} else {
				out.WriteString(fmt.Sprintf(spec+"s", ""))
			}
		case 's':
			out.WriteString(fmt.Sprintf(spec+"s", next().str(convfmt)))
		case 'f', 'F':
			out.WriteString(fmt.Sprintf(spec+"f", next().num()))
		case 'e', 'E':
			out.WriteString(fmt.Sprintf(spec+string(verb), next().num()))
		case 'g', 'G':
			out.WriteString(fmt.Sprintf(spec+string(verb), next().num()))
		default:
			out.WriteByte('%')
			out.WriteString(string(runes[start:i]))
			out.WriteRune(verb)
		}
	}
	return out.String()
}

// sprintfOne formats a single value with a single-verb format string,
// used internally for CONVFMT/OFMT number-to-string conversion.
func sprintfOne(format string, v value) string {
	return sprintfAWK(format, []value{v}, "%.6g")
}
