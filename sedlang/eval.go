package sedlang

import (
	"fmt"
	"strings"
)

type action int

const (
	actionContinue action = iota
	actionQuit
	actionQuitNoprint
	actionEndCycle
	actionDelete
	actionDeleteFirstLine
)

type state struct {
	patternSpace string
	holdSpace    string
	lineNum      int
	lastLine     bool
	subMade      bool
	appendQueue  []string
	quit         bool
	quitCode     int
	suppress     bool

	lines   []string
	lineIdx int
}

// Run compiles script and applies it to input, running the usual sed
// cycle per line: read into the pattern space, execute every matching
// command, then auto-print unless suppressed.
func Run(script, input string, opts Options) (Result, error) {
	cmds, err := Parse(script)
	if err != nil {
		return Result{}, err
	}

	labels := map[string]int{}
	for i, c := range cmds {
		if c.op == ':' {
			labels[c.label] = i
		}
	}

	var out strings.Builder
	st := &state{suppress: opts.Suppress, lines: splitLines(input)}

	for st.lineIdx < len(st.lines) {
		st.lineNum++
		st.lastLine = st.lineIdx == len(st.lines)-1
		st.patternSpace = st.lines[st.lineIdx]
		st.subMade = false
		st.appendQueue = st.appendQueue[:0]

		act := execCommands(&out, cmds, labels, st, opts)
		// `D` restarts the cycle on the rest of a multi-line pattern
		// space without reading a new input line
		for act == actionDeleteFirstLine {
			nl := strings.IndexByte(st.patternSpace, '\n')
			if nl < 0 {
				break
			}
			st.patternSpace = st.patternSpace[nl+1:]
			act = execCommands(&out, cmds, labels, st, opts)
		}
		st.lastLine = st.lineIdx == len(st.lines)-1

		switch act {
		case actionQuit:
			if !st.suppress {
				fmt.Fprintf(&out, "%s\n", st.patternSpace)
			}
			flushAppend(&out, st)
			return Result{Output: out.String(), ExitCode: st.quitCode}, nil
		case actionQuitNoprint:
			flushAppend(&out, st)
			return Result{Output: out.String(), ExitCode: st.quitCode}, nil
		case actionDelete, actionDeleteFirstLine:
			flushAppend(&out, st)
			st.lineIdx++
			continue
		}

		if !st.suppress {
			fmt.Fprintf(&out, "%s\n", st.patternSpace)
		}
		flushAppend(&out, st)
		st.lineIdx++
	}

	return Result{Output: out.String(), ExitCode: 0}, nil
}

func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	lines := strings.Split(input, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func flushAppend(out *strings.Builder, st *state) {
	for _, a := range st.appendQueue {
		fmt.Fprintf(out, "%s\n", a)
	}
	st.appendQueue = st.appendQueue[:0]
}

func execCommands(out *strings.Builder, cmds []*command, labels map[string]int, st *state, opts Options) action {
	for i := 0; i < len(cmds); i++ {
		c := cmds[i]
		if c.op == cmdGroupStart {
			if !matchAddress(c, st) {
				i = c.jumpTarget
			}
			continue
		}
		if c.op == cmdGroupEnd {
			continue
		}
		if !matchAddress(c, st) {
			continue
		}
		act := execOne(out, c, labels, st, &i, opts)
		if act != actionContinue {
			return act
		}
	}
	return actionContinue
}

// execOne executes a single command, writing any output the command
// produces immediately to out (p/P/n/l/=) rather than through the
// appendQueue, which is reserved for a/r/R text flushed at end of cycle.
func execOne(out *strings.Builder, c *command, labels map[string]int, st *state, idx *int, opts Options) action {
	switch c.op {
	case 's':
		result, made := execSubstitute(c.sub, st.patternSpace)
		if made {
			st.patternSpace = result
			if c.sub.print {
				fmt.Fprintf(out, "%s\n", st.patternSpace)
			}
		}
		st.subMade = st.subMade || made
	case 'y':
		st.patternSpace = transliterate(st.patternSpace, c.transFrom, c.transTo)
	case 'd':
		return actionDelete
	case 'D':
		return actionDeleteFirstLine
	case 'p':
		fmt.Fprintf(out, "%s\n", st.patternSpace)
	case 'P':
		line := st.patternSpace
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		fmt.Fprintf(out, "%s\n", line)
	case 'n':
		if !st.suppress {
			fmt.Fprintf(out, "%s\n", st.patternSpace)
		}
		flushAppend(out, st)
		if st.lineIdx+1 < len(st.lines) {
			st.lineIdx++
			st.lineNum++
			st.patternSpace = st.lines[st.lineIdx]
			st.lastLine = st.lineIdx == len(st.lines)-1
		} else {
			return actionEndCycle
		}
	case 'N':
		if st.lineIdx+1 >= len(st.lines) {
			if !st.suppress {
				fmt.Fprintf(out, "%s\n", st.patternSpace)
			}
			st.quit = true
			return actionQuitNoprint
		}
		st.lineIdx++
		st.lineNum++
		st.lastLine = st.lineIdx == len(st.lines)-1
		st.patternSpace = st.patternSpace + "\n" + st.lines[st.lineIdx]
	case 'g':
		st.patternSpace = st.holdSpace
	case 'G':
		st.patternSpace = st.patternSpace + "\n" + st.holdSpace
	case 'h':
		st.holdSpace = st.patternSpace
	case 'H':
		st.holdSpace = st.holdSpace + "\n" + st.patternSpace
	case 'x':
		st.patternSpace, st.holdSpace = st.holdSpace, st.patternSpace
	case 'a':
		st.appendQueue = append(st.appendQueue, c.text)
	case 'i':
		fmt.Fprintf(out, "%s\n", c.text)
	case 'c':
		fmt.Fprintf(out, "%s\n", c.text)
		return actionDelete
	case 'l':
		fmt.Fprintf(out, "%s$\n", visual(st.patternSpace))
	case '=':
		fmt.Fprintf(out, "%d\n", st.lineNum)
	case 'q':
		st.quitCode = c.quitCode
		return actionQuit
	case 'Q':
		st.quitCode = c.quitCode
		return actionQuitNoprint
	case 'r':
		if opts.Open != nil {
			if data, ok := opts.Open(c.readFile); ok {
				st.appendQueue = append(st.appendQueue, strings.TrimSuffix(data, "\n"))
			}
		}
	case 'R':
		if opts.Open != nil {
			if data, ok := opts.Open(c.readFile); ok {
				line, _, _ := strings.Cut(data, "\n")
				st.appendQueue = append(st.appendQueue, line)
			}
		}
	case 'b':
		return branch(c.label, labels, idx)
	case 't':
		if st.subMade {
			st.subMade = false
			return branch(c.label, labels, idx)
		}
	case 'T':
		if !st.subMade {
			return branch(c.label, labels, idx)
		}
	case ':':
		// label definition, no-op
	}
	return actionContinue
}

func branch(label string, labels map[string]int, idx *int) action {
	if label == "" {
		return actionEndCycle
	}
	if target, ok := labels[label]; ok {
		*idx = target - 1
		return actionContinue
	}
	return actionEndCycle
}

func matchAddress(c *command, st *state) bool {
	matched := matchAddressRaw(c, st)
	if c.negated {
		return !matched
	}
	return matched
}

func matchAddressRaw(c *command, st *state) bool {
	if c.addr1 == nil {
		return true
	}
	if c.addr2 == nil {
		return addrMatches(c.addr1, st)
	}
	if c.inRange {
		if addrMatches(c.addr2, st) {
			c.inRange = false
		}
		return true
	}
	if addrMatches(c.addr1, st) {
		// a numeric end address at or before the current line makes the
		// range cover only this one line
		if c.addr2.lineNum > 0 && c.addr2.lineNum <= st.lineNum {
			return true
		}
		c.inRange = true
		return true
	}
	return false
}

func addrMatches(a *address, st *state) bool {
	switch {
	case a.last:
		return st.lastLine
	case a.lineNum > 0:
		if a.step > 0 {
			return st.lineNum >= a.lineNum && (st.lineNum-a.lineNum)%a.step == 0
		}
		return st.lineNum == a.lineNum
	case a.regex != nil:
		return a.regex.MatchString(st.patternSpace)
	default:
		return false
	}
}

func visual(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
