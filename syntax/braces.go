// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strconv"
	"strings"
)

// SplitBraces parses brace expansion within a word's literal parts,
// replacing the text with [BraceExp] parts. The given word is modified in
// place, and the return value reports whether any brace expressions were
// found.
//
// For example, a literal word "foo{bar,baz}" will result in a word
// containing the literal "foo", and a brace expansion with the elements
// "bar" and "baz".
//
// Brace expansion is purely textual: it happens before any parameter is
// read, so unquoted expansions may appear inside the braces, but quoted
// braces never expand.
func SplitBraces(word *Word) bool {
	items := braceTokenize(word.Parts)
	parts, any := braceParse(items, false)
	if !any {
		return false
	}
	word.Parts = parts
	return true
}

// ExpandBraces performs brace expansion on a word, returning the resulting
// words in order. Words without brace expressions are returned unchanged,
// as a single-element slice.
func ExpandBraces(word *Word) []*Word {
	topWord := &Word{Parts: word.Parts}
	hasExp := SplitBraces(topWord)
	for _, part := range topWord.Parts {
		if _, ok := part.(*BraceExp); ok {
			hasExp = true
			break
		}
	}
	if !hasExp {
		return []*Word{word}
	}
	return expandRec(topWord.Parts)
}

func expandRec(parts []WordPart) []*Word {
	for i, part := range parts {
		be, ok := part.(*BraceExp)
		if !ok {
			continue
		}
		var elems []*Word
		if be.Sequence {
			elems = expandSequence(be)
		} else {
			elems = be.Elems
		}
		var words []*Word
		for _, elem := range elems {
			var next []WordPart
			next = append(next, parts[:i]...)
			next = append(next, elem.Parts...)
			next = append(next, parts[i+1:]...)
			words = append(words, expandRec(next)...)
		}
		return words
	}
	return []*Word{{Parts: parts}}
}

// expandSequence turns a {x..y[..incr]} brace expression into its element
// words.
func expandSequence(be *BraceExp) []*Word {
	lit := func(i int) string {
		if i >= len(be.Elems) {
			return ""
		}
		return be.Elems[i].Lit()
	}
	from, to := lit(0), lit(1)
	incr := 1
	if s := lit(2); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n != 0 {
			incr = n
			if incr < 0 {
				incr = -incr
			}
		}
	}
	var out []*Word
	add := func(s string) {
		out = append(out, &Word{Parts: []WordPart{&Lit{Value: s}}})
	}
	if nFrom, err1 := strconv.Atoi(from); err1 == nil {
		nTo, err2 := strconv.Atoi(to)
		if err2 != nil {
			return be.Elems
		}
		width := 0
		if sequencePadded(from) || sequencePadded(to) {
			width = max(len(from), len(to))
		}
		format := func(n int) string {
			s := strconv.Itoa(n)
			if width > 0 {
				for neg := strings.HasPrefix(s, "-"); len(s) < width; {
					if neg {
						s = "-0" + s[1:]
					} else {
						s = "0" + s
					}
				}
			}
			return s
		}
		if nFrom <= nTo {
			for n := nFrom; n <= nTo; n += incr {
				add(format(n))
			}
		} else {
			for n := nFrom; n >= nTo; n -= incr {
				add(format(n))
			}
		}
		return out
	}
	// single-character ranges, such as {a..e}
	if len(from) != 1 || len(to) != 1 {
		return be.Elems
	}
	cFrom, cTo := from[0], to[0]
	if cFrom <= cTo {
		for c := cFrom; c <= cTo; c += byte(incr) {
			add(string(c))
		}
	} else {
		for c := cFrom; c >= cTo; c -= byte(incr) {
			add(string(c))
		}
	}
	return out
}

func sequencePadded(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0'
}

// braceItem is one token of a word's content as seen by the brace parser:
// either an opaque non-literal word part, a run of literal text, or one of
// the brace metacharacters.
type braceItem struct {
	kind braceItemKind
	text string   // for braceText
	part WordPart // for bracePart
}

type braceItemKind uint8

const (
	braceText braceItemKind = iota
	bracePart
	braceOpen  // {
	braceComma // ,
	braceDots  // ..
	braceClose // }
)

// braceTokenize splits a word's parts into brace tokens. Backslash escapes
// within literals keep their following character inert.
func braceTokenize(parts []WordPart) []braceItem {
	var items []braceItem
	for _, part := range parts {
		lit, ok := part.(*Lit)
		if !ok {
			items = append(items, braceItem{kind: bracePart, part: part})
			continue
		}
		val := lit.Value
		var run []byte
		flush := func() {
			if len(run) > 0 {
				items = append(items, braceItem{kind: braceText, text: string(run)})
				run = nil
			}
		}
		for i := 0; i < len(val); i++ {
			switch b := val[i]; b {
			case '\\':
				run = append(run, b)
				if i+1 < len(val) {
					i++
					run = append(run, val[i])
				}
			case '{':
				flush()
				items = append(items, braceItem{kind: braceOpen})
			case ',':
				flush()
				items = append(items, braceItem{kind: braceComma})
			case '}':
				flush()
				items = append(items, braceItem{kind: braceClose})
			case '.':
				if i+1 < len(val) && val[i+1] == '.' {
					flush()
					items = append(items, braceItem{kind: braceDots})
					i++
					break
				}
				run = append(run, b)
			default:
				run = append(run, b)
			}
		}
		flush()
	}
	return items
}

// braceParse rebuilds word parts from brace tokens, turning balanced brace
// groups with at least one top-level comma (or a valid sequence) into
// BraceExp parts. Unbalanced or single-element braces stay literal.
func braceParse(items []braceItem, inGroup bool) ([]WordPart, bool) {
	var parts []WordPart
	any := false
	appendText := func(s string) {
		if s == "" {
			return
		}
		if len(parts) > 0 {
			if lit, ok := parts[len(parts)-1].(*Lit); ok {
				lit.Value += s
				return
			}
		}
		parts = append(parts, &Lit{Value: s})
	}
	i := 0
	for i < len(items) {
		it := items[i]
		switch it.kind {
		case braceText:
			appendText(it.text)
			i++
		case bracePart:
			parts = append(parts, it.part)
			i++
		case braceComma:
			if inGroup {
				return parts, any
			}
			appendText(",")
			i++
		case braceDots:
			if inGroup {
				return parts, any
			}
			appendText("..")
			i++
		case braceClose:
			if inGroup {
				return parts, any
			}
			appendText("}")
			i++
		case braceOpen:
			be, consumed := braceGroup(items[i+1:])
			if be == nil {
				appendText("{")
				i++
				break
			}
			parts = append(parts, be)
			any = true
			i += 1 + consumed
		}
	}
	return parts, any
}

// braceGroup tries to parse a full brace group starting just after its
// opening brace, returning the parsed expression and the number of tokens
// consumed including the closing brace, or nil if the group is unbalanced,
// has a single element, or is not a valid sequence.
func braceGroup(items []braceItem) (*BraceExp, int) {
	// scan for the matching close, recording top-level separators
	var commas, dotses []int
	end := -1
	depth := 0
scan:
	for i, it := range items {
		switch it.kind {
		case braceOpen:
			depth++
		case braceClose:
			if depth == 0 {
				end = i
				break scan
			}
			depth--
		case braceComma:
			if depth == 0 {
				commas = append(commas, i)
			}
		case braceDots:
			if depth == 0 {
				dotses = append(dotses, i)
			}
		}
	}
	if end < 0 {
		return nil, 0 // unbalanced
	}
	elemWord := func(from, to int) *Word {
		parts, _ := braceParse(items[from:to], false)
		if len(parts) == 0 {
			parts = []WordPart{&Lit{}}
		}
		return &Word{Parts: parts}
	}
	if len(commas) > 0 {
		// a comma list; any dots within the elements are literal
		var elems []*Word
		start := 0
		for _, c := range commas {
			elems = append(elems, elemWord(start, c))
			start = c + 1
		}
		elems = append(elems, elemWord(start, end))
		return &BraceExp{Elems: elems}, end + 1
	}
	if len(dotses) == 1 || len(dotses) == 2 {
		// a {x..y} or {x..y..incr} sequence
		var elems []*Word
		start := 0
		for _, d := range dotses {
			elems = append(elems, elemWord(start, d))
			start = d + 1
		}
		elems = append(elems, elemWord(start, end))
		seqOK := true
		for i, elem := range elems {
			lit := elem.Lit()
			if _, err := strconv.Atoi(lit); err == nil {
				continue
			}
			if i < 2 && len(lit) == 1 && isSequenceChar(lit[0]) {
				continue
			}
			seqOK = false
		}
		// both ends must be numbers, or both letters: {1..f} is literal
		_, err0 := strconv.Atoi(elems[0].Lit())
		_, err1 := strconv.Atoi(elems[1].Lit())
		if (err0 == nil) != (err1 == nil) {
			seqOK = false
		}
		if seqOK {
			return &BraceExp{Sequence: true, Elems: elems}, end + 1
		}
	}
	return nil, 0 // {}, {x}, and malformed sequences are literal
}

func isSequenceChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
