package coreutils

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

func linesOf(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func inputFor(ctx context.Context, cc *callCtx, files []string) (string, int) {
	if len(files) == 0 {
		return readAll(cc.stdin), 0
	}
	var b strings.Builder
	status := 0
	for _, f := range files {
		data, err := cc.fs.FS().ReadFile(resolvePath(cc.dir, f))
		if err != nil {
			fmt.Fprintf(cc.errw, "%s: %v\n", f, unwrapFS(err))
			status = 1
			continue
		}
		b.Write(data)
	}
	return b.String(), status
}

// cmdWc implements `wc`: three right-padded 8-column counts by default
// (lines, words, bytes); -l/-w/-c print a single 8-padded column.
func cmdWc(ctx context.Context, cc *callCtx) int {
	var files []string
	lOnly, wOnly, cOnly := false, false, false
	for _, a := range cc.args[1:] {
		switch a {
		case "-l":
			lOnly = true
		case "-w":
			wOnly = true
		case "-c":
			cOnly = true
		default:
			files = append(files, a)
		}
	}
	text, status := inputFor(ctx, cc, files)
	nLines := strings.Count(text, "\n")
	nWords := len(strings.Fields(text))
	nBytes := len(text)

	switch {
	case lOnly && !wOnly && !cOnly:
		fmt.Fprintf(cc.out, "%8d\n", nLines)
	case wOnly && !lOnly && !cOnly:
		fmt.Fprintf(cc.out, "%8d\n", nWords)
	case cOnly && !lOnly && !wOnly:
		fmt.Fprintf(cc.out, "%8d\n", nBytes)
	default:
		fmt.Fprintf(cc.out, "%8d%8d%8d\n", nLines, nWords, nBytes)
	}
	return status
}

// cmdUniq implements `uniq`, with `-c` counts right-padded to 7 columns
// before the space and the line.
func cmdUniq(ctx context.Context, cc *callCtx) int {
	withCount := false
	var files []string
	for _, a := range cc.args[1:] {
		if a == "-c" {
			withCount = true
			continue
		}
		files = append(files, a)
	}
	text, status := inputFor(ctx, cc, files)
	lines := linesOf(text)
	var out []string
	var counts []int
	for _, l := range lines {
		if len(out) > 0 && out[len(out)-1] == l {
			counts[len(counts)-1]++
			continue
		}
		out = append(out, l)
		counts = append(counts, 1)
	}
	for i, l := range out {
		if withCount {
			fmt.Fprintf(cc.out, "%7d %s\n", counts[i], l)
		} else {
			fmt.Fprintln(cc.out, l)
		}
	}
	return status
}

func cmdSort(ctx context.Context, cc *callCtx) int {
	reverse, numeric, unique := false, false, false
	var files []string
	for _, a := range cc.args[1:] {
		switch a {
		case "-r":
			reverse = true
		case "-n":
			numeric = true
		case "-u":
			unique = true
		default:
			files = append(files, a)
		}
	}
	text, status := inputFor(ctx, cc, files)
	lines := linesOf(text)
	if numeric {
		sort.SliceStable(lines, func(i, j int) bool {
			vi, _ := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
			vj, _ := strconv.ParseFloat(strings.TrimSpace(lines[j]), 64)
			return vi < vj
		})
	} else {
		sort.Strings(lines)
	}
	if reverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	if unique {
		lines = dedupAdjacent(lines)
	}
	for _, l := range lines {
		fmt.Fprintln(cc.out, l)
	}
	return status
}

func dedupAdjacent(lines []string) []string {
	var out []string
	for _, l := range lines {
		if len(out) > 0 && out[len(out)-1] == l {
			continue
		}
		out = append(out, l)
	}
	return out
}

func cmdHead(ctx context.Context, cc *callCtx) int {
	n := 10
	var files []string
	args := cc.args[1:]
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			fmt.Sscanf(args[i+1], "%d", &n)
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-") && len(args[i]) > 1 {
			if v, err := strconv.Atoi(args[i][1:]); err == nil {
				n = v
				continue
			}
		}
		files = append(files, args[i])
	}
	text, status := inputFor(ctx, cc, files)
	lines := linesOf(text)
	if n > len(lines) {
		n = len(lines)
	}
	for _, l := range lines[:n] {
		fmt.Fprintln(cc.out, l)
	}
	return status
}

func cmdTail(ctx context.Context, cc *callCtx) int {
	n := 10
	var files []string
	args := cc.args[1:]
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			fmt.Sscanf(args[i+1], "%d", &n)
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-") && len(args[i]) > 1 {
			if v, err := strconv.Atoi(args[i][1:]); err == nil {
				n = v
				continue
			}
		}
		files = append(files, args[i])
	}
	text, status := inputFor(ctx, cc, files)
	lines := linesOf(text)
	start := len(lines) - n
	if start < 0 {
		start = 0
	}
	for _, l := range lines[start:] {
		fmt.Fprintln(cc.out, l)
	}
	return status
}

func cmdCut(ctx context.Context, cc *callCtx) int {
	delim := "\t"
	var fieldList string
	var files []string
	args := cc.args[1:]
	for i := 0; i < len(args); i++ {
		switch {
		case strings.HasPrefix(args[i], "-d"):
			if args[i] == "-d" && i+1 < len(args) {
				i++
				delim = args[i]
			} else {
				delim = strings.TrimPrefix(args[i], "-d")
			}
		case strings.HasPrefix(args[i], "-f"):
			if args[i] == "-f" && i+1 < len(args) {
				i++
				fieldList = args[i]
			} else {
				fieldList = strings.TrimPrefix(args[i], "-f")
			}
		default:
			files = append(files, args[i])
		}
	}
	fields := parseFieldList(fieldList)
	text, status := inputFor(ctx, cc, files)
	for _, line := range linesOf(text) {
		parts := strings.Split(line, delim)
		var sel []string
		for _, f := range fields {
			if f-1 >= 0 && f-1 < len(parts) {
				sel = append(sel, parts[f-1])
			}
		}
		fmt.Fprintln(cc.out, strings.Join(sel, delim))
	}
	return status
}

func parseFieldList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo, _ := strconv.Atoi(bounds[0])
			hi, _ := strconv.Atoi(bounds[1])
			for v := lo; v <= hi; v++ {
				out = append(out, v)
			}
			continue
		}
		if v, err := strconv.Atoi(part); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func cmdTr(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	deleteMode := false
	var sets []string
	for _, a := range args {
		if a == "-d" {
			deleteMode = true
			continue
		}
		sets = append(sets, a)
	}
	text := readAll(cc.stdin)
	if len(sets) == 0 {
		cc.out.Write([]byte(text))
		return 0
	}
	from := expandSet(sets[0])
	if deleteMode {
		var b strings.Builder
		skip := make(map[rune]bool, len(from))
		for _, r := range from {
			skip[r] = true
		}
		for _, r := range text {
			if !skip[r] {
				b.WriteRune(r)
			}
		}
		cc.out.Write([]byte(b.String()))
		return 0
	}
	if len(sets) < 2 {
		return cc.fail("tr: missing operand\n")
	}
	to := expandSet(sets[1])
	var b strings.Builder
	for _, r := range text {
		idx := indexRune(from, r)
		if idx < 0 {
			b.WriteRune(r)
			continue
		}
		if len(to) == 0 {
			continue
		}
		if idx >= len(to) {
			idx = len(to) - 1
		}
		b.WriteRune(to[idx])
	}
	cc.out.Write([]byte(b.String()))
	return 0
}

func indexRune(rs []rune, target rune) int {
	for i, r := range rs {
		if r == target {
			return i
		}
	}
	return -1
}

func expandSet(s string) []rune {
	var out []rune
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if i+2 < len(rs) && rs[i+1] == '-' {
			for c := rs[i]; c <= rs[i+2]; c++ {
				out = append(out, c)
			}
			i += 2
			continue
		}
		out = append(out, rs[i])
	}
	return out
}

func cmdGrep(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	invert, ignoreCase, countOnly, lineNum := false, false, false, false
	var pat string
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-v":
			invert = true
		case "-i":
			ignoreCase = true
		case "-c":
			countOnly = true
		case "-n":
			lineNum = true
		default:
			if pat == "" {
				pat = args[i]
			} else {
				files = append(files, args[i])
			}
		}
	}
	expr := pat
	if ignoreCase {
		expr = "(?i)" + expr
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return cc.fail("grep: %v\n", err)
	}
	text, status := inputFor(ctx, cc, files)
	count := 0
	for i, line := range linesOf(text) {
		matched := rx.MatchString(line)
		if matched == invert {
			continue
		}
		count++
		if countOnly {
			continue
		}
		if lineNum {
			fmt.Fprintf(cc.out, "%d:%s\n", i+1, line)
		} else {
			fmt.Fprintln(cc.out, line)
		}
	}
	if countOnly {
		fmt.Fprintln(cc.out, count)
	}
	if count == 0 {
		status = 1
	}
	return status
}

// cmdBase64 implements `base64`, line-wrapping at 76 columns by default
// (configurable via `-w`).
func cmdBase64(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	decode := false
	width := 76
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-d":
			decode = true
		case args[i] == "-w" && i+1 < len(args):
			i++
			fmt.Sscanf(args[i], "%d", &width)
		default:
			files = append(files, args[i])
		}
	}
	text, status := inputFor(ctx, cc, files)
	if decode {
		out, err := base64Decode(text)
		if err != nil {
			return cc.fail("base64: %v\n", err)
		}
		cc.out.Write(out)
		return status
	}
	encoded := base64Encode([]byte(text))
	if width <= 0 {
		fmt.Fprintln(cc.out, encoded)
		return status
	}
	for i := 0; i < len(encoded); i += width {
		end := i + width
		if end > len(encoded) {
			end = len(encoded)
		}
		fmt.Fprintln(cc.out, encoded[i:end])
	}
	return status
}

func cmdDate(ctx context.Context, cc *callCtx) int {
	now := time.Unix(cc.clock(), 0).UTC()
	layout := "Mon Jan  2 15:04:05 UTC 2006"
	for _, a := range cc.args[1:] {
		if strings.HasPrefix(a, "+") {
			layout = strftimeToGo(a[1:])
		}
	}
	fmt.Fprintln(cc.out, now.Format(layout))
	return 0
}

func strftimeToGo(f string) string {
	repl := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	return repl.Replace(f)
}
