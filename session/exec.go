package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shellgrove/shellgrove/awk"
	"github.com/shellgrove/shellgrove/coreutils"
	"github.com/shellgrove/shellgrove/fsys"
	"github.com/shellgrove/shellgrove/httpx"
	"github.com/shellgrove/shellgrove/interp"
	"github.com/shellgrove/shellgrove/jqlang"
	"github.com/shellgrove/shellgrove/sedlang"
)

// fsCell adapts Session to [coreutils.FSCell].
type fsCell struct{ s *Session }

func (c fsCell) FS() fsys.FS      { return c.s.fs }
func (c fsCell) SetFS(fs fsys.FS) { c.s.fs = fs }

// execMiddlewares wires the registry-backed command handlers that live
// outside the interpreter core, plus the session-specific `curl` and
// `sqlite3` handles that need access to the session's injected
// [httpx.Client] and named [DbHandle] table, which package coreutils has
// no reason to know about.
func (s *Session) execMiddlewares() []func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	clock := func() int64 { return s.clock().Unix() }
	extra := map[string]coreutils.Command{
		"curl":    s.curlCommand,
		"sqlite3": s.sqlite3Command,
		"awk":     s.awkCommand,
		"sed":     s.sedCommand,
		"jq":      s.jqCommand,
	}
	return []func(interp.ExecHandlerFunc) interp.ExecHandlerFunc{
		coreutils.Handler(fsCell{s}, clock, extra),
	}
}

// curlCommand implements a minimal `curl`, delegating to the session's
// injected [httpx.Client]. It supports the handful of flags scripts
// commonly rely on: -X method, -H header, -d body
// (implies POST), -o output file, -s (silent; otherwise status goes to
// stderr), -k (insecure), -L (follow redirects).
func (s *Session) curlCommand(ctx context.Context, cc *coreutils.Context) int {
	args := cc.Args()[1:]
	req := httpx.Request{Method: "GET", Headers: map[string]string{}, TimeoutMS: 30000}
	var outFile string
	silent := false
	var target string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-X", "--request":
			i++
			if i < len(args) {
				req.Method = args[i]
			}
		case "-H", "--header":
			i++
			if i < len(args) {
				name, val, ok := strings.Cut(args[i], ":")
				if ok {
					req.Headers[strings.TrimSpace(name)] = strings.TrimSpace(val)
				}
			}
		case "-d", "--data":
			i++
			if i < len(args) {
				req.Body = []byte(args[i])
				if req.Method == "GET" {
					req.Method = "POST"
				}
			}
		case "-o", "--output":
			i++
			if i < len(args) {
				outFile = args[i]
			}
		case "-s", "--silent":
			silent = true
		case "-k", "--insecure":
			req.Insecure = true
		case "-L", "--location":
			req.FollowRedirects = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				target = args[i]
			}
		}
	}
	if target == "" {
		return cc.Fail("curl: no URL specified\n")
	}
	req.URL = target

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		if !silent {
			fmt.Fprintf(cc.Stderr(), "curl: %v\n", err)
		}
		return 1
	}
	if outFile != "" {
		newFS, werr := s.fs.WriteFile(cc.Resolve(outFile), resp.Body, 0o644)
		if werr != nil {
			return cc.Fail("curl: %v\n", werr)
		}
		s.fs = newFS
	} else {
		cc.Stdout().Write(resp.Body)
	}
	if !silent && (resp.Status < 200 || resp.Status >= 300) {
		fmt.Fprintf(cc.Stderr(), "curl: server returned %d\n", resp.Status)
	}
	return 0
}

// sqlite3Command implements a tiny `sqlite3 <name> "<stmt>"`: named handles
// are created lazily in the session's db table on first use; ":memory:"
// gets a fresh handle on every call and is never stored.
func (s *Session) sqlite3Command(ctx context.Context, cc *coreutils.Context) int {
	args := cc.Args()[1:]
	if len(args) < 2 {
		return cc.Fail("sqlite3: usage: sqlite3 <name> <statement>\n")
	}
	name, stmt := args[0], strings.Join(args[1:], " ")
	db, ok := s.dbs[name]
	if !ok {
		db = NewDbHandle(name)
		if name != ":memory:" {
			s.dbs[name] = db
		}
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "SELECT") {
		cols, rows, err := db.Query(stmt)
		if err != nil {
			return cc.Fail("sqlite3: %v\n", err)
		}
		w := bufio.NewWriter(cc.Stdout())
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "|"))
		}
		w.Flush()
		_ = cols
		return 0
	}
	if _, err := db.Exec(stmt); err != nil {
		return cc.Fail("sqlite3: %v\n", err)
	}
	return 0
}

// openFromFS builds an [awk.Options.Open]/[sedlang.Options.Open] callback
// that resolves a name against the command's current directory and reads it
// from the session filesystem, the in-memory substitute for the real
// getline/r/R file access the embedded languages' originals use.
func (s *Session) openFromFS(cc *coreutils.Context) func(string) (string, bool) {
	return func(name string) (string, bool) {
		data, err := s.fs.ReadFile(cc.Resolve(name))
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}

// awkCommand implements `awk [-F fs] [-v var=val] 'prog' [file...]` or
// `awk -f progfile [file...]`, delegating the actual language to package
// awk's embedded AWK engine.
func (s *Session) awkCommand(ctx context.Context, cc *coreutils.Context) int {
	args := cc.Args()[1:]
	opts := awk.Options{FS: " ", Vars: map[string]string{}, Open: s.openFromFS(cc)}
	var prog string
	haveProg := false
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-F" && i+1 < len(args):
			i++
			opts.FS = args[i]
		case args[i] == "-v" && i+1 < len(args):
			i++
			name, val, ok := strings.Cut(args[i], "=")
			if ok {
				opts.Vars[name] = val
			}
		case args[i] == "-f" && i+1 < len(args):
			i++
			data, err := s.fs.ReadFile(cc.Resolve(args[i]))
			if err != nil {
				return cc.Fail("awk: %v\n", err)
			}
			prog, haveProg = string(data), true
		case !haveProg:
			prog, haveProg = args[i], true
		default:
			files = append(files, args[i])
		}
	}
	if !haveProg {
		return cc.Fail("awk: no program text\n")
	}

	input, err := s.readInput(ctx, cc, files)
	if err != nil {
		return cc.Fail("awk: %v\n", err)
	}

	result, err := awk.Run(prog, input, opts)
	if err != nil {
		return cc.Fail("awk: %v\n", err)
	}
	io.WriteString(cc.Stdout(), result.Output)
	for name, data := range result.Files {
		newFS, werr := s.fs.WriteFile(cc.Resolve(name), []byte(data), 0o644)
		if werr != nil {
			return cc.Fail("awk: %v\n", werr)
		}
		s.fs = newFS
	}
	return result.ExitCode
}

// sedCommand implements `sed [-n] -e script [file...]` and the more common
// `sed [-n] 'script' [file...]` form.
func (s *Session) sedCommand(ctx context.Context, cc *coreutils.Context) int {
	args := cc.Args()[1:]
	opts := sedlang.Options{Open: s.openFromFS(cc)}
	var scriptParts []string
	haveScript := false
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-n" || args[i] == "--quiet" || args[i] == "--silent":
			opts.Suppress = true
		case (args[i] == "-e" || args[i] == "--expression") && i+1 < len(args):
			i++
			scriptParts = append(scriptParts, args[i])
			haveScript = true
		case (args[i] == "-f" || args[i] == "--file") && i+1 < len(args):
			i++
			data, err := s.fs.ReadFile(cc.Resolve(args[i]))
			if err != nil {
				return cc.Fail("sed: %v\n", err)
			}
			scriptParts = append(scriptParts, string(data))
			haveScript = true
		case !haveScript:
			scriptParts = append(scriptParts, args[i])
			haveScript = true
		default:
			files = append(files, args[i])
		}
	}
	if !haveScript {
		return cc.Fail("sed: no script specified\n")
	}

	input, err := s.readInput(ctx, cc, files)
	if err != nil {
		return cc.Fail("sed: %v\n", err)
	}

	result, err := sedlang.Run(strings.Join(scriptParts, "\n"), input, opts)
	if err != nil {
		return cc.Fail("sed: %v\n", err)
	}
	io.WriteString(cc.Stdout(), result.Output)
	return result.ExitCode
}

// jqCommand implements `jq 'filter' [file...]`. The default output is
// pretty-printed JSON with a trailing newline per value; `-c` switches to
// compact one-line output, `-r` strips the surrounding quotes only when
// the value is a string, and `-j` joins output without newlines.
func (s *Session) jqCommand(ctx context.Context, cc *coreutils.Context) int {
	args := cc.Args()[1:]
	raw, compact, joined := false, false, false
	var filterSrc string
	haveFilter := false
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-r" || args[i] == "--raw-output":
			raw = true
		case args[i] == "-c" || args[i] == "--compact-output":
			compact = true
		case args[i] == "-j" || args[i] == "--join-output":
			raw = true
			joined = true
		case !haveFilter:
			filterSrc, haveFilter = args[i], true
		default:
			files = append(files, args[i])
		}
	}
	if !haveFilter {
		return cc.Fail("jq: no filter specified\n")
	}

	input, err := s.readInput(ctx, cc, files)
	if err != nil {
		return cc.Fail("jq: %v\n", err)
	}

	result, err := jqlang.Run(filterSrc, input, jqlang.Options{})
	if err != nil {
		return cc.Fail("jq: %v\n", err)
	}
	w := bufio.NewWriter(cc.Stdout())
	for _, v := range result.Values {
		var text string
		str, isStr := v.(string)
		switch {
		case raw && isStr:
			text = str
		case compact || joined:
			text = jqlang.Encode(v)
		default:
			text = jqlang.EncodeIndent(v)
		}
		w.WriteString(text)
		if !joined {
			w.WriteByte('\n')
		}
	}
	w.Flush()
	return 0
}

// readInput concatenates the named files, resolved against the command's
// current directory, or falls back to stdin when no files are given — the
// same precedence awk, sed, and jq's real originals give argv files over
// standard input.
func (s *Session) readInput(ctx context.Context, cc *coreutils.Context, files []string) (string, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(cc.Stdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	var b strings.Builder
	for _, name := range files {
		data, err := s.fs.ReadFile(cc.Resolve(name))
		if err != nil {
			return "", err
		}
		b.Write(data)
	}
	return b.String(), nil
}
