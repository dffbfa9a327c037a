package coreutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shellgrove/shellgrove/fsys"
)

func readAll(r io.Reader) string {
	var b strings.Builder
	io.Copy(&b, r)
	return b.String()
}

// cmdCat implements `cat`: with no args it streams stdin, otherwise it
// concatenates each named file's contents, so `echo X > f; cat f` yields
// exactly "X\n".
func cmdCat(ctx context.Context, cc *callCtx) int {
	files := cc.args[1:]
	if len(files) == 0 {
		io.Copy(cc.out, cc.stdin)
		return 0
	}
	status := 0
	for _, f := range files {
		if f == "-" {
			io.Copy(cc.out, cc.stdin)
			continue
		}
		data, err := cc.fs.FS().ReadFile(resolvePath(cc.dir, f))
		if err != nil {
			fmt.Fprintf(cc.errw, "cat: %s: %v\n", f, unwrapFS(err))
			status = 1
			continue
		}
		cc.out.Write(data)
	}
	return status
}

// cmdLs implements `ls`, including `-l` mode-string rendering: type char
// plus 9 rwx chars.
func cmdLs(ctx context.Context, cc *callCtx) int {
	long := false
	var targets []string
	for _, a := range cc.args[1:] {
		if a == "-l" {
			long = true
			continue
		}
		targets = append(targets, a)
	}
	if len(targets) == 0 {
		targets = []string{"."}
	}
	status := 0
	for i, t := range targets {
		abs := resolvePath(cc.dir, t)
		info, err := cc.fs.FS().Stat(abs)
		if err != nil {
			fmt.Fprintf(cc.errw, "ls: %s: %v\n", t, unwrapFS(err))
			status = 1
			continue
		}
		if len(targets) > 1 {
			if i > 0 {
				fmt.Fprintln(cc.out)
			}
			fmt.Fprintf(cc.out, "%s:\n", t)
		}
		if !info.IsDir() {
			printLsEntry(cc.out, t, info, long)
			continue
		}
		entries, err := cc.fs.FS().ReadDir(abs)
		if err != nil {
			fmt.Fprintf(cc.errw, "ls: %s: %v\n", t, unwrapFS(err))
			status = 1
			continue
		}
		for _, e := range entries {
			printLsEntry(cc.out, e.Name, e.Info, long)
		}
	}
	return status
}

func printLsEntry(w io.Writer, name string, info fsys.Info, long bool) {
	if !long {
		fmt.Fprintln(w, name)
		return
	}
	fmt.Fprintf(w, "%s %8d %s\n", info.Mode.String(), info.Size, name)
}

func cmdMkdir(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	status := 0
	fs := cc.fs.FS()
	for _, a := range args {
		if a == "-p" {
			continue
		}
		var err error
		fs, err = fs.Mkdir(resolvePath(cc.dir, a))
		if err != nil {
			fmt.Fprintf(cc.errw, "mkdir: %s: %v\n", a, unwrapFS(err))
			status = 1
		}
	}
	cc.fs.SetFS(fs)
	return status
}

func cmdRm(ctx context.Context, cc *callCtx) int {
	opts := fsys.RemoveOpts{}
	var targets []string
	for _, a := range cc.args[1:] {
		switch a {
		case "-r", "-rf", "-fr", "-R":
			opts.Recursive = true
			if strings.Contains(a, "f") {
				opts.Force = true
			}
		case "-f":
			opts.Force = true
		default:
			targets = append(targets, a)
		}
	}
	status := 0
	fs := cc.fs.FS()
	for _, t := range targets {
		var err error
		fs, err = fs.Remove(resolvePath(cc.dir, t), opts)
		if err != nil {
			if opts.Force {
				continue
			}
			fmt.Fprintf(cc.errw, "rm: %s: %v\n", t, unwrapFS(err))
			status = 1
		}
	}
	cc.fs.SetFS(fs)
	return status
}

func cmdTouch(ctx context.Context, cc *callCtx) int {
	status := 0
	fs := cc.fs.FS()
	for _, a := range cc.args[1:] {
		abs := resolvePath(cc.dir, a)
		if _, err := fs.Stat(abs); err == nil {
			continue // touch only updates mtime; nothing observable here
		}
		var err error
		fs, err = fs.WriteFile(abs, nil, 0o644)
		if err != nil {
			fmt.Fprintf(cc.errw, "touch: %s: %v\n", a, unwrapFS(err))
			status = 1
		}
	}
	cc.fs.SetFS(fs)
	return status
}

func cmdCp(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	if len(args) < 2 {
		return cc.fail("cp: missing destination\n")
	}
	src, dst := args[0], args[1]
	fs := cc.fs.FS()
	data, err := fs.ReadFile(resolvePath(cc.dir, src))
	if err != nil {
		return cc.fail("cp: %s: %v\n", src, unwrapFS(err))
	}
	newFS, err := fs.WriteFile(resolvePath(cc.dir, dst), data, 0o644)
	if err != nil {
		return cc.fail("cp: %s: %v\n", dst, unwrapFS(err))
	}
	cc.fs.SetFS(newFS)
	return 0
}

func cmdMv(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	if len(args) < 2 {
		return cc.fail("mv: missing destination\n")
	}
	fs := cc.fs.FS()
	newFS, err := fs.Move(resolvePath(cc.dir, args[0]), resolvePath(cc.dir, args[1]))
	if err != nil {
		return cc.fail("mv: %v\n", unwrapFS(err))
	}
	cc.fs.SetFS(newFS)
	return 0
}

func cmdBasename(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	if len(args) == 0 {
		return cc.fail("basename: missing operand\n")
	}
	name := args[0]
	name = strings.TrimRight(name, "/")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		name = "/"
	}
	if len(args) > 1 {
		name = strings.TrimSuffix(name, args[1])
	}
	fmt.Fprintln(cc.out, name)
	return 0
}

func cmdDirname(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	if len(args) == 0 {
		return cc.fail("dirname: missing operand\n")
	}
	name := strings.TrimRight(args[0], "/")
	idx := strings.LastIndexByte(name, '/')
	switch {
	case idx < 0:
		fmt.Fprintln(cc.out, ".")
	case idx == 0:
		fmt.Fprintln(cc.out, "/")
	default:
		fmt.Fprintln(cc.out, name[:idx])
	}
	return 0
}

func cmdFind(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	root := "."
	printZero := false
	var namePat string
	i := 0
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		root = args[0]
		i = 1
	}
	for ; i < len(args); i++ {
		switch args[i] {
		case "-print0":
			printZero = true
		case "-name":
			i++
			if i < len(args) {
				namePat = args[i]
			}
		case "-print":
			// default behavior
		}
	}
	abs := resolvePath(cc.dir, root)
	var out []string
	fs := cc.fs.FS()
	var walk func(p, rel string) error
	walk = func(p, rel string) error {
		info, err := fs.Stat(p)
		if err != nil {
			return err
		}
		if namePat == "" || matchGlob(namePat, lastSeg(rel)) {
			out = append(out, rel)
		}
		if !info.IsDir() {
			return nil
		}
		entries, err := fs.ReadDir(p)
		if err != nil {
			return err
		}
		for _, e := range entries {
			childRel := rel + "/" + e.Name
			if rel == "." {
				childRel = e.Name
			}
			if err := walk(p+"/"+e.Name, childRel); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(abs, root); err != nil {
		return cc.fail("find: %s: %v\n", root, unwrapFS(err))
	}
	var b bytes.Buffer
	for _, p := range out {
		b.WriteString(p)
		if printZero {
			b.WriteByte(0)
		} else {
			b.WriteByte('\n')
		}
	}
	cc.out.Write(b.Bytes())
	return 0
}

func lastSeg(p string) string {
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

func matchGlob(pat, name string) bool {
	ok, err := pathMatch(pat, name)
	return err == nil && ok
}

func cmdSeq(ctx context.Context, cc *callCtx) int {
	args := cc.args[1:]
	var from, to, step int64 = 1, 1, 1
	switch len(args) {
	case 1:
		fmt.Sscanf(args[0], "%d", &to)
	case 2:
		fmt.Sscanf(args[0], "%d", &from)
		fmt.Sscanf(args[1], "%d", &to)
	case 3:
		fmt.Sscanf(args[0], "%d", &from)
		fmt.Sscanf(args[1], "%d", &step)
		fmt.Sscanf(args[2], "%d", &to)
	default:
		return cc.fail("seq: usage: seq [first [step]] last\n")
	}
	if step == 0 {
		return cc.fail("seq: step may not be zero\n")
	}
	for v := from; (step > 0 && v <= to) || (step < 0 && v >= to); v += step {
		fmt.Fprintln(cc.out, v)
	}
	return 0
}

func cmdXargs(ctx context.Context, cc *callCtx) int {
	in := readAll(cc.stdin)
	fields := strings.Fields(in)
	cmdArgs := append(append([]string{}, cc.args[1:]...), fields...)
	if len(cmdArgs) == 0 {
		return 0
	}
	sub, ok := registry[cmdArgs[0]]
	if !ok || sub == nil {
		return cc.fail("xargs: %s: command not found\n", cmdArgs[0])
	}
	subCC := *cc
	subCC.args = cmdArgs
	return sub(ctx, &subCC)
}

func unwrapFS(err error) error {
	if pe, ok := err.(*fsys.PathError); ok {
		return pe.Err
	}
	return err
}
