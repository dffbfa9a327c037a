// Package coreutils implements the file-manipulation builtins run outside
// the interpreter core (`ls`, `cp`, `mv`, `rm`, `cat`, `head`, `tail`,
// `sort`, `wc`, `uniq`, `grep`, `tr`, `cut`, `find`, `base64`, `date`, and
// friends), each a thin transducer over the [fsys.FS] contract.
//
// Commands are dispatched by name through an [interp.ExecHandlerFunc]
// middleware backed by a registry of builders, the same shape
// `u-root/u-root`'s `core.Command` registry uses for a real operating
// system. This registry targets the sandboxed in-memory filesystem
// instead: no command here spawns a real process.
package coreutils

import (
	"context"
	"fmt"
	"io"

	"github.com/shellgrove/shellgrove/fsys"
	"github.com/shellgrove/shellgrove/interp"
)

// FSCell is the seam between this package and whatever owns the session's
// filesystem value (package session). Commands read the current value at
// the start of a call and, if they mutate the tree, write the new value
// back — the same "state in, state out" discipline [fsys.FS] itself uses.
type FSCell interface {
	FS() fsys.FS
	SetFS(fsys.FS)
}

// Clock returns the current time. Mockable, so that exec stays free of
// hidden wall-clock reads: only explicit commands like date observe it.
type Clock func() (unixSeconds int64)

// Command is a single coreutils builtin: given argv (Args()[0] is the
// command name) and the calling I/O/FS context, it writes output and
// returns the process's exit code. It is exported so that the session
// package can splice in `awk`, `sed`, `jq`, and `curl` as additional
// commands (via [Handler]'s extra map) without this package importing
// theirs.
type Command func(ctx context.Context, cc *Context) int

type command = Command

// Context bundles everything a command body needs, so that adding a new
// command to the registry doesn't widen every existing signature.
type Context struct {
	args  []string
	stdin io.Reader
	out   io.Writer
	errw  io.Writer
	dir   string
	fs    FSCell
	clock Clock
}

type callCtx = Context

// Args returns argv, with Args()[0] the command name.
func (c *Context) Args() []string { return c.args }

// Stdin returns the command's standard input.
func (c *Context) Stdin() io.Reader { return c.stdin }

// Stdout returns the command's standard output.
func (c *Context) Stdout() io.Writer { return c.out }

// Stderr returns the command's standard error.
func (c *Context) Stderr() io.Writer { return c.errw }

// Dir returns the command's current working directory.
func (c *Context) Dir() string { return c.dir }

// FS returns the filesystem cell the command should read and, if it
// mutates the tree, write back via [FSCell.SetFS].
func (c *Context) FS() FSCell { return c.fs }

// Now returns the injected clock's current Unix time.
func (c *Context) Now() int64 { return c.clock() }

// Resolve resolves p against the command's current directory.
func (c *Context) Resolve(p string) string { return resolvePath(c.dir, p) }

// Fail writes a formatted diagnostic to stderr and returns exit code 1,
// the conventional command-error shape.
func (c *Context) Fail(format string, a ...any) int { return c.fail(format, a...) }

var registry = map[string]command{
	"cat":      cmdCat,
	"echo":     nil, // handled by the interpreter's own builtin; never registered
	"ls":       cmdLs,
	"mkdir":    cmdMkdir,
	"rm":       cmdRm,
	"touch":    cmdTouch,
	"cp":       cmdCp,
	"mv":       cmdMv,
	"wc":       cmdWc,
	"uniq":     cmdUniq,
	"sort":     cmdSort,
	"head":     cmdHead,
	"tail":     cmdTail,
	"cut":      cmdCut,
	"tr":       cmdTr,
	"grep":     cmdGrep,
	"find":     cmdFind,
	"base64":   cmdBase64,
	"basename": cmdBasename,
	"dirname":  cmdDirname,
	"date":     cmdDate,
	"seq":      cmdSeq,
}

func init() {
	delete(registry, "echo")
	// xargs looks commands up in registry, so it is added here rather than
	// in the literal above, which would be an initialization cycle.
	registry["xargs"] = cmdXargs
}

// Handler returns an [interp.ExecHandlerFunc] middleware that claims every
// name in the registry, plus any name in extra (the session package uses
// this to splice in `awk`, `sed`, `jq`, `curl`, and `sqlite3` without this
// package needing to import theirs), and falls through to next otherwise.
func Handler(cell FSCell, clock Clock, extra map[string]command) func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return next(ctx, args)
			}
			cmd, ok := registry[args[0]]
			if !ok || cmd == nil {
				if extra != nil {
					if c, ok := extra[args[0]]; ok && c != nil {
						cmd = c
					}
				}
			}
			if cmd == nil {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)
			cc := &callCtx{
				args:  args,
				stdin: hc.Stdin,
				out:   hc.Stdout,
				errw:  hc.Stderr,
				dir:   hc.Dir,
				fs:    cell,
				clock: clock,
			}
			code := cmd(ctx, cc)
			if code != 0 {
				return interp.NewExitStatus(uint8(code))
			}
			return nil
		}
	}
}

func (c *callCtx) fail(format string, a ...any) int {
	fmt.Fprintf(c.errw, format, a...)
	return 1
}

func resolvePath(dir, p string) string {
	return fsys.ResolvePath(dir, p)
}
