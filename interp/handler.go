// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/shellgrove/shellgrove/expand"
	"github.com/shellgrove/shellgrove/syntax"
)

// HandlerCtx returns HandlerContext value stored in ctx.
// It panics if ctx has no HandlerContext stored.
func HandlerCtx(ctx context.Context) HandlerContext {
	hc, ok := ctx.Value(handlerCtxKey{}).(HandlerContext)
	if !ok {
		panic("interp.HandlerCtx: no HandlerContext in ctx")
	}
	return hc
}

type handlerCtxKey struct{}

// handlerKind tells HandlerContext.Builtin which handler slot the context
// was built for, since only an ExecHandlerFunc is allowed to fall through to
// a shell builtin.
type handlerKind uint8

const (
	handlerKindExec handlerKind = iota
	handlerKindOpen
	handlerKindReadDir
	handlerKindCall
)

// HandlerContext is the data passed to all the handler functions via [context.WithValue].
// It contains some of the current state of the [Runner].
type HandlerContext struct {
	// Env is a read-only version of the interpreter's environment,
	// including environment variables, global variables, and local function
	// variables.
	Env expand.Environ

	// Dir is the interpreter's current directory.
	Dir string

	// Stdin is the interpreter's current standard input reader.
	Stdin io.Reader
	// Stdout is the interpreter's current standard output writer.
	Stdout io.Writer
	// Stderr is the interpreter's current standard error writer.
	Stderr io.Writer

	// Pos is the position of the command the handler was invoked for.
	Pos syntax.Pos

	runner *Runner
	kind   handlerKind
}

// CallHandlerFunc is a handler which runs on every [syntax.CallExpr].
// It is called once variable assignments and field expansion have occurred.
// The call's arguments are replaced by what the handler returns,
// and then the call is executed by the Runner as usual.
// At this time, returning an empty slice without an error is not supported.
//
// This handler is similar to [ExecHandlerFunc], but has two major differences:
//
// First, it runs for all simple commands, including function calls and builtins.
//
// Second, it is not expected to execute the simple command, but instead to
// allow running custom code which allows replacing the argument list.
// Shell builtins touch on many internals of the Runner, after all.
//
// Returning a non-nil error will halt the Runner.
type CallHandlerFunc func(ctx context.Context, args []string) ([]string, error)

// ExecHandlerFunc is a handler which executes simple commands.
// It is called for all [syntax.CallExpr] nodes
// where the first argument is neither a declared function nor a builtin.
//
// Returning a nil error means a zero exit status.
// Other exit statuses can be set with [NewExitStatus].
// Any other error will halt the Runner.
type ExecHandlerFunc func(ctx context.Context, args []string) error

// DefaultExecHandler returns the [ExecHandlerFunc] used when no command
// registry middleware (see [ExecHandlers], and the coreutils/awk/sedlang/
// jqlang/httpx packages that install one) claims a name. There is no real
// operating system underneath this interpreter, so the only thing left to
// do is report "command not found", exactly as a real shell does for a
// PATH lookup miss.
func DefaultExecHandler() ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		hc := HandlerCtx(ctx)
		fmt.Fprintf(hc.Stderr, "%s: command not found\n", args[0])
		return NewExitStatus(127)
	}
}

// checkStat resolves file against dir using stat, applying the
// executable-bit check that PATH lookups require.
func checkStat(ctx context.Context, stat StatHandlerFunc, dir, file string, checkExec bool) (string, error) {
	if !path.IsAbs(file) {
		file = path.Join(dir, file)
	}
	info, err := stat(ctx, file, true)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("is a directory")
	}
	if checkExec && info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("permission denied")
	}
	return file, nil
}

// findExecutable returns the path to an existing executable file.
func findExecutable(ctx context.Context, stat StatHandlerFunc, dir, file string) (string, error) {
	return checkStat(ctx, stat, dir, file, true)
}

// findFile returns the path to an existing file.
func findFile(ctx context.Context, stat StatHandlerFunc, dir, file string) (string, error) {
	return checkStat(ctx, stat, dir, file, false)
}

// LookPathDir is similar to [os/exec.LookPath], with the difference that it
// resolves against the session's in-memory filesystem (through stat) rather
// than the real one. env is used to fetch PATH.
//
// If no error is returned, the returned path must be valid.
func LookPathDir(ctx context.Context, stat StatHandlerFunc, cwd string, env expand.Environ, file string) (string, error) {
	return lookPathDir(ctx, stat, cwd, env, file, findExecutable)
}

type findAny = func(ctx context.Context, stat StatHandlerFunc, dir string, file string) (string, error)

func lookPathDir(ctx context.Context, stat StatHandlerFunc, cwd string, env expand.Environ, file string, find findAny) (string, error) {
	pathList := strings.Split(env.Get("PATH").String(), ":")
	if len(pathList) == 0 || (len(pathList) == 1 && pathList[0] == "") {
		pathList = []string{""}
	}
	if strings.Contains(file, "/") {
		return find(ctx, stat, cwd, file)
	}
	for _, elem := range pathList {
		var p string
		switch elem {
		case "", ".":
			p = "./" + file
		default:
			p = path.Join(elem, file)
		}
		if f, err := find(ctx, stat, cwd, p); err == nil {
			return f, nil
		}
	}
	return "", fmt.Errorf("%q: executable file not found in $PATH", file)
}

// scriptFromPathDir is similar to [LookPathDir], with the difference that it looks
// for both executable and non-executable files.
func scriptFromPathDir(ctx context.Context, stat StatHandlerFunc, cwd string, env expand.Environ, file string) (string, error) {
	return lookPathDir(ctx, stat, cwd, env, file, findFile)
}

// OpenHandlerFunc is a handler which opens files.
// It is called for all files that are opened directly by the shell,
// such as in redirects.
//
// The path parameter may be relative to the current directory,
// which can be fetched via [HandlerCtx].
//
// Use a return error of type [*os.PathError] to have the error printed to
// stderr and the exit status set to 1. If the error is of any other type, the
// interpreter will come to a stop.
type OpenHandlerFunc func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error)

// ReadDirHandlerFunc2 is a handler which reads directories. It is called
// during shell globbing, if enabled.
type ReadDirHandlerFunc2 func(ctx context.Context, path string) ([]fs.DirEntry, error)

// StatHandlerFunc is a handler which gets a file's information.
type StatHandlerFunc func(ctx context.Context, name string, followSymlinks bool) (fs.FileInfo, error)

// DefaultOpenHandler, DefaultReadDirHandler2, and DefaultStatHandler all
// return handlers that fail closed: a [Runner] built with [New] and no
// further options has no filesystem to back onto. [session.New] always
// installs FS-backed handlers wired to the session's [fsys.FS] cell; these
// three defaults only matter when [interp.Runner] is embedded directly
// without going through the session package (e.g. in unit tests that only
// exercise pure expansion/arithmetic and never touch a file).
func DefaultOpenHandler() OpenHandlerFunc {
	return func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
		return nil, fmt.Errorf("open %s: no filesystem installed", path)
	}
}

func DefaultReadDirHandler2() ReadDirHandlerFunc2 {
	return func(ctx context.Context, path string) ([]fs.DirEntry, error) {
		return nil, fmt.Errorf("readdir %s: no filesystem installed", path)
	}
}

func DefaultStatHandler() StatHandlerFunc {
	return func(ctx context.Context, path string, followSymlinks bool) (fs.FileInfo, error) {
		return nil, fmt.Errorf("stat %s: no filesystem installed", path)
	}
}
