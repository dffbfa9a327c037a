// boxsh is a sandboxed shell CLI built on top of [session]. It never
// touches the real filesystem or process table: every run starts from an
// empty in-memory [fsys.FS] seeded only from -file flags, and network
// access is off unless -net is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shellgrove/shellgrove/httpx"
	"github.com/shellgrove/shellgrove/session"
	"github.com/shellgrove/shellgrove/syntax"
	"github.com/shellgrove/shellgrove/syntax/typedjson"
)

var (
	command = flag.String("c", "", "command to be executed")
	netFlag = flag.Bool("net", false, "allow curl to reach the real network")
	dump    = flag.Bool("dump", false, "parse only, dumping the syntax tree as typed JSON")

	files fileFlags
)

// fileFlags collects repeated -file dest=hostpath pairs used to seed the
// in-memory filesystem.
type fileFlags struct {
	seed map[string][]byte
}

func (f *fileFlags) String() string { return "" }

func (f *fileFlags) Set(s string) error {
	dest, src, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("-file wants dest=hostpath, got %q", s)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if f.seed == nil {
		f.seed = make(map[string][]byte)
	}
	f.seed[dest] = data
	return nil
}

func init() {
	flag.Var(&files, "file", "seed the in-memory filesystem: dest=hostpath (repeatable)")
}

func main() { os.Exit(main1()) }

// main1 is split out from main so [testscript.RunMain] can register it as
// an in-process "boxsh" command, the same trick cmd/shfmt uses for its
// scripted tests.
func main1() int {
	flag.Parse()
	code, err := runAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

func runAll() (int, error) {
	var opts []session.Option
	if *netFlag {
		opts = append(opts,
			session.WithNetwork(session.NetworkConfig{Enabled: true, AllowList: []string{"*"}}),
			session.WithHTTPClient(httpx.NewNetClient(httpx.AllowList{Enabled: true, Patterns: []string{"*"}})),
		)
	}
	if files.seed != nil {
		opts = append(opts, session.WithFiles(files.seed))
	}
	s, err := session.New(opts...)
	if err != nil {
		return 1, err
	}

	ctx := context.Background()

	if *command != "" {
		return runScript(ctx, s, *command)
	}
	if flag.NArg() == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return 1, err
		}
		return runScript(ctx, s, string(data))
	}
	var code int
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return 1, err
		}
		code, err = runScript(ctx, s, string(data))
		if err != nil {
			return code, err
		}
	}
	return code, nil
}

func runScript(ctx context.Context, s *session.Session, script string) (int, error) {
	if *dump {
		file, err := syntax.Parse([]byte(script), "")
		if err != nil {
			return 2, err
		}
		if err := typedjson.Encode(os.Stdout, file); err != nil {
			return 1, err
		}
		return 0, nil
	}
	res, err := s.Exec(ctx, script)
	if err != nil {
		return 1, err
	}
	io.WriteString(os.Stdout, res.Stdout)
	io.WriteString(os.Stderr, res.Stderr)
	return res.ExitCode, nil
}
