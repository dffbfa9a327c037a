// Package session implements the session API: the only surface external
// callers see. It wires [interp.Runner] (the executor) to the in-memory
// [fsys.FS], an injected [httpx.Client], and a table of named database
// handles, and translates results to the plain [Result] type instead of
// leaking interpreter-internal error types.
package session

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shellgrove/shellgrove/expand"
	"github.com/shellgrove/shellgrove/fsys"
	"github.com/shellgrove/shellgrove/httpx"
	"github.com/shellgrove/shellgrove/interp"
	"github.com/shellgrove/shellgrove/syntax"
)

// Session is the sandboxed shell session: a value holding cwd,
// environment, function table, shell options, trap table, FS value, and
// HTTP client handle, evolved functionally by [Session.Exec]. The
// [interp.Runner] embedded here is the executor, carrying most of that
// record internally; fs/http/db are the additions this session layer
// injects.
type Session struct {
	runner *interp.Runner
	fs     fsys.FS
	http   httpx.Client
	dbs    map[string]*DbHandle
	clock  func() time.Time
}

// NetworkConfig is the session's `network: { enabled, allow_list }`
// option.
type NetworkConfig struct {
	Enabled   bool
	AllowList []string
}

// Option configures a [Session] at construction time, following the same
// functional-options convention as [interp.RunnerOption].
type Option func(*Session, *buildState) error

// buildState collects option input that has to be applied after the
// Runner exists (env, dir) or before it (initial files), since fsys.FS and
// interp.Runner are constructed in a fixed order inside [New].
type buildState struct {
	cwd     string
	env     []string
	files   map[string][]byte
	network NetworkConfig
	client  httpx.Client
}

// WithCwd sets the session's initial working directory.
func WithCwd(dir string) Option {
	return func(s *Session, b *buildState) error {
		b.cwd = dir
		return nil
	}
}

// WithEnv sets the initial environment as "NAME=value" pairs.
func WithEnv(pairs ...string) Option {
	return func(s *Session, b *buildState) error {
		b.env = pairs
		return nil
	}
}

// WithFiles populates the in-memory filesystem at construction time, keyed
// by absolute path.
func WithFiles(files map[string][]byte) Option {
	return func(s *Session, b *buildState) error {
		if b.files == nil {
			b.files = map[string][]byte{}
		}
		for k, v := range files {
			b.files[k] = v
		}
		return nil
	}
}

// WithNetwork configures curl's network access.
func WithNetwork(cfg NetworkConfig) Option {
	return func(s *Session, b *buildState) error {
		b.network = cfg
		return nil
	}
}

// WithHTTPClient injects the HTTP client curl delegates to. If not
// supplied, network access uses [httpx.NewNetClient] when enabled,
// or [httpx.Disabled] otherwise.
func WithHTTPClient(c httpx.Client) Option {
	return func(s *Session, b *buildState) error {
		b.client = c
		return nil
	}
}

// WithClock overrides the clock used for file mtimes and `date`. Tests
// inject a fixed clock so `exec` stays pure over wall-clock reads.
func WithClock(clock func() time.Time) Option {
	return func(s *Session, b *buildState) error {
		s.clock = clock
		return nil
	}
}

// New constructs a [Session]: `new(opts) -> State`.
func New(opts ...Option) (*Session, error) {
	s := &Session{dbs: map[string]*DbHandle{}}
	b := &buildState{}
	for _, opt := range opts {
		if err := opt(s, b); err != nil {
			return nil, err
		}
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	s.fs = fsys.New(s.clock)
	for p, content := range b.files {
		var err error
		s.fs, err = s.fs.WriteFile(p, content, 0o644)
		if err != nil {
			return nil, fmt.Errorf("session: seeding file %q: %w", p, err)
		}
	}

	allow := httpx.AllowList{Patterns: b.network.AllowList, Enabled: b.network.Enabled}
	if b.client != nil {
		s.http = b.client
	} else if b.network.Enabled {
		s.http = httpx.NewNetClient(allow)
	} else {
		s.http = httpx.Disabled()
	}

	env := b.env
	if env == nil {
		env = []string{"HOME=/root", "PATH=/usr/bin:/bin", "PWD=/", "SHELL=/bin/sh"}
	}
	cwd := b.cwd
	if cwd == "" {
		cwd = "/"
	}

	r, err := interp.New(
		interp.Env(expand.ListEnviron(env...)),
		interp.Dir(cwd),
		interp.OpenHandler(s.openHandler()),
		interp.StatHandler(s.statHandler()),
		interp.ReadDirHandler2(s.readDirHandler()),
		interp.ExecHandlers(s.execMiddlewares()...),
	)
	if err != nil {
		return nil, err
	}
	s.runner = r
	return s, nil
}

// Exec runs script against the session, returning the per-invocation
// [Result] and mutating the session's internal state (env, cwd, functions,
// traps, fs) in place: `exec(State, script_text) -> (Result, State')`
// (State' here is simply the receiver, already updated).
func (s *Session) Exec(ctx context.Context, scriptText string) (Result, error) {
	file, err := syntax.Parse([]byte(scriptText), "")
	if err != nil {
		return Result{Stderr: err.Error() + "\n", ExitCode: 2}, nil
	}

	var stdout, stderr bytes.Buffer
	interp.StdIO(nil, &stdout, &stderr)(s.runner)

	runErr := s.runner.Run(ctx, file)
	code := 0
	if runErr != nil {
		if status, ok := interp.IsExitStatus(runErr); ok {
			code = int(status)
		} else {
			fmt.Fprintf(&stderr, "%v\n", runErr)
			code = 1
		}
	}
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code % 256}, nil
}

// FS returns a snapshot of the session's current in-memory filesystem,
// mainly useful for assertions in tests.
func (s *Session) FS() fsys.FS { return s.fs }
