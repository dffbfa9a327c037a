// Package httpx defines the HTTP contract consumed by the curl builtin.
// The core never imports net/http directly for outbound requests: a
// [Client] is injected into the session so that tests and sandboxed
// callers can swap in a fake without any real network access.
package httpx

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Request is the shape of an outbound HTTP request curl builds.
type Request struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            []byte
	TimeoutMS       int
	FollowRedirects bool
	Insecure        bool
}

// Response is the shape of an HTTP response curl receives. Headers is an
// ordered list rather than a map, since some scripts rely on repeated
// header names (e.g. Set-Cookie). [NetClient] fills it from net/http's
// header map: values of one name keep their received order, but the order
// across different names is not defined.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}

// Header is one response header, kept as an ordered pair rather than a map
// so that repeated header names survive.
type Header struct {
	Name  string
	Value string
}

// Get returns the first value for name, case-insensitively, or "" if absent.
func (r Response) Get(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Reason enumerates the kinds of request failure a [Client] can report.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonTimeout
	ReasonConnRefused
	ReasonNXDomain
)

// Error is the error type returned by [Client.Do] on failure.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Reason {
	case ReasonTimeout:
		return "timeout"
	case ReasonConnRefused:
		return "connection refused"
	case ReasonNXDomain:
		return "could not resolve host"
	default:
		return "request failed"
	}
}

// Client is the collaborator curl delegates to. The core never performs
// network I/O itself; every implementation of Client is an external
// collaborator injected by the caller.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// AllowList matches request hosts against a set of patterns: a literal
// host, "*.domain" (matches the bare domain and any subdomain),
// or "*"/"**" (any host).
type AllowList struct {
	Patterns []string
	Enabled  bool
}

// Allows reports whether host may be contacted under this allow-list.
func (a AllowList) Allows(host string) bool {
	if !a.Enabled {
		return false
	}
	host = strings.ToLower(host)
	for _, raw := range a.Patterns {
		pat := strings.ToLower(raw)
		switch {
		case pat == "*" || pat == "**":
			return true
		case strings.HasPrefix(pat, "*."):
			suffix := pat[1:] // ".domain"
			bare := pat[2:]
			if host == bare || strings.HasSuffix(host, suffix) {
				return true
			}
		case pat == host:
			return true
		}
	}
	return false
}

// disabledClient rejects every request; it backs sessions built with
// network disabled, the default, since network access here is an
// explicit opt-in.
type disabledClient struct{}

// Disabled returns a [Client] that refuses every request. Used when a
// session is constructed with network disabled and no client overridden.
func Disabled() Client { return disabledClient{} }

func (disabledClient) Do(ctx context.Context, req Request) (Response, error) {
	return Response{}, &Error{Reason: ReasonOther, Message: fmt.Sprintf("network disabled: %s %s", req.Method, req.URL)}
}

// timeoutFor returns a context carrying the request's timeout, defaulting
// to no timeout when TimeoutMS is zero or negative.
func timeoutFor(ctx context.Context, ms int) (context.Context, context.CancelFunc) {
	if ms <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
}
