package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// NetClient is the default [Client] implementation, backed by the standard
// library's net/http. Sessions that opt into real network access and do not
// inject their own [Client] get one of these.
type NetClient struct {
	allow AllowList
}

// NewNetClient returns a [NetClient] gated by allow. Every request is
// checked against allow before it reaches the real network, independent of
// whatever gating the caller's session layer also does, so NetClient is
// safe to hand out on its own.
func NewNetClient(allow AllowList) *NetClient {
	return &NetClient{allow: allow}
}

func (c *NetClient) Do(ctx context.Context, req Request) (Response, error) {
	u, err := parseHost(req.URL)
	if err != nil {
		return Response{}, &Error{Reason: ReasonOther, Message: err.Error()}
	}
	if !c.allow.Allows(u) {
		return Response{}, &Error{Reason: ReasonOther, Message: "host not in network allow-list: " + u}
	}

	ctx, cancel := timeoutFor(ctx, req.TimeoutMS)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, &Error{Reason: ReasonOther, Message: err.Error()}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{}
	if !req.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if req.Insecure {
		client.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, classify(err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &Error{Reason: ReasonOther, Message: err.Error()}
	}

	headers := make([]Header, 0, len(resp.Header))
	for name, values := range resp.Header {
		for _, v := range values {
			headers = append(headers, Header{Name: name, Value: v})
		}
	}
	return Response{Status: resp.StatusCode, Headers: headers, Body: respBody}, nil
}

func parseHost(rawURL string) (string, error) {
	idx := strings.Index(rawURL, "://")
	rest := rawURL
	if idx >= 0 {
		rest = rawURL[idx+3:]
	}
	if at := strings.IndexByte(rest, '@'); at >= 0 {
		rest = rest[at+1:]
	}
	for i, c := range rest {
		if c == '/' || c == '?' || c == '#' {
			rest = rest[:i]
			break
		}
	}
	host, _, err := net.SplitHostPort(rest)
	if err != nil {
		host = rest
	}
	if host == "" {
		return "", errors.New("curl: invalid URL")
	}
	return host, nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Reason: ReasonTimeout, Message: "timeout"}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Reason: ReasonNXDomain, Message: dnsErr.Error()}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if strings.Contains(opErr.Error(), "refused") {
			return &Error{Reason: ReasonConnRefused, Message: opErr.Error()}
		}
	}
	return &Error{Reason: ReasonOther, Message: err.Error()}
}
