package httpx

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAllowListPatterns(t *testing.T) {
	tests := []struct {
		name    string
		allow   AllowList
		host    string
		allowed bool
	}{
		{"disabled refuses everything", AllowList{Enabled: false, Patterns: []string{"*"}}, "example.com", false},
		{"literal host matches", AllowList{Enabled: true, Patterns: []string{"example.com"}}, "example.com", true},
		{"literal host rejects others", AllowList{Enabled: true, Patterns: []string{"example.com"}}, "other.com", false},
		{"wildcard subdomain matches subdomain", AllowList{Enabled: true, Patterns: []string{"*.example.com"}}, "api.example.com", true},
		{"wildcard subdomain matches bare domain", AllowList{Enabled: true, Patterns: []string{"*.example.com"}}, "example.com", true},
		{"wildcard subdomain rejects unrelated", AllowList{Enabled: true, Patterns: []string{"*.example.com"}}, "evil.com", false},
		{"star allows anything", AllowList{Enabled: true, Patterns: []string{"*"}}, "anything.test", true},
		{"case insensitive", AllowList{Enabled: true, Patterns: []string{"Example.COM"}}, "example.com", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			qt.Assert(t, tc.allow.Allows(tc.host), qt.Equals, tc.allowed)
		})
	}
}

func TestDisabledClientRefuses(t *testing.T) {
	c := Disabled()
	_, err := c.Do(context.Background(), Request{Method: "GET", URL: "http://example.com"})
	qt.Assert(t, err, qt.Not(qt.IsNil))
}
