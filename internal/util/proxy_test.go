package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProxyFunc_ExplicitProxy(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://sproxy.internal:3128", "")

	req := httptest.NewRequest(http.MethodGet, "https://api.openai.com/v1/moderations", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u == nil || u.Host != "sproxy.internal:3128" {
		t.Errorf("Expected the https proxy, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://api.openai.com/v1/moderations", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u == nil || u.Host != "proxy.internal:3128" {
		t.Errorf("Expected the http proxy, got %v", u)
	}
}

func TestNewProxyFunc_NoProxyExemptions(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "localhost, internal.corp")

	cases := []struct {
		url    string
		direct bool
	}{
		{"http://localhost:8080/x", true},
		{"http://gateway.internal.corp/x", true},
		{"http://api.openai.com/v1/moderations", false},
		{"http://notinternal.corp.evil.com/x", false},
	}

	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.url, nil)
		u, err := proxy(req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.url, err)
		}
		if c.direct && u != nil {
			t.Errorf("%s: expected direct connection, got proxy %v", c.url, u)
		}
		if !c.direct && u == nil {
			t.Errorf("%s: expected proxied connection", c.url)
		}
	}
}
