package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		lookup CountryLookup
		want   string
	}{
		{
			name: "proxy header wins",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "de")
			},
			lookup: func(string) (string, error) { return "US", nil },
			want:   "DE",
		},
		{
			name: "lookup by forwarded ip",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
			},
			lookup: func(ip string) (string, error) {
				if ip != "203.0.113.9" {
					return "", assertError("unexpected ip " + ip)
				}
				return "jp", nil
			},
			want: "JP",
		},
		{
			name:   "lookup error ignored",
			lookup: func(string) (string, error) { return "", assertError("boom") },
			want:   "",
		},
		{
			name: "no lookup",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("ClientIP() = %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.1" {
		t.Fatalf("ClientIP() with forwarded = %q", got)
	}
}
