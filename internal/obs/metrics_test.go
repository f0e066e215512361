package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/metrics":                     "/metrics",
		"/v1/employers/abc":            "/v1/employers/:id",
		"/v1/invitations/01HZX":        "/v1/invitations/:id",
		"/v1/invitations/validate":     "/v1/invitations/validate",
		"/v1/employers/abc/extra":      "/v1/employers/abc/extra",
		"/v1/guard?area=admin":         "/v1/guard",
		"/v1/auth/signin":              "/v1/auth/signin",
		"/v1/invitations?employer=abc": "/v1/invitations",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
