package redact

import (
	"errors"
	"strings"
	"testing"
)

func TestSecrets(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Authorization: Bearer abc.def.ghi failed", "Bearer <redacted>"},
		{"GET https://serpapi.com/search?q=x&api_key=12345&num=10", "api_key=<redacted>"},
		{"openai: invalid key sk-abcdefghijklmnopqrstuvwxyz", "<redacted>"},
		{"GEMINI_API_KEY: zzz", "<redacted>"},
	}
	for _, tc := range cases {
		in, want := tc.in, tc.want
		got := Secrets(in)
		if !strings.Contains(got, want) {
			t.Errorf("Secrets(%q) = %q, want it to contain %q", in, got, want)
		}
		for _, leak := range []string{"abc.def.ghi", "12345", "sk-abcdef", "zzz"} {
			if strings.Contains(in, leak) && strings.Contains(got, leak) {
				t.Errorf("Secrets(%q) leaked %q: %q", in, leak, got)
			}
		}
	}
}

func TestSecrets_LeavesPlainText(t *testing.T) {
	in := "search failed: status 503"
	if got := Secrets(in); got != in {
		t.Errorf("expected unchanged message, got %q", got)
	}
	if Error(nil) != "" {
		t.Errorf("expected empty string for nil error")
	}
	if got := Error(errors.New("api_key=secret")); strings.Contains(got, "secret") {
		t.Errorf("Error leaked secret: %q", got)
	}
}
