package fingerprint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransport_Profiles(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	for _, p := range []Profile{ProfileChrome, ProfileFirefox, ProfileSafari, ProfileGo, ProfileRandom} {
		t.Run(string(p), func(t *testing.T) {
			rt, err := Transport(p, Options{InsecureSkipVerify: true})
			if err != nil {
				t.Fatalf("unexpected error creating transport for %s: %v", p, err)
			}

			tr, ok := rt.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", rt)
			}
			if p != ProfileGo && tr.DialTLSContext == nil {
				t.Fatalf("expected utls dialer for profile %s", p)
			}

			resp, err := (&http.Client{Transport: tr}).Get(ts.URL)
			if err != nil {
				t.Fatalf("request failed for profile %s: %v", p, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200 OK, got %d for profile %s", resp.StatusCode, p)
			}
		})
	}
}

func TestTransport_UnknownProfile(t *testing.T) {
	if _, err := Transport(Profile("netscape"), Options{}); err == nil {
		t.Fatal("expected error for unknown profile, got nil")
	}
}

func TestParseProfile(t *testing.T) {
	cases := map[string]Profile{
		"":         ProfileChrome,
		"Chrome":   ProfileChrome,
		" safari ": ProfileSafari,
		"go":       ProfileGo,
		"random":   ProfileRandom,
	}
	for in, want := range cases {
		got, err := ParseProfile(in)
		if err != nil || got != want {
			t.Errorf("ParseProfile(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseProfile("lynx"); err == nil {
		t.Errorf("expected error for unknown profile")
	}
}
