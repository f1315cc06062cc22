// Package bypass recognises bot-protection challenge pages so the fetcher can
// treat them as blocked instead of parsing a captcha as article text.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Page is the part of an HTTP response the detectors look at.
type Page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector reports whether p is a challenge page and which vendor served it.
type Detector func(p Page) (detected bool, source string)

// signature describes one vendor's challenge page. A page matches when its
// status is listed and any of the server, header or body markers is present.
type signature struct {
	source   string
	statuses []int
	servers  []string
	headers  []string
	bodies   [][]byte
	// bodyAll markers must all be present for a body-only match.
	bodyAll [][]byte
}

var signatures = []signature{
	{
		source:   "Cloudflare",
		statuses: []int{http.StatusForbidden, http.StatusServiceUnavailable},
		servers:  []string{"cloudflare"},
		bodies: [][]byte{
			[]byte("cf-browser-verification"),
			[]byte("cloudflare-nginx"),
			[]byte("cf-turnstile"),
			[]byte("Attention Required! | Cloudflare"),
		},
	},
	{
		source:   "Akamai",
		statuses: []int{http.StatusForbidden},
		servers:  []string{"akamai"},
		bodyAll:  [][]byte{[]byte("Reference #"), []byte("Access Denied")},
	},
	{
		source:   "DataDome",
		statuses: []int{http.StatusForbidden},
		servers:  []string{"datadome"},
		headers:  []string{"X-DataDome", "X-DataDome-Response"},
		bodies:   [][]byte{[]byte("geo.captcha-delivery.com"), []byte("datadome")},
	},
	{
		source:   "PerimeterX",
		statuses: []int{http.StatusForbidden},
		headers:  []string{"X-Px-Captcha"},
		bodies: [][]byte{
			[]byte("client.perimeterx.net"),
			[]byte("px-captcha"),
			[]byte("_pxBlock"),
		},
	},
}

func (s signature) detect(p Page) (bool, string) {
	statusHit := false
	for _, code := range s.statuses {
		if p.StatusCode == code {
			statusHit = true
			break
		}
	}
	if !statusHit {
		return false, ""
	}

	server := strings.ToLower(p.Header.Get("Server"))
	for _, marker := range s.servers {
		if strings.Contains(server, marker) {
			return true, s.source
		}
	}
	for _, h := range s.headers {
		if p.Header.Get(h) != "" {
			return true, s.source
		}
	}
	for _, b := range s.bodies {
		if bytes.Contains(p.Body, b) {
			return true, s.source
		}
	}
	if len(s.bodyAll) > 0 {
		for _, b := range s.bodyAll {
			if !bytes.Contains(p.Body, b) {
				return false, ""
			}
		}
		return true, s.source
	}
	return false, ""
}

// DefaultDetectors returns detectors for Cloudflare, Akamai, DataDome and PerimeterX.
func DefaultDetectors() []Detector {
	out := make([]Detector, 0, len(signatures))
	for _, s := range signatures {
		out = append(out, s.detect)
	}
	return out
}

// Analyze runs p through detectors and returns the first vendor that matched.
func Analyze(p Page, detectors []Detector) (source string, blocked bool) {
	for _, d := range detectors {
		if ok, src := d(p); ok {
			return src, true
		}
	}
	return "", false
}
