// Package redact scrubs credentials out of strings before they reach logs or a terminal.
package redact

import (
	"regexp"
	"strings"
)

var (
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)
	apiKeyKVRe    = regexp.MustCompile(`(?i)\b((?:serp|openai|gemini)?[_-]?api[_-]?key|key)\b\s*[:=]\s*[^\s"'&]+`)
	openAIKeyRe   = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`)
)

// Secrets removes bearer tokens, api_key=... pairs and OpenAI-style keys from s.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "$1=<redacted>")
	out = openAIKeyRe.ReplaceAllString(out, "<redacted>")
	return strings.TrimSpace(out)
}

// Error is Secrets applied to err.Error(); nil yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Secrets(err.Error())
}
