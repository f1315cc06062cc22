package search

import (
	"net/url"
	"strings"
)

// DefaultDenyDomains are hosts whose pages never carry usable executive news:
// social networks, job boards and search portals.
var DefaultDenyDomains = []string{
	"youtube.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"monster.com",
	"google.com",
	"bing.com",
	"yahoo.com",
	"reddit.com",
	"amazon.com",
}

// DefaultKeywords must appear in a result's title or snippet for it to be kept.
var DefaultKeywords = []string{
	"executive", "ceo", "cfo", "cmo", "cto", "coo", "cio", "chief",
	"president", "director", "manager", "officer", "leadership", "management", "board",
}

// HostDenied reports whether host equals, or is a subdomain of, any entry in deny.
func HostDenied(host string, deny []string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	for _, d := range deny {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// URLDenied parses raw and applies HostDenied. Unparseable URLs are denied.
func URLDenied(raw string, deny []string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return true
	}
	return HostDenied(u.Hostname(), deny)
}
