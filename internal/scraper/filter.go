package scraper

import (
	"net/url"
	"strings"

	"github.com/FranksOps/leadscout/internal/search"
)

// SkipExtensions mark documents, archives and media that are never fetched.
var SkipExtensions = []string{
	".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
	".zip", ".rar", ".tar", ".gz", ".7z",
	".mp4", ".avi", ".mov", ".wmv", ".flv", ".mp3", ".wav", ".flac",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff",
	".exe", ".dmg", ".deb", ".rpm",
}

// SkipPathIndicators mark download and asset areas of a site.
var SkipPathIndicators = []string{
	"/download/", "/files/", "/assets/", "/documents/", "/reports/",
	"/annual-reports/", "/financial-reports/", "/siteassets/", "/uploads/", "/media/",
}

// DefaultSkipDomains extends the search denylist with hosts that serve
// players or storefronts instead of articles.
var DefaultSkipDomains = append(append([]string{}, search.DefaultDenyDomains...), "podcasts.apple.com")

// RelevanceKeywords must appear somewhere in an article for it to be kept.
var RelevanceKeywords = []string{
	"ceo", "cfo", "cmo", "cto", "coo", "cio", "chief", "executive", "president", "director",
}

// SkipReason explains why u should not be requested, or returns "" if it may be.
func SkipReason(u *url.URL, skipDomains []string) string {
	if u == nil {
		return "invalid url"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "unsupported scheme " + u.Scheme
	}
	if u.Host == "" {
		return "missing host"
	}
	if search.HostDenied(u.Hostname(), skipDomains) {
		return "denylisted domain " + u.Hostname()
	}

	path := strings.ToLower(u.EscapedPath())
	for _, ext := range SkipExtensions {
		if strings.Contains(path, ext) {
			return "file extension " + ext
		}
	}
	for _, ind := range SkipPathIndicators {
		if strings.Contains(path, ind) {
			return "file path " + ind
		}
	}
	return ""
}
