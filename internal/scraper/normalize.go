package scraper

import (
	"net/url"
	"strings"
)

// CleanText collapses runs of whitespace and newlines to single spaces and
// trims the ends. Non-breaking spaces count as whitespace.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// ResolveURL makes href absolute against the source's base origin. An href
// that already carries a scheme is returned as is; unparseable input
// resolves to empty, never to a partial URL.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
