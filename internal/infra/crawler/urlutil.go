// Package crawler discovers candidate article URLs on configured news sites,
// either by scanning the front page for links (goquery) or by reading the
// site's RSS/Atom feed (gofeed).
package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

// articlePatterns match URL paths Vietnamese news sites use for articles:
// dated archives and the common section slugs.
var articlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/\d{4}/\d{2}/`),
	regexp.MustCompile(`/tin-tuc/`),
	regexp.MustCompile(`/bai-viet/`),
	regexp.MustCompile(`/suc-khoe/`),
	regexp.MustCompile(`/the-gioi/`),
	regexp.MustCompile(`/kinh-doanh/`),
	regexp.MustCompile(`/giai-tri/`),
	regexp.MustCompile(`/the-thao/`),
	regexp.MustCompile(`/phap-luat/`),
	regexp.MustCompile(`/giao-duc/`),
	regexp.MustCompile(`/du-lich/`),
}

// ignorePatterns match listing, search, auth, feed, and asset URLs.
var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/tag/`),
	regexp.MustCompile(`/tags/`),
	regexp.MustCompile(`/search/`),
	regexp.MustCompile(`/login/`),
	regexp.MustCompile(`/register/`),
	regexp.MustCompile(`/rss/`),
	regexp.MustCompile(`/feed/`),
	regexp.MustCompile(`\.(jpg|jpeg|png|gif|pdf|mp3|mp4)$`),
}

// IsArticleURL reports whether a URL looks like an article page. A positive
// pattern match wins outright; an ignore match loses; anything else passes,
// matching the lenient behavior sites with unusual URL schemes need.
func IsArticleURL(rawURL string) bool {
	for _, p := range articlePatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	for _, p := range ignorePatterns {
		if p.MatchString(rawURL) {
			return false
		}
	}
	return true
}

// StripFragment normalizes a URL by dropping its fragment, so
// "https://site.vn/bai#comment" and the bare URL dedup to one record.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// sameHost reports whether candidate points at the same host as base.
func sameHost(base *url.URL, candidate *url.URL) bool {
	return base.Host == candidate.Host
}
