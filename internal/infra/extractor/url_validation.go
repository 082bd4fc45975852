// Package extractor fetches article pages and extracts readable text using
// the Mozilla Readability algorithm (go-shiori/go-readability).
package extractor

import (
	"fmt"
	"net"
	"net/url"

	"newsmood/internal/usecase/analyze"
)

// validateURL checks a URL before any HTTP request is made: only http/https
// schemes, a non-empty hostname, and (when denyPrivateIPs is set) no DNS
// resolution to loopback, private, or link-local addresses. The IP check is
// the SSRF guard: article URLs come from crawled pages, not operators.
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", analyze.ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", analyze.ErrInvalidURL, u.Scheme)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", analyze.ErrInvalidURL)
	}

	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", analyze.ErrInvalidURL, hostname, err)
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: hostname '%s' resolves to %s", analyze.ErrPrivateIP, hostname, ip.String())
		}
	}

	return nil
}

// isPrivateIP reports whether ip is loopback, private, or link-local,
// for both IPv4 and IPv6.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
