package audit

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL validates rawURL as an absolute http(s) URL and returns its string form.
// Scheme and host are lowercased; path, query and fragment are kept as submitted.
func CanonicalURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("url is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url host is required")
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}
