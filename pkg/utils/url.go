package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL resolves relative against base and drops the fragment.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(strings.TrimSpace(relative))
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(relURL)
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), nil
}

// PagePath returns the path component of rawURL, or "/" when it is empty.
func PagePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		return "/", nil
	}
	return u.Path, nil
}

// NormalizeSiteURL trims surrounding space and trailing slashes.
func NormalizeSiteURL(rawURL string) string {
	return strings.TrimRight(strings.TrimSpace(rawURL), "/")
}

// IsSiteRoot reports whether rawURL addresses the site root itself.
func IsSiteRoot(siteURL, rawURL string) bool {
	return NormalizeSiteURL(rawURL) == NormalizeSiteURL(siteURL)
}

// BelongsToSite reports whether rawURL starts with the site's base URL.
// The prefix must end at a path, query or fragment boundary.
func BelongsToSite(siteURL, rawURL string) bool {
	base := NormalizeSiteURL(siteURL)
	if !strings.HasPrefix(rawURL, base) {
		return false
	}
	rest := rawURL[len(base):]
	return rest == "" || strings.ContainsRune("/?#", rune(rest[0]))
}
