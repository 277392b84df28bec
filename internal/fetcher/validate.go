package fetcher

import (
	"net/url"
	"strings"
)

// IsValidPlaylistURL reports whether raw is an acceptable playlist source:
// an http(s) URL whose path ends in .m3u/.m3u8, or whose path or query
// mentions m3u.
func IsValidPlaylistURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".m3u") || strings.HasSuffix(path, ".m3u8") {
		return true
	}
	return strings.Contains(path, "m3u") || strings.Contains(u.RawQuery, "m3u")
}
