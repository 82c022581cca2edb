package resizor

import "strings"

// BuildURL joins host, apiVersion, accessKey and endpoint with exactly one slash between
// segments. A scheme on host ("https://") is left intact; empty segments are dropped.
// No validation is performed.
func BuildURL(host, apiVersion, accessKey, endpoint string) string {
	host = strings.TrimRight(host, "/")

	segments := make([]string, 0, 4)
	if host != "" {
		segments = append(segments, host)
	}
	for _, s := range []string{apiVersion, accessKey, endpoint} {
		if s = trimSlashes(s); s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, "/")
}

// trimSlashes strips leading and trailing slashes and collapses repeated inner slashes
func trimSlashes(s string) string {
	parts := strings.Split(s, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
