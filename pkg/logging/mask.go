package logging

import "strings"

// MaskCredential masks a credential string for safe logging.
// It keeps a "pk-lf-" style prefix and the last 4 characters.
//
//	MaskCredential("pk-lf-1234567890abcdef") => "pk-lf-************cdef"
//	MaskCredential("short") => "****hort"
func MaskCredential(s string) string {
	const visibleSuffix = 4
	if s == "" {
		return ""
	}
	if len(s) <= visibleSuffix {
		return "****"
	}

	prefixEnd := 0
	if first := strings.IndexByte(s, '-'); first >= 0 {
		if second := strings.IndexByte(s[first+1:], '-'); second >= 0 {
			prefixEnd = first + second + 2
		}
	}

	suffix := s[len(s)-visibleSuffix:]
	if prefixEnd == 0 {
		if len(s) <= 8 {
			return "****" + suffix
		}
		return strings.Repeat("*", len(s)-visibleSuffix) + suffix
	}
	maskLen := max(len(s)-prefixEnd-visibleSuffix, 0)
	return s[:prefixEnd] + strings.Repeat("*", maskLen) + suffix
}

// MaskAuthHeader masks an Authorization header value.
func MaskAuthHeader(header string) string {
	switch {
	case strings.HasPrefix(header, "Basic "):
		return "Basic ********"
	case strings.HasPrefix(header, "Bearer "):
		return "Bearer ********"
	}
	return "********"
}
