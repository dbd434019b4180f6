package github

import "strings"

// MaxRepoNameLength is the longest repository name the host accepts.
const MaxRepoNameLength = 100

const fallbackRepoName = "agent"

func isSeparator(r rune) bool {
	return r == '-' || r == '_' || r == '.'
}

func isAllowed(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || isSeparator(r)
}

// SanitizeRepoName maps any string onto the host's repository name alphabet:
// lowercase alphanumerics and single '-', '_' or '.' separators, without
// leading or trailing separators, at most MaxRepoNameLength bytes.
// The result is never empty and SanitizeRepoName(SanitizeRepoName(s)) equals
// SanitizeRepoName(s).
func SanitizeRepoName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevSep := true // suppresses leading separators
	for _, r := range strings.ToLower(name) {
		if !isAllowed(r) {
			r = '-'
		}
		if isSeparator(r) {
			if prevSep {
				continue
			}
			prevSep = true
		} else {
			prevSep = false
		}
		b.WriteRune(r)
	}

	out := b.String()
	if len(out) > MaxRepoNameLength {
		out = out[:MaxRepoNameLength]
	}
	out = strings.TrimRightFunc(out, isSeparator)

	if out == "" {
		return fallbackRepoName
	}
	return out
}
