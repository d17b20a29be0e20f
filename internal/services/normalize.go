package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText trims whitespace and applies NFC so that captions render
// identically across platforms regardless of how the source tool composed
// its accents and emoji.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// normalizeTags trims, NFC-normalizes, and de-duplicates a tag set while
// keeping first-seen order for stable document diffs. Empty entries are
// dropped.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := normalizeText(tag)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
