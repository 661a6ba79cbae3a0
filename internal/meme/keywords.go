package meme

import "strings"

// MaxKeywords caps the keyword list on every meme.
const MaxKeywords = 10

// parseKeywordsCSV turns a comma-separated form value into a keyword list:
// pieces are trimmed, empties dropped, and at most MaxKeywords kept in their
// original order. An empty input yields nil.
func parseKeywordsCSV(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var keywords []string
	for _, piece := range strings.Split(csv, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		keywords = append(keywords, piece)
		if len(keywords) == MaxKeywords {
			break
		}
	}
	return keywords
}

// joinKeywords encodes a keyword list as the comma-joined database column.
//
// Known constraint: the encoding round-trips exactly only when no keyword
// contains a comma. A keyword with an embedded comma is split apart on the
// next read; the delimiter is not escaped.
func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

// splitKeywords decodes the comma-joined database column.
func splitKeywords(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, ",")
}
