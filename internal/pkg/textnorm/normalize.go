// Package textnorm implements the text and encoding normalization
// functions NewsLook's extractors and ingestion pipeline share: Unicode
// escape and percent-decoding, HTML entity decoding, whitespace
// collapsing, NFC normalization, mojibake repair, keyword extraction and
// lexicon-based sentiment classification. Every function here is total:
// empty input never panics or errors.
package textnorm

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var unicodeEscapePattern = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

var whitespaceRunPattern = regexp.MustCompile(`[ \t\f\v]+`)

var blankLineRunPattern = regexp.MustCompile(`\n{3,}`)

// percentEncodedDensityThreshold is the minimum fraction of "%XX" runs
// (by byte count) in the input before NormalizeText attempts a
// percent-decode pass; below this, "%" is assumed to be literal text.
const percentEncodedDensityThreshold = 0.08

// NormalizeText decodes \uXXXX escapes, decodes percent-encoded
// sequences when their density suggests URL-encoding, decodes HTML
// entities, collapses whitespace, and applies NFC normalization.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}

	text := decodeUnicodeEscapes(raw)
	if looksPercentEncoded(text) {
		if decoded, err := url.QueryUnescape(text); err == nil {
			text = decoded
		}
	}
	text = html.UnescapeString(text)
	text = collapseWhitespace(text)
	return norm.NFC.String(text)
}

func decodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	return unicodeEscapePattern.ReplaceAllStringFunc(s, func(m string) string {
		hexDigits := m[2:]
		codepoint, err := strconv.ParseInt(hexDigits, 16, 32)
		if err != nil {
			return m
		}
		return string(rune(codepoint))
	})
}

func looksPercentEncoded(s string) bool {
	if !strings.Contains(s, "%") {
		return false
	}
	percentRuns := strings.Count(s, "%")
	return float64(percentRuns*3)/float64(len(s)+1) >= percentEncodedDensityThreshold
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = whitespaceRunPattern.ReplaceAllString(s, " ")
	s = blankLineRunPattern.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
