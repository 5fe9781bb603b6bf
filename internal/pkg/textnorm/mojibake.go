package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// cjkRatio returns the fraction of runes in s that fall in the CJK
// Unified Ideographs block.
func cjkRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, cjk := 0, 0
	for _, r := range s {
		total++
		if unicode.Is(unicode.Han, r) {
			cjk++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(cjk) / float64(total)
}

// replacementRunRatio returns the fraction of runes that are the Unicode
// replacement character, a tell-tale sign of a failed decode.
func replacementRunRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, bad := 0, 0
	for _, r := range s {
		total++
		if r == utf8.RuneError {
			bad++
		}
	}
	return float64(bad) / float64(total)
}

// RepairMojibake detects common GBK-as-UTF-8 and UTF-8-as-Latin1
// misdecodings by scanning for replacement-character runs and by a trial
// re-encode/re-decode, applying the repair only when it raises the ratio
// of CJK codepoints. The function is deterministic and idempotent:
// running it twice on an already-repaired string is a no-op because the
// trial decode of clean text never raises the CJK ratio further.
func RepairMojibake(text string) string {
	if text == "" {
		return text
	}

	original := cjkRatio(text)
	if replacementRunRatio(text) == 0 && original > 0 {
		return text
	}

	if repaired, ok := tryLatin1AsGBK(text); ok && cjkRatio(repaired) > original {
		return repaired
	}

	return text
}

// tryLatin1AsGBK treats each rune of text as a Latin-1 byte (the common
// failure mode when GBK bytes are mis-decoded as UTF-8 one byte at a
// time, producing Windows-1252/Latin-1 code points) and re-decodes the
// resulting byte stream as GBK.
func tryLatin1AsGBK(text string) (string, bool) {
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return "", false
		}
		buf = append(buf, byte(r))
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(buf)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(decoded) {
		return "", false
	}
	result := string(decoded)
	if strings.TrimSpace(result) == "" {
		return "", false
	}
	return result, true
}
