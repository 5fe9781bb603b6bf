package httpclient

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"newslook/internal/domain/apperr"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// candidateEncodings is the trial order the spec requires when the
// Content-Type charset and the chardet heuristic are both inconclusive.
var candidateEncodings = []string{"utf-8", "gbk", "gb18030"}

// DecodeBody converts a response body to UTF-8 text, given the
// Content-Type header value (may be empty). It first trusts an explicit
// charset parameter, then falls back to a chardet heuristic, then tries
// each candidate encoding in order and keeps the first that decodes
// without error and without producing replacement characters.
func DecodeBody(body []byte, contentType string) (string, error) {
	if charset := charsetFromContentType(contentType); charset != "" {
		if text, ok := tryDecode(body, charset); ok {
			return text, nil
		}
	}

	if guess := chardetGuess(body); guess != "" {
		if text, ok := tryDecode(body, guess); ok {
			return text, nil
		}
	}

	for _, cand := range candidateEncodings {
		if text, ok := tryDecode(body, cand); ok {
			return text, nil
		}
	}

	return "", apperr.Encoding("no candidate encoding decoded the body cleanly", nil)
}

func charsetFromContentType(contentType string) string {
	_, params, err := mimeParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// mimeParseMediaType wraps mime.ParseMediaType so a malformed
// Content-Type never blows up the caller.
func mimeParseMediaType(contentType string) (string, map[string]string, error) {
	if contentType == "" {
		return "", nil, errors.New("empty content-type")
	}
	return parseMediaType(contentType)
}

func chardetGuess(body []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(body)
	if err != nil || result == nil {
		return ""
	}
	switch strings.ToLower(result.Charset) {
	case "gb18030":
		return "gb18030"
	case "gbk", "gb2312":
		return "gbk"
	case "utf-8":
		return "utf-8"
	default:
		return ""
	}
}

func tryDecode(body []byte, name string) (string, bool) {
	switch name {
	case "utf-8":
		if utf8.Valid(body) {
			return string(body), true
		}
		return "", false
	case "gbk":
		return decodeWith(body, simplifiedchinese.GBK)
	case "gb18030":
		return decodeWith(body, simplifiedchinese.GB18030)
	default:
		return "", false
	}
}

func decodeWith(body []byte, enc encoding.Encoding) (string, bool) {
	reader := transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(decoded) || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}

// parseMediaType is a minimal substitute for mime.ParseMediaType kept
// local so DecodeBody has no dependency beyond what http already pulls
// in; http.Header values are already split on ';' by callers of this
// package in practice, but we parse directly from the raw header value.
func parseMediaType(v string) (string, map[string]string, error) {
	parts := strings.Split(v, ";")
	mediaType := strings.TrimSpace(parts[0])
	params := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		params[key] = val
	}
	return mediaType, params, nil
}
