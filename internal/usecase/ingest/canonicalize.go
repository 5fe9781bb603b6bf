package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams lists query keys that identify ad campaigns or referral
// sources rather than content, so two URLs differing only in these
// params canonicalize to the same id.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "spm": true,
	"from": true, "refer": true, "via": true,
}

// canonicalize lower-cases scheme and host, strips tracking query
// params and the fragment, and resolves rawURL against base when it is
// relative. It returns the canonical URL string and the 16-byte hex id
// derived from its SHA-256 hash, per spec §4.5's "Canonicalize" step.
func canonicalize(rawURL string, base *url.URL) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("canonicalize: parse %q: %w", rawURL, err)
	}
	if !u.IsAbs() {
		if base == nil {
			return "", "", fmt.Errorf("canonicalize: relative url %q with no base", rawURL)
		}
		u = base.ResolveReference(u)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[strings.ToLower(key)] {
				q.Del(key)
			}
		}
		u.RawQuery = encodeSortedQuery(q)
	}

	canonical := u.String()
	sum := sha256.Sum256([]byte(canonical))
	id := hex.EncodeToString(sum[:])[:16]
	return canonical, id, nil
}

// encodeSortedQuery renders q with keys sorted so that equivalent query
// sets always canonicalize to the same string regardless of original
// parameter order.
func encodeSortedQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		for j, v := range q[k] {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
