package fetcher

import "errors"

// Sentinel errors returned by validateURL and ReadabilityFetcher,
// wrapped with fmt.Errorf("%w: ...") so callers can still match them
// with errors.Is.
var (
	ErrInvalidURL        = errors.New("invalid URL or unsupported scheme")
	ErrPrivateIP         = errors.New("private IP access denied (SSRF prevention)")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("request timeout")
	ErrReadabilityFailed = errors.New("content extraction failed")
)
