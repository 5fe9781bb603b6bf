package httpclient

import (
	"net/http"
	"net/url"
)

// proxyFunc builds a fixed-proxy http.Transport.Proxy function from a
// single configured proxy URL.
func proxyFunc(rawProxyURL string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(rawProxyURL)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}
