package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// MergeHeaders returns a new header holding every value of layers, in
// order. Nil layers are skipped.
func MergeHeaders(layers ...http.Header) http.Header {
	out := make(http.Header)
	for _, h := range layers {
		for k, vals := range h {
			k = http.CanonicalHeaderKey(k)
			out[k] = append(out[k], vals...)
		}
	}
	return out
}

// NewHTTPClient returns a client that routes through proxyURL. An empty
// proxyURL gives a client on a private copy of the default transport.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Client{}, nil
	}
	tr := base.Clone()
	if proxyURL = strings.TrimSpace(proxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("proxy url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy url %q: scheme and host required", proxyURL)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: tr}, nil
}

func addHeaders(req *http.Request, headers http.Header) {
	for k, vals := range headers {
		k = http.CanonicalHeaderKey(k)
		req.Header[k] = append(req.Header[k], vals...)
	}
}
