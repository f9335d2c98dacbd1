package entities

import (
	"net/http"
	"sort"
	"strings"
)

// Header names sent by the build service. The service is inconsistent about
// capitalization, so lookups go through Headers.
const (
	HeaderEvent     = "X-UnityCloudBuild-Event"
	HeaderSignature = "X-UnityCloudBuild-Signature"
)

// Headers is a case-insensitive header map. Keys are lower-cased once at
// construction. A nil Headers means the inbound headers could not be read.
type Headers map[string]string

// NewHeaders normalizes raw header names. When several raw names fold to
// the same header, the first in sorted order wins.
func NewHeaders(raw map[string]string) Headers {
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)

	h := make(Headers, len(raw))
	for _, k := range names {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, seen := h[key]; seen {
			continue
		}
		h[key] = raw[k]
	}
	return h
}

// HeadersFromHTTP keeps the first value of each request header
func HeadersFromHTTP(header http.Header) Headers {
	h := make(Headers, len(header))
	for k, values := range header {
		if len(values) == 0 {
			continue
		}
		h[strings.ToLower(k)] = values[0]
	}
	return h
}

// Get returns the value for name and whether it was present
func (h Headers) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}
