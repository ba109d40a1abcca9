package httpkit

import "net/http"

// Body-less JSON endpoints. The diagnostics API is read only so every
// handler takes just the request and returns (data, error)

// Get registers a no-body handler and uses the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// Head registers a no-body handler under HEAD
func Head(r Router, path string, h func(*http.Request) (any, error)) {
	r.Head(path, Call(h))
}
