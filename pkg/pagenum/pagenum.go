// Package pagenum resolves the current 1-based page number for a render.
package pagenum

import (
	"net/http"
	"strconv"
	"strings"
)

// Query variables consulted by FromRequest, in order.
const (
	QueryVarPaged = "paged"
	QueryVarPage  = "page"
)

// Normalize maps any page number below 1 to 1.
func Normalize(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Parse converts s to a page number. Empty, malformed and non-positive
// values yield 1.
func Parse(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return Normalize(n)
}

// Static always reports the same page.
type Static int

// PageNumber implements scheduler.PageNumberProvider.
func (s Static) PageNumber() int {
	return Normalize(int(s))
}

// Request reads the page number from an HTTP request.
type Request struct {
	r *http.Request
}

// FromRequest returns a provider for r. The page is taken from the "paged"
// query variable, then "page", then a trailing "/page/{n}" path segment, and
// defaults to 1.
func FromRequest(r *http.Request) Request {
	return Request{r: r}
}

// PageNumber implements scheduler.PageNumberProvider.
func (p Request) PageNumber() int {
	if p.r == nil || p.r.URL == nil {
		return 1
	}

	q := p.r.URL.Query()
	for _, key := range []string{QueryVarPaged, QueryVarPage} {
		if v := q.Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}

	return fromPath(p.r.URL.Path)
}

// fromPath extracts n from paths ending in "/page/{n}" or "/page/{n}/".
func fromPath(path string) int {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] != "page" {
		return 1
	}
	return Parse(parts[len(parts)-1])
}
