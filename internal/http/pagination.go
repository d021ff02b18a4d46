package httpx

import (
	"net/http"
	"strconv"
)

// Page is a limit/offset window read from the query string.
type Page struct {
	Limit  int
	Offset int
}

// PageFromRequest reads ?limit= and ?offset=. Missing or malformed values
// fall back to def and 0; the limit is clamped to [1, maxLimit].
func PageFromRequest(r *http.Request, def, maxLimit int) Page {
	q := r.URL.Query()
	p := Page{Limit: def}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		p.Offset = n
	}
	p.Limit = min(max(p.Limit, 1), max(maxLimit, 1))
	return p
}
