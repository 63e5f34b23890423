package request

import (
	"strconv"
)

// IndexPageRequest is the body of POST /api/indexPage. The url may also be
// sent as a form field.
type IndexPageRequest struct {
	URL string `json:"url"`
}

// SearchParams are the query parameters of GET /api/search.
type SearchParams struct {
	Query  string
	Site   string
	Offset int
	Limit  int
}

// ParseInt parses an optional non-negative integer query parameter.
func ParseInt(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
