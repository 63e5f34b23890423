package entity

// SearchResult is a single ranked hit.
type SearchResult struct {
	Site      string  `json:"site"`
	SiteName  string  `json:"siteName"`
	URI       string  `json:"uri"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}

// SearchResponse is one page of results plus the unpaginated total.
type SearchResponse struct {
	Count int            `json:"count"`
	Data  []SearchResult `json:"data"`
}
