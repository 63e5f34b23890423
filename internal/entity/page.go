package entity

// Page mirrors the `page` table. Path is unique per site.
type Page struct {
	ID      int64
	SiteID  int64
	Path    string
	Code    int
	Content string
}

// FetchedPage is the result of downloading a single URL.
type FetchedPage struct {
	URL         string
	StatusCode  int
	ContentType string
	HTML        string
	// Links holds absolute http(s) anchor targets without fragments.
	Links []string
}
