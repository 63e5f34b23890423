package entity

import "time"

type TotalStatistics struct {
	Sites    int  `json:"sites"`
	Pages    int  `json:"pages"`
	Lemmas   int  `json:"lemmas"`
	Indexing bool `json:"indexing"`
}

type SiteStatistics struct {
	URL        string     `json:"url"`
	Name       string     `json:"name"`
	Status     SiteStatus `json:"status"`
	StatusTime time.Time  `json:"statusTime"`
	Error      string     `json:"error,omitempty"`
	Pages      int        `json:"pages"`
	Lemmas     int        `json:"lemmas"`
}

// Statistics summarizes the index.
type Statistics struct {
	Total    TotalStatistics  `json:"total"`
	Detailed []SiteStatistics `json:"detailed"`
}
