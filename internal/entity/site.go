package entity

import "time"

// SiteStatus is the indexing state of a site.
type SiteStatus string

const (
	SiteIndexing SiteStatus = "INDEXING"
	SiteIndexed  SiteStatus = "INDEXED"
	SiteFailed   SiteStatus = "FAILED"
)

// Site mirrors the `site` table.
type Site struct {
	ID         int64
	URL        string
	Name       string
	Status     SiteStatus
	StatusTime time.Time
	LastError  string
}

// SiteConfig is one configured site to crawl.
type SiteConfig struct {
	URL  string `mapstructure:"url" yaml:"url"`
	Name string `mapstructure:"name" yaml:"name"`
}
