package entity

// Lemma mirrors the `lemma` table. Frequency is the number of distinct
// pages of the site that contain the lemma.
type Lemma struct {
	ID        int64
	SiteID    int64
	Lemma     string
	Frequency int
}

// IndexEntry mirrors the `search_index` table.
type IndexEntry struct {
	ID      int64
	PageID  int64
	LemmaID int64
	Rank    float64
}

// PageRank pairs a page with an aggregated rank.
type PageRank struct {
	PageID int64
	Rank   float64
}
