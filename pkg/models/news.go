package models

import "time"

// NewsArticle represents a market news headline from an RSS feed.
type NewsArticle struct {
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	Summary      string    `json:"summary,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Constituents []string  `json:"constituents,omitempty"` // constituent names mentioned in the article
}
