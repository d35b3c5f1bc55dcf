package domain

import "time"

// Article is the canonical persisted news entity. The (Title, URL) pair is
// globally unique and serves as the dedup key.
type Article struct {
	ID          int64
	Title       string
	URL         string
	PublishTime time.Time
	Source      string
	CategoryKey string
	Content     string
	Keywords    []string
	Summary     string
	Sentiment   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category maps a stable short code to its display label.
type Category struct {
	Key  string
	Name string
}

// RawArticle is one record yielded by the crawler before transformation.
type RawArticle struct {
	Title        string
	URL          string
	PublishTime  time.Time
	Source       string
	CategoryKey  string
	CategoryName string
	Content      string
}
