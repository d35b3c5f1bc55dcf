package source

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// sourceLabel is the fixed source attribution on every yielded record.
const sourceLabel = "中央社"

// CategoryMapper resolves category keys to display names. Satisfied by the
// category registry.
type CategoryMapper interface {
	GetMapping(ctx context.Context, forceRefresh bool) map[string]string
}

// Crawler walks the paginated listing of one category, applies the recency
// cutoff, and yields sanitized article records. The cutoff is fixed at
// construction, so build a fresh Crawler per run.
type Crawler struct {
	list       *ListClient
	retry      *httpretryGetter
	categories CategoryMapper
	pageSize   int
	cutoff     time.Time
	location   *time.Location
	logger     *slog.Logger
}

// httpretryGetter narrows the retry client to the detail-page fetch.
type httpretryGetter struct {
	get func(ctx context.Context, url string) ([]byte, error)
}

// CrawlerOption adjusts crawler construction.
type CrawlerOption func(*crawlerSettings)

type crawlerSettings struct {
	pageSize int
	window   time.Duration
	now      ports.Clock
	location *time.Location
}

// WithPageSize overrides the default page size of 40.
func WithPageSize(n int) CrawlerOption {
	return func(s *crawlerSettings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithWindow overrides the default 24h recency window.
func WithWindow(d time.Duration) CrawlerOption {
	return func(s *crawlerSettings) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithClock injects the time source used to fix the cutoff.
func WithClock(clock ports.Clock) CrawlerOption {
	return func(s *crawlerSettings) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLocation sets the timezone used to parse source timestamps.
func WithLocation(loc *time.Location) CrawlerOption {
	return func(s *crawlerSettings) {
		if loc != nil {
			s.location = loc
		}
	}
}

var _ ports.ArticleCrawler = (*Crawler)(nil)

// NewCrawler fixes the recency cutoff at now-window and wires the list client
// and detail fetcher.
func NewCrawler(list *ListClient, get func(ctx context.Context, url string) ([]byte, error), categories CategoryMapper, logger *slog.Logger, opts ...CrawlerOption) *Crawler {
	settings := crawlerSettings{
		pageSize: 40,
		window:   24 * time.Hour,
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return &Crawler{
		list:       list,
		retry:      &httpretryGetter{get: get},
		categories: categories,
		pageSize:   settings.pageSize,
		cutoff:     settings.now().Add(-settings.window),
		location:   settings.location,
		logger:     logger,
	}
}

// Crawl yields one sanitized record per article newer than the cutoff. The
// sequence restarts pagination from page 1 on every call. A yielded error is
// terminal: page fetches that fail after retries abort the crawl, while
// per-item failures are logged and skipped.
func (c *Crawler) Crawl(ctx context.Context, categoryKey string) iter.Seq2[domain.RawArticle, error] {
	return func(yield func(domain.RawArticle, error) bool) {
		mapping := c.categories.GetMapping(ctx, false)
		categoryName, ok := mapping[categoryKey]
		if !ok {
			yield(domain.RawArticle{}, fmt.Errorf("unknown category %q", categoryKey))
			return
		}

		for page := 1; ; page++ {
			items, err := c.list.FetchPage(ctx, categoryKey, c.pageSize, page)
			if err != nil {
				yield(domain.RawArticle{}, err)
				return
			}

			for _, item := range items {
				raw, ok := c.processItem(ctx, item, categoryKey, categoryName)
				if !ok {
					continue
				}
				if !yield(raw, nil) {
					return
				}
			}

			// A short page is the only reliable end-of-data signal; the
			// endpoint has no total count.
			if len(items) < c.pageSize {
				return
			}
		}
	}
}

// processItem filters by cutoff, fetches and sanitizes the detail page, and
// reports whether the item survived.
func (c *Crawler) processItem(ctx context.Context, item ListItem, categoryKey, categoryName string) (domain.RawArticle, bool) {
	publishTime, err := ParseListTime(item.CreateTime, c.location)
	if err != nil {
		c.logger.Warn("skipping unparsable list item", "headline", item.HeadLine, "error", err)
		return domain.RawArticle{}, false
	}

	if publishTime.Before(c.cutoff) {
		return domain.RawArticle{}, false
	}

	articleURL := c.list.AbsoluteURL(item.PageURL)
	content, err := c.fetchContent(ctx, articleURL)
	if err != nil {
		c.logger.Warn("skipping article after fetch failure", "url", articleURL, "error", err)
		return domain.RawArticle{}, false
	}
	if content == "" {
		c.logger.Debug("skipping article without content", "url", articleURL)
		return domain.RawArticle{}, false
	}

	return domain.RawArticle{
		Title:        item.HeadLine,
		URL:          articleURL,
		PublishTime:  publishTime,
		Source:       sourceLabel,
		CategoryKey:  categoryKey,
		CategoryName: categoryName,
		Content:      content,
	}, true
}

func (c *Crawler) fetchContent(ctx context.Context, articleURL string) (string, error) {
	body, err := c.retry.get(ctx, articleURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse article page: %w", err)
	}

	return ExtractContent(doc), nil
}
