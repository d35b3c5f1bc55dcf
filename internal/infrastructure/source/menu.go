package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
	"NewsCourier/pkg/httpretry"
)

// MenuScraper extracts the category mapping from the site's main navigation.
type MenuScraper struct {
	menuURL string
	retry   *httpretry.Client
}

var _ ports.MenuScraper = (*MenuScraper)(nil)

// NewMenuScraper points the scraper at the page carrying the full menu.
func NewMenuScraper(menuURL string, retry *httpretry.Client) *MenuScraper {
	return &MenuScraper{menuURL: menuURL, retry: retry}
}

// ScrapeCategories returns (key, name) pairs in document order. Keys are
// unique; a repeated key keeps its first occurrence.
func (s *MenuScraper) ScrapeCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := s.retry.Get(ctx, s.menuURL)
	if err != nil {
		return nil, fmt.Errorf("fetch menu page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse menu page: %w", err)
	}

	var categories []domain.Category
	seen := map[string]struct{}{}

	doc.Find(".main-menu a.first-level").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		key := categoryKeyFromHref(href)
		name := strings.TrimSpace(link.Text())
		if key == "" || name == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}

		seen[key] = struct{}{}
		categories = append(categories, domain.Category{Key: key, Name: name})
	})

	if len(categories) == 0 {
		return nil, fmt.Errorf("menu page yielded no categories")
	}

	return categories, nil
}

// categoryKeyFromHref turns ".../list/ait.aspx" into "ait".
func categoryKeyFromHref(href string) string {
	href = strings.TrimSuffix(strings.TrimSpace(href), "/")
	idx := strings.LastIndex(href, "/")
	if idx >= 0 {
		href = href[idx+1:]
	}
	return strings.TrimSuffix(href, ".aspx")
}
