package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsCourier/pkg/httpretry"
)

const menuHTML = `
<html><body>
  <nav class="main-menu">
    <a class="first-level" href="/list/aall.aspx">即時</a>
    <a class="first-level" href="/list/ait.aspx">科技</a>
    <a class="first-level" href="/list/aall.aspx">即時重複</a>
    <a class="first-level">無連結</a>
    <a class="second-level" href="/list/sub.aspx">子選單</a>
  </nav>
</body></html>`

func TestScrapeCategories(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(menuHTML))
	}))
	defer srv.Close()

	scraper := NewMenuScraper(srv.URL, httpretry.New(srv.Client(), nil))
	categories, err := scraper.ScrapeCategories(context.Background())
	if err != nil {
		t.Fatalf("ScrapeCategories returned error: %v", err)
	}

	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", categories)
	}
	if categories[0].Key != "aall" || categories[0].Name != "即時" {
		t.Fatalf("unexpected first category: %+v", categories[0])
	}
	if categories[1].Key != "ait" || categories[1].Name != "科技" {
		t.Fatalf("unexpected second category: %+v", categories[1])
	}
}

func TestScrapeCategoriesEmptyMenu(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><nav class="main-menu"></nav></body></html>`))
	}))
	defer srv.Close()

	scraper := NewMenuScraper(srv.URL, httpretry.New(srv.Client(), nil))
	if _, err := scraper.ScrapeCategories(context.Background()); err == nil {
		t.Fatal("expected error for a menu without categories")
	}
}

func TestCategoryKeyFromHref(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"/list/ait.aspx", "ait"},
		{"https://www.cna.com.tw/list/aall.aspx", "aall"},
		{"acul.aspx", "acul"},
		{"/list/ait.aspx/", "ait"},
	}
	for _, tc := range cases {
		if got := categoryKeyFromHref(tc.in); got != tc.want {
			t.Fatalf("categoryKeyFromHref(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
