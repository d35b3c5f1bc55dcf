package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"NewsCourier/pkg/httpretry"
)

// listTimeLayout is the publish-time format of the list endpoint.
const listTimeLayout = "2006/01/02 15:04"

// ListItem is one entry of a listing page.
type ListItem struct {
	HeadLine   string `json:"headline"`
	PageURL    string `json:"pageUrl"`
	CreateTime string `json:"createTime"`
}

type listRequest struct {
	Category string `json:"category"`
	PageSize int    `json:"pagesize"`
	PageIdx  int    `json:"pageidx"`
}

type listResponse struct {
	Result string     `json:"result"`
	Items  []ListItem `json:"items"`
}

// ListClient pages through the source's list API for one category.
type ListClient struct {
	endpoint string
	baseURL  string
	retry    *httpretry.Client
}

// NewListClient wires the retrying transport and endpoint locations.
func NewListClient(endpoint, baseURL string, retry *httpretry.Client) *ListClient {
	return &ListClient{
		endpoint: endpoint,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		retry:    retry,
	}
}

// FetchPage requests one page of the listing. Page numbering starts at 1.
func (c *ListClient) FetchPage(ctx context.Context, categoryKey string, pageSize, pageIdx int) ([]ListItem, error) {
	body, err := c.retry.PostJSON(ctx, c.endpoint, listRequest{
		Category: categoryKey,
		PageSize: pageSize,
		PageIdx:  pageIdx,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch page %d of %s: %w", pageIdx, categoryKey, err)
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse page %d of %s: %w", pageIdx, categoryKey, err)
	}
	if parsed.Result != "Y" {
		return nil, fmt.Errorf("list endpoint rejected page %d of %s (result=%q)", pageIdx, categoryKey, parsed.Result)
	}

	return parsed.Items, nil
}

// AbsoluteURL resolves a relative article path against the site base.
func (c *ListClient) AbsoluteURL(pageURL string) string {
	if strings.HasPrefix(pageURL, "http") {
		return pageURL
	}
	if !strings.HasPrefix(pageURL, "/") {
		pageURL = "/" + pageURL
	}
	return c.baseURL + pageURL
}

// ParseListTime parses the endpoint's YYYY/MM/DD HH:MM timestamps in the
// given location.
func ParseListTime(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(listTimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse list time %q: %w", value, err)
	}
	return t, nil
}
