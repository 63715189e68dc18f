package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"LeadScout/internal/domain"
	"LeadScout/internal/scanner"
)

const (
	googleNewsSearchURL = "https://news.google.com/rss/search"
	googleNewsSource    = "Google News"
	defaultMaxEntries   = 10
)

// GoogleNewsScanner searches the Google News RSS endpoint for a company inside the lookback window.
type GoogleNewsScanner struct {
	fetch  fetcher
	parser *gofeed.Parser
}

// NewGoogleNewsScanner wires an HTTP client and the fetch retry policy; nil falls back to a 20s client.
func NewGoogleNewsScanner(client *http.Client, retry RetryPolicy) *GoogleNewsScanner {
	return &GoogleNewsScanner{fetch: newFetcher(client, retry), parser: gofeed.NewParser()}
}

// Name identifies the strategy inside the registry.
func (g *GoogleNewsScanner) Name() string {
	return "googlenews"
}

// Scan returns at most req.MaxEntries articles in feed order.
func (g *GoogleNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	feedURL := buildSearchURL(req.URL, req.Company, req.Lookback)

	body, err := g.fetch.get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("google news: %w", err)
	}

	feed, err := g.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := req.MaxEntries
	if limit <= 0 {
		limit = defaultMaxEntries
	}

	articles := make([]domain.Article, 0, limit)
	for _, item := range feed.Items {
		if len(articles) == limit {
			break
		}
		link := itemLink(item)
		if link == "" {
			continue
		}

		article := domain.Article{
			Title:          html.UnescapeString(strings.TrimSpace(item.Title)),
			URL:            link,
			RawDescription: html.UnescapeString(item.Description),
			Source:         googleNewsSource,
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = item.PublishedParsed.UTC()
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// buildSearchURL renders "<base>?q=<company>+when:<N>d" with the company query-escaped.
func buildSearchURL(base, company string, lookback domain.Lookback) string {
	if base == "" {
		base = googleNewsSearchURL
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "q=" + url.QueryEscape(company) + "+when:" + lookback.String()
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}
