package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LeadScout/internal/domain"
	"LeadScout/internal/scanner"
)

// Option keys understood by HTMLScanner. Each has a default.
const (
	optItem       = "item"
	optTitle      = "title"
	optSummary    = "summary"
	optDate       = "date"
	optQueryParam = "queryParam"
)

var htmlDefaults = map[string]string{
	optItem:    "article",
	optTitle:   "a",
	optSummary: "p",
	optDate:    "time",
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2 Jan 2006", "January 2, 2006", "Jan 2, 2006"}

// HTMLScanner reads a company newsroom or press listing page and keeps items that mention the company.
type HTMLScanner struct {
	fetch fetcher
}

// NewHTMLScanner wires an HTTP client and the fetch retry policy; nil falls back to a 20s client.
func NewHTMLScanner(client *http.Client, retry RetryPolicy) *HTMLScanner {
	return &HTMLScanner{fetch: newFetcher(client, retry)}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches req.URL and extracts listing items published inside the lookback window.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no url provided for site %s", req.SiteName)
	}

	pageURL, err := buildPageURL(req.URL, option(req.Options, optQueryParam), req.Company)
	if err != nil {
		return nil, err
	}

	doc, err := h.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	base, _ := url.Parse(pageURL)
	return extractArticles(doc, base, req), nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := h.fetch.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractArticles(doc *goquery.Document, base *url.URL, req scanner.Request) []domain.Article {
	var (
		collected []domain.Article
		since     = req.Since()
		limit     = req.MaxEntries
	)
	if limit <= 0 {
		limit = defaultMaxEntries
	}

	doc.Find(option(req.Options, optItem)).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		article, ok := parseItem(item, base, req)
		if !ok {
			return true
		}
		if !mentions(article, req.Company) {
			return true
		}
		if !article.PublishedAt.IsZero() && article.PublishedAt.Before(since) {
			return true
		}

		collected = append(collected, article)
		return len(collected) < limit
	})

	return collected
}

func parseItem(item *goquery.Selection, base *url.URL, req scanner.Request) (domain.Article, bool) {
	link := item.Find(option(req.Options, optTitle)).First()
	title := strings.Join(strings.Fields(link.Text()), " ")
	href, _ := link.Attr("href")
	if title == "" || href == "" {
		return domain.Article{}, false
	}

	if base != nil {
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
	}

	summary := strings.Join(strings.Fields(item.Find(option(req.Options, optSummary)).First().Text()), " ")

	return domain.Article{
		Title:          title,
		URL:            href,
		RawDescription: summary,
		Source:         req.SiteName,
		PublishedAt:    parseDate(item.Find(option(req.Options, optDate)).First()),
	}, true
}

func parseDate(sel *goquery.Selection) time.Time {
	raw, ok := sel.Attr("datetime")
	if !ok {
		raw = sel.Text()
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func mentions(article domain.Article, company string) bool {
	needle := strings.ToLower(company)
	return strings.Contains(strings.ToLower(article.Title), needle) ||
		strings.Contains(strings.ToLower(article.RawDescription), needle)
}

// buildPageURL sets param=company on base when param is configured.
func buildPageURL(base, param, company string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}
	if param == "" {
		return parsed.String(), nil
	}

	query := parsed.Query()
	query.Set(param, company)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func option(opts map[string]string, key string) string {
	if v, ok := opts[key]; ok && v != "" {
		return v
	}
	return htmlDefaults[key]
}
