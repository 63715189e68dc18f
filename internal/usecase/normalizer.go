package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/textsplitter"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

const summarySystemPrompt = "You are a professional business analyst tasked with creating clear, concise article summaries."

const summaryPrompt = `Given the following article content, create a detailed, well-structured summary that:
1. Captures the main points and key information
2. Removes any HTML formatting or artifacts
3. Maintains professional language and tone
4. Highlights relevant business implications
5. Is between 200-400 words

Article content:
%s

Please provide a clean, professional summary that could be used in a business context.`

var (
	urlExpr        = regexp.MustCompile(`https?://\S+`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw article markup into a business summary.
type Normalizer struct {
	gen      ports.TextGenerator
	splitter textsplitter.TextSplitter
	log      *slog.Logger
}

// NewNormalizer bounds the text sent for summarisation to maxChars runes; maxChars <= 0 disables the bound.
func NewNormalizer(gen ports.TextGenerator, maxChars int, log *slog.Logger) *Normalizer {
	n := &Normalizer{gen: gen, log: logging.OrDiscard(log)}
	if maxChars > 0 {
		n.splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(maxChars),
			textsplitter.WithChunkOverlap(0),
		)
	}
	return n
}

// Normalize returns a summary of raw, or the cleaned text when summarisation fails. It never fails.
func (n *Normalizer) Normalize(ctx context.Context, raw string) string {
	cleaned := CleanText(raw)
	if cleaned == "" || n.gen == nil {
		return cleaned
	}

	summary, err := n.gen.Generate(ctx, domain.Prompt{
		System: summarySystemPrompt,
		User:   fmt.Sprintf(summaryPrompt, n.bound(cleaned)),
	})
	if err != nil {
		n.log.Warn("summary generation failed, using cleaned text", "error", err)
		return cleaned
	}
	return summary
}

func (n *Normalizer) bound(text string) string {
	if n.splitter == nil {
		return text
	}
	chunks, err := n.splitter.SplitText(text)
	if err != nil || len(chunks) == 0 {
		return text
	}
	return chunks[0]
}

// CleanText strips markup, scripts, styles and URLs and collapses whitespace.
func CleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		doc.Find("script, style, noscript").Remove()
		doc.Find("*").Each(func(_ int, s *goquery.Selection) {
			s.AppendHtml(" ")
		})
		text = doc.Text()
	}

	text = urlExpr.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}
