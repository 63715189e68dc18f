package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
	"LeadScout/internal/schema"
)

var relevanceSchema = schema.Schema{
	Name:        "evaluate_company_relevance",
	Description: "Evaluate if the article is truly relevant to the target company",
	Parameters: schema.Object(map[string]any{
		"is_relevant": map[string]any{
			"type":        "boolean",
			"description": "Whether the article is genuinely about or significantly involves the target company",
		},
		"relevance_score": map[string]any{
			"type":        "integer",
			"description": "Relevance score from 0-100",
			"minimum":     0,
			"maximum":     100,
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "Brief explanation of why the article is or isn't relevant",
		},
	}, "is_relevant", "relevance_score", "explanation"),
}

const relevancePrompt = `Evaluate if this article about %[1]s is relevant to %[2]s.

Target Company Context:
%[2]s - %[3]s

Article:
Title: %[4]s
Content: %[5]s

Consider ANY of these factors for relevance:
1. Direct Business Impact: changes in company operations, strategy or performance; new products, services or initiatives.
2. Industry Trends: market changes that could affect the company; technology adoption or digital transformation.
3. Relationship Opportunities: news that could create conversation points; updates that might affect their technology needs.
4. General Business Intelligence: leadership changes, market expansion, new partnerships or collaborations.

Be inclusive in your evaluation. Indirect relationships or potential future implications count as relevant.
Consider both immediate and long-term potential value.

Provide your evaluation by calling the evaluate_company_relevance function.`

// RelevanceEvaluator scores how relevant an article is to the target's interests.
// The prompt favours recall; callers enforce precision with their own threshold.
type RelevanceEvaluator struct {
	gen    ports.TextGenerator
	target domain.Target
	log    *slog.Logger
}

// NewRelevanceEvaluator builds an evaluator for target.
func NewRelevanceEvaluator(gen ports.TextGenerator, target domain.Target, log *slog.Logger) *RelevanceEvaluator {
	return &RelevanceEvaluator{gen: gen, target: target, log: logging.OrDiscard(log)}
}

// Evaluate never fails. Any error yields is_relevant=false with score 0.
func (e *RelevanceEvaluator) Evaluate(ctx context.Context, company, title, content string) domain.RelevanceResult {
	prompt := domain.Prompt{
		System: fmt.Sprintf("You are an expert at identifying business opportunities and relevant news for %s. "+
			"Be inclusive and consider both direct and indirect relevance.", e.target.Name),
		User: fmt.Sprintf(relevancePrompt, company, e.target.Name, e.target.Description, title, content),
	}

	result, err := generateInto[domain.RelevanceResult](ctx, e.gen, prompt, relevanceSchema)
	if err != nil {
		e.log.Error("relevance evaluation failed", "company", company, "title", title, "error", err)
		return domain.RelevanceResult{Explanation: "Error in evaluation"}
	}
	return result
}

// generateInto runs a schema-constrained call and decodes the validated arguments.
func generateInto[T any](ctx context.Context, gen ports.TextGenerator, prompt domain.Prompt, s schema.Schema) (T, error) {
	var zero T
	if gen == nil {
		return zero, fmt.Errorf("text generator is not configured")
	}

	raw, err := gen.GenerateStructured(ctx, prompt, s)
	if err != nil {
		return zero, err
	}
	return schema.Decode[T](s, raw)
}
