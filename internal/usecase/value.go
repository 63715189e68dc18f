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

func describedString(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

var valueSchema = schema.Schema{
	Name:        "evaluate_csm_value",
	Description: "Evaluate if the article provides value for Customer Success Managers based on specific criteria",
	Parameters: schema.Object(map[string]any{
		"is_valuable": map[string]any{
			"type":        "boolean",
			"description": "Whether the article provides value for CSMs",
		},
		"value_type":   schema.EnumArray("Types of value this article provides for CSMs", valueTypeNames()),
		"action_items": schema.StringArray("Specific actions CSMs can take based on this information"),
		"financial_indicators": schema.Object(map[string]any{
			"funding_amount":   describedString("Amount of funding if mentioned"),
			"financial_health": describedString("Indicators of financial health"),
		}),
		"organizational_changes": schema.Object(map[string]any{
			"hiring_info":        describedString("Information about hiring or staffing changes"),
			"leadership_changes": describedString("Information about executive or leadership changes"),
		}),
		"market_insights": schema.Object(map[string]any{
			"industry_trends":       describedString("Relevant industry or market trends"),
			"competitive_landscape": describedString("Information about competitive positioning"),
		}),
		"explanation": describedString("Detailed explanation of the article's value for CSMs"),
	}, "is_valuable", "value_type", "action_items", "explanation"),
}

const valuePrompt = `Evaluate if this article about %[1]s provides any potential value for Customer Success Managers at %[2]s.

Target Company Context:
%[2]s - %[3]s

Article:
Title: %[4]s
Content: %[5]s

Consider ANY of these areas for potential value:
1. Technology & Infrastructure: technology-related changes, digital transformation initiatives, IT infrastructure changes.
2. Business Updates: company growth or changes, new locations or markets, customer experience initiatives, operational changes.
3. Relationship Building: conversation starters, industry insights, common challenges or opportunities, success stories.
4. Future Opportunities: long-term strategic plans, industry trends, market positioning, innovation initiatives.

Be inclusive in identifying value: direct opportunities for immediate action, indirect value for relationship
building, future potential for engagement and general business intelligence all count.

Provide your evaluation by calling the evaluate_csm_value function.`

// ValueEvaluator decides whether an article is actionable for the target's customer success team.
type ValueEvaluator struct {
	gen    ports.TextGenerator
	target domain.Target
	log    *slog.Logger
}

// NewValueEvaluator builds an evaluator for target.
func NewValueEvaluator(gen ports.TextGenerator, target domain.Target, log *slog.Logger) *ValueEvaluator {
	return &ValueEvaluator{gen: gen, target: target, log: logging.OrDiscard(log)}
}

// Evaluate never fails. Any error yields is_valuable=false with value_type ["none"].
func (e *ValueEvaluator) Evaluate(ctx context.Context, company, title, content string) domain.ValueResult {
	prompt := domain.Prompt{
		System: fmt.Sprintf("You are an expert at identifying valuable information for Customer Success Managers at %s. "+
			"Be inclusive and consider both direct and indirect value opportunities.", e.target.Name),
		User: fmt.Sprintf(valuePrompt, company, e.target.Name, e.target.Description, title, content),
	}

	result, err := generateInto[domain.ValueResult](ctx, e.gen, prompt, valueSchema)
	if err != nil {
		e.log.Error("value evaluation failed", "company", company, "title", title, "error", err)
		return domain.ValueResult{
			ValueTypes:  []domain.ValueType{domain.ValueNone},
			ActionItems: []string{},
			Explanation: "Error in evaluation",
		}
	}
	return result
}

func valueTypeNames() []string {
	all := domain.AllValueTypes()
	names := make([]string, 0, len(all))
	for _, t := range all {
		names = append(names, string(t))
	}
	return names
}
