package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"LeadScout/internal/domain"
	"LeadScout/internal/usecase"
)

// ReviewQueue is the part of a session an operator works through by hand.
type ReviewQueue interface {
	Pending() []domain.Lead
	Approve(ctx context.Context, id string) (usecase.Result, error)
	Reject(id string) error
	Clear()
}

// ReviewSummary counts the decisions taken in one review.
type ReviewSummary struct {
	Committed int
	Dropped   int
	Rejected  int
	Skipped   int
	Cleared   bool
}

const reviewPrompt = "[a]pprove [r]eject [s]kip [c]lear queue [q]uit > "

// Review walks the queued leads in order and applies one command per lead read from in.
// It returns when the queue is exhausted, on q or c, or when in runs out.
func Review(ctx context.Context, queue ReviewQueue, in io.Reader, out io.Writer) (ReviewSummary, error) {
	var sum ReviewSummary
	scanner := bufio.NewScanner(in)

	pending := queue.Pending()
	for i, lead := range pending {
		fmt.Fprintf(out, "\n(%d/%d) %s | score %d | %s\n%s\n", i+1, len(pending), lead.Company, lead.Score(), lead.Title, lead.URL)
		if lead.ValueExplanation != "" {
			fmt.Fprintf(out, "  %s\n", lead.ValueExplanation)
		}

		for decided := false; !decided; {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			fmt.Fprint(out, reviewPrompt)
			if !scanner.Scan() {
				return sum, scanner.Err()
			}

			decided = true
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "a", "approve":
				res, err := queue.Approve(ctx, lead.ID)
				if err != nil {
					return sum, err
				}
				if res.Outcome == domain.OutcomeCommitted {
					sum.Committed++
				} else {
					sum.Dropped++
				}
				fmt.Fprintf(out, "  %s\n", res.Outcome)
			case "r", "reject":
				if err := queue.Reject(lead.ID); err != nil {
					return sum, err
				}
				sum.Rejected++
			case "s", "skip", "":
				sum.Skipped++
			case "c", "clear":
				queue.Clear()
				sum.Cleared = true
				return sum, nil
			case "q", "quit":
				return sum, nil
			default:
				decided = false
			}
		}
	}
	return sum, nil
}

// Session returns the review session of the target with key.
func (a *Application) Session(key string) (*usecase.Session, error) {
	session, ok := a.sessions[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("unknown target %q", key)
	}
	return session, nil
}

// ReloadRecent replaces the target's queue with the most recently committed leads so they can be reviewed again.
func (a *Application) ReloadRecent(ctx context.Context, key string, limit int) ([]domain.Lead, error) {
	session, err := a.Session(key)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	if err := session.LoadRecent(ctx, limit); err != nil {
		return nil, err
	}
	return session.Pending(), nil
}
