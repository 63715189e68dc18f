package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

const (
	leadsTable         = "leads"
	uniqueViolationSQL = "23505"
)

var leadColumns = []string{
	"id", "company", "title", "url", "description", "raw_description", "source", "category",
	"published_at", "relevance_score", "relevance_explanation", "value_types", "action_items",
	"value_explanation", "embedding", "created_at",
}

const createLeadsTable = `CREATE TABLE IF NOT EXISTS leads (
    id                    TEXT PRIMARY KEY,
    company               TEXT NOT NULL,
    title                 TEXT NOT NULL,
    url                   TEXT NOT NULL UNIQUE,
    description           TEXT NOT NULL DEFAULT '',
    raw_description       TEXT NOT NULL DEFAULT '',
    source                TEXT NOT NULL DEFAULT '',
    category              TEXT NOT NULL DEFAULT '',
    published_at          TIMESTAMPTZ NOT NULL,
    relevance_score       INTEGER,
    relevance_explanation TEXT NOT NULL DEFAULT '',
    value_types           TEXT[] NOT NULL DEFAULT '{}',
    action_items          TEXT[] NOT NULL DEFAULT '{}',
    value_explanation     TEXT NOT NULL DEFAULT '',
    embedding             REAL[],
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS leads_created_at_idx ON leads (created_at DESC);`

// PostgresRepository persists committed leads into Postgres.
type PostgresRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.LeadStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now: time.Now,
	}
}

// EnsureSchema creates the leads table and its indexes when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLeadsTable); err != nil {
		return fmt.Errorf("ensure leads schema: %w", err)
	}
	return nil
}

// Insert stores lead. A url that is already stored yields domain.ErrDuplicateURL.
func (r *PostgresRepository) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = r.now().UTC()
	}

	var score sql.NullInt64
	if lead.RelevanceScore != nil {
		score = sql.NullInt64{Int64: int64(*lead.RelevanceScore), Valid: true}
	}

	query, args, err := r.sb.Insert(leadsTable).
		Columns(leadColumns...).
		Values(
			lead.ID, lead.Company, lead.Title, lead.URL, lead.Description, lead.RawDescription,
			lead.Source, lead.Category, lead.Timestamp, score, lead.RelevanceExplanation,
			pq.StringArray(valueTypeStrings(lead.ValueTypes)), pq.StringArray(nonNil(lead.ActionItems)),
			lead.ValueExplanation, pq.Float32Array(lead.Embedding), lead.CreatedAt,
		).
		ToSql()
	if err != nil {
		return domain.Lead{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationSQL {
			return domain.Lead{}, fmt.Errorf("%w: %s", domain.ErrDuplicateURL, lead.URL)
		}
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	return lead, nil
}

// FindByURL returns nil, nil when no lead has url.
func (r *PostgresRepository) FindByURL(ctx context.Context, url string) (*domain.Lead, error) {
	query, args, err := r.sb.Select(leadColumns...).
		From(leadsTable).
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by url: %w", err)
	}
	return &lead, nil
}

// FindRecent returns up to limit leads, newest first.
func (r *PostgresRepository) FindRecent(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(leadColumns...).
		From(leadsTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	var leads []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return leads, nil
}

// Delete removes the lead with id. Deleting a missing id is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.sb.Delete(leadsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var (
		lead      domain.Lead
		score     sql.NullInt64
		types     pq.StringArray
		actions   pq.StringArray
		embedding pq.Float32Array
	)

	err := row.Scan(
		&lead.ID, &lead.Company, &lead.Title, &lead.URL, &lead.Description, &lead.RawDescription,
		&lead.Source, &lead.Category, &lead.Timestamp, &score, &lead.RelevanceExplanation,
		&types, &actions, &lead.ValueExplanation, &embedding, &lead.CreatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	if score.Valid {
		s := int(score.Int64)
		lead.RelevanceScore = &s
	}
	lead.ValueTypes = valueTypes(types)
	lead.ActionItems = []string(actions)
	lead.Embedding = []float32(embedding)
	lead.Timestamp = lead.Timestamp.UTC()
	lead.CreatedAt = lead.CreatedAt.UTC()
	return lead, nil
}

func valueTypeStrings(types []domain.ValueType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func valueTypes(raw []string) []domain.ValueType {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.ValueType, 0, len(raw))
	for _, t := range raw {
		out = append(out, domain.ValueType(t))
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
