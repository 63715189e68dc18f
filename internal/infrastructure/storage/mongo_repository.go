package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

// MongoRepository persists committed leads into a MongoDB collection.
type MongoRepository struct {
	col *mongo.Collection
	now func() time.Time
}

var _ ports.LeadStore = (*MongoRepository)(nil)

type leadDocument struct {
	ID                   string    `bson:"_id"`
	Company              string    `bson:"company"`
	Title                string    `bson:"title"`
	URL                  string    `bson:"url"`
	Description          string    `bson:"description"`
	RawDescription       string    `bson:"raw_description,omitempty"`
	Source               string    `bson:"source"`
	Category             string    `bson:"category"`
	Timestamp            time.Time `bson:"timestamp"`
	RelevanceScore       *int      `bson:"relevance_score,omitempty"`
	RelevanceExplanation string    `bson:"relevance_explanation,omitempty"`
	ValueTypes           []string  `bson:"value_types"`
	ActionItems          []string  `bson:"action_items"`
	ValueExplanation     string    `bson:"value_explanation,omitempty"`
	Embedding            []float32 `bson:"embedding,omitempty"`
	CreatedAt            time.Time `bson:"created_at"`
}

// ConnectMongo dials uri and verifies the deployment answers a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// NewMongoRepository wraps col. Call EnsureIndexes once before serving traffic.
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col, now: time.Now}
}

// EnsureIndexes creates the unique url index and the recency index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("url_unique"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("leadcol: ensure indexes: %w", err)
	}
	return nil
}

// Insert stores lead. A url that is already stored yields domain.ErrDuplicateURL.
func (r *MongoRepository) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = r.now().UTC()
	}

	if _, err := r.col.InsertOne(ctx, toDocument(lead)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Lead{}, fmt.Errorf("%w: %s", domain.ErrDuplicateURL, lead.URL)
		}
		return domain.Lead{}, fmt.Errorf("leadcol: insert: %w", err)
	}
	return lead, nil
}

// FindByURL returns nil, nil when no lead has url.
func (r *MongoRepository) FindByURL(ctx context.Context, url string) (*domain.Lead, error) {
	var doc leadDocument
	err := r.col.FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leadcol: find by url: %w", err)
	}

	lead := fromDocument(doc)
	return &lead, nil
}

// FindRecent returns up to limit leads, newest first.
func (r *MongoRepository) FindRecent(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("leadcol: find recent: %w", err)
	}

	var docs []leadDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("leadcol: decode recent: %w", err)
	}

	leads := make([]domain.Lead, 0, len(docs))
	for _, doc := range docs {
		leads = append(leads, fromDocument(doc))
	}
	return leads, nil
}

// Delete removes the lead with id. Deleting a missing id is not an error.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("leadcol: delete: %w", err)
	}
	return nil
}

func toDocument(lead domain.Lead) leadDocument {
	return leadDocument{
		ID:                   lead.ID,
		Company:              lead.Company,
		Title:                lead.Title,
		URL:                  lead.URL,
		Description:          lead.Description,
		RawDescription:       lead.RawDescription,
		Source:               lead.Source,
		Category:             lead.Category,
		Timestamp:            lead.Timestamp,
		RelevanceScore:       lead.RelevanceScore,
		RelevanceExplanation: lead.RelevanceExplanation,
		ValueTypes:           valueTypeStrings(lead.ValueTypes),
		ActionItems:          nonNil(lead.ActionItems),
		ValueExplanation:     lead.ValueExplanation,
		Embedding:            lead.Embedding,
		CreatedAt:            lead.CreatedAt,
	}
}

func fromDocument(doc leadDocument) domain.Lead {
	return domain.Lead{
		ID:                   doc.ID,
		Company:              doc.Company,
		Title:                doc.Title,
		URL:                  doc.URL,
		Description:          doc.Description,
		RawDescription:       doc.RawDescription,
		Source:               doc.Source,
		Category:             doc.Category,
		Timestamp:            doc.Timestamp.UTC(),
		RelevanceScore:       doc.RelevanceScore,
		RelevanceExplanation: doc.RelevanceExplanation,
		ValueTypes:           valueTypes(doc.ValueTypes),
		ActionItems:          doc.ActionItems,
		ValueExplanation:     doc.ValueExplanation,
		Embedding:            doc.Embedding,
		CreatedAt:            doc.CreatedAt.UTC(),
	}
}
