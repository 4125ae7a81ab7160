// Package docstore keeps chunk text and metadata in MongoDB, keyed by
// chunk id.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// DefaultCollection holds one document per chunk.
const DefaultCollection = "chunks"

type relationshipsDoc struct {
	Source   string `bson:"source"`
	Previous string `bson:"previous,omitempty"`
	Next     string `bson:"next,omitempty"`
}

type chunkDoc struct {
	ID                 string            `bson:"_id"`
	ParentID           string            `bson:"parent_id"`
	PublicID           string            `bson:"public_id"`
	Text               string            `bson:"text"`
	Title              string            `bson:"title,omitempty"`
	Seq                int64             `bson:"seq"`
	Metadata           map[string]string `bson:"metadata,omitempty"`
	Relationships      relationshipsDoc  `bson:"relationships"`
	ExcludedEmbedKeys  []string          `bson:"excluded_embed_keys,omitempty"`
	ExcludedPromptKeys []string          `bson:"excluded_prompt_keys,omitempty"`
	CreatedAt          time.Time         `bson:"created_at"`
}

func docOf(c *domain.Chunk, now time.Time) chunkDoc {
	return chunkDoc{
		ID:       c.ID,
		ParentID: c.ParentID(),
		PublicID: c.PublicID(),
		Text:     c.Text,
		Title:    c.Title,
		Seq:      c.Seq,
		Metadata: c.Metadata,
		Relationships: relationshipsDoc{
			Source:   c.Relationships.Source,
			Previous: c.Relationships.Previous,
			Next:     c.Relationships.Next,
		},
		ExcludedEmbedKeys:  c.ExcludedEmbedKeys,
		ExcludedPromptKeys: c.ExcludedPromptKeys,
		CreatedAt:          now,
	}
}

func (d *chunkDoc) chunk() *domain.Chunk {
	return &domain.Chunk{
		ID:       d.ID,
		Text:     d.Text,
		Title:    d.Title,
		Seq:      d.Seq,
		Metadata: d.Metadata,
		Relationships: domain.Relationships{
			Source:   d.Relationships.Source,
			Previous: d.Relationships.Previous,
			Next:     d.Relationships.Next,
		},
		ExcludedEmbedKeys:  d.ExcludedEmbedKeys,
		ExcludedPromptKeys: d.ExcludedPromptKeys,
	}
}

// MongoStore is a DocStore backed by a single collection.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: db.Collection(collection), now: time.Now}
}

// EnsureIndexes creates the lookup indexes used by deletes and file
// listings.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "public_id", Value: 1}, {Key: "seq", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	now := s.now().UTC()
	docs := make([]interface{}, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, docOf(c, now))
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteByParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return domain.ErrMissingRequiredField
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"parent_id": parentID}); err != nil {
		return fmt.Errorf("failed to delete parent %s: %w", parentID, err)
	}
	return nil
}

func (s *MongoStore) FindByPublicID(ctx context.Context, publicID string) ([]*domain.Chunk, error) {
	if publicID == "" {
		return nil, domain.ErrMissingPublicID
	}
	cur, err := s.coll.Find(ctx, bson.M{"public_id": publicID}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find chunks: %w", err)
	}
	var docs []chunkDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}
	out := make([]*domain.Chunk, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].chunk())
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*domain.Chunk, error) {
	var doc chunkDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return doc.chunk(), nil
}
