package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
)

// DefaultWeaviateClass holds admission knowledge chunks.
const DefaultWeaviateClass = "AdmissionChunk"

const (
	propChunkID  = "chunk_id"
	propParentID = "parent_id"
	propText     = "text"
	propKeywords = "keywords"
	propRecord   = "record"
)

// chunkNamespace derives stable object UUIDs from chunk ids.
var chunkNamespace = uuid.MustParse("6f1c2f5e-2b8a-4f43-9a57-3c6d1f0b7e21")

// WeaviateIndex stores chunks in a Weaviate class with a caller-supplied
// vector and uses Weaviate's native hybrid search. Vietnamese text is
// indexed in diacritic-folded form so keyword matching tolerates
// unaccented queries.
type WeaviateIndex struct {
	client *weaviate.Client
	class  string
	logger zerolog.Logger
}

var _ retrieval.VectorIndex = (*WeaviateIndex)(nil)

// NewWeaviateClient builds a client from a URL such as
// http://localhost:8080.
func NewWeaviateClient(rawURL string) (*weaviate.Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q", rawURL)
	}
	client, err := weaviate.NewClient(weaviate.Config{Host: u.Host, Scheme: u.Scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return client, nil
}

func NewWeaviateIndex(client *weaviate.Client, class string, logger zerolog.Logger) *WeaviateIndex {
	if class == "" {
		class = DefaultWeaviateClass
	}
	return &WeaviateIndex{client: client, class: class, logger: logger}
}

// Schema describes the chunk class.
func (x *WeaviateIndex) Schema() *models.Class {
	filterable := true
	searchable := false
	return &models.Class{
		Class:       x.class,
		Description: "A chunk of admission knowledge with its serialized record.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            propChunkID,
				DataType:        []string{"text"},
				IndexFilterable: &filterable,
				IndexSearchable: &searchable,
				Tokenization:    "field",
			},
			{
				Name:            propParentID,
				DataType:        []string{"text"},
				IndexFilterable: &filterable,
				IndexSearchable: &searchable,
				Tokenization:    "field",
			},
			{
				Name:            propText,
				DataType:        []string{"text"},
				IndexSearchable: &searchable,
			},
			{
				Name:         propKeywords,
				DataType:     []string{"text"},
				Tokenization: "whitespace",
			},
			{
				Name:            propRecord,
				DataType:        []string{"text"},
				IndexSearchable: &searchable,
			},
		},
	}
}

// EnsureSchema creates the class when it does not exist yet.
func (x *WeaviateIndex) EnsureSchema(ctx context.Context) error {
	if _, err := x.client.Schema().ClassGetter().WithClassName(x.class).Do(ctx); err == nil {
		x.logger.Debug().Str("class", x.class).Msg("weaviate schema already exists")
		return nil
	}
	if err := x.client.Schema().ClassCreator().WithClass(x.Schema()).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", x.class, err)
	}
	x.logger.Info().Str("class", x.class).Msg("created weaviate schema")
	return nil
}

func (x *WeaviateIndex) objectOf(c *domain.Chunk) (*models.Object, error) {
	if len(c.Embedding) == 0 {
		return nil, fmt.Errorf("chunk %s has no embedding", c.ID)
	}
	rec, err := encodeRecord(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chunk %s: %w", c.ID, err)
	}
	return &models.Object{
		Class:  x.class,
		ID:     strfmt.UUID(uuid.NewSHA1(chunkNamespace, []byte(c.ID)).String()),
		Vector: c.Embedding,
		Properties: map[string]interface{}{
			propChunkID:  c.ID,
			propParentID: c.ParentID(),
			propText:     c.Text,
			propKeywords: retrieval.KeywordQuery(c.Title + " " + c.Text),
			propRecord:   rec,
		},
	}, nil
}

func (x *WeaviateIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	objects := make([]*models.Object, 0, len(chunks))
	for _, c := range chunks {
		obj, err := x.objectOf(c)
		if err != nil {
			return err
		}
		objects = append(objects, obj)
	}

	resp, err := x.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to save objects to weaviate: %w", err)
	}

	failed := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			continue
		}
		failed++
		if item.Result != nil && item.Result.Errors != nil {
			for _, e := range item.Result.Errors.Error {
				x.logger.Warn().Str("object_id", item.ID.String()).Str("error", e.Message).Msg("weaviate batch item failed")
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("weaviate rejected %d of %d objects", failed, len(objects))
	}
	return nil
}

func (x *WeaviateIndex) DeleteByParent(ctx context.Context, parentID string) error {
	if parentID == "" {
		return domain.ErrMissingRequiredField
	}
	where := filters.Where().
		WithPath([]string{propParentID}).
		WithOperator(filters.Equal).
		WithValueString(parentID)

	resp, err := x.client.Batch().ObjectsBatchDeleter().
		WithClassName(x.class).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete parent %s: %w", parentID, err)
	}
	if resp != nil && resp.Results != nil && resp.Results.Failed > 0 {
		return fmt.Errorf("weaviate failed to delete %d objects of parent %s", resp.Results.Failed, parentID)
	}
	return nil
}

func (x *WeaviateIndex) Search(ctx context.Context, req retrieval.SearchRequest) ([]domain.ScoredChunk, error) {
	if req.Limit <= 0 {
		return nil, nil
	}
	hybrid := x.client.GraphQL().HybridArgumentBuilder().
		WithQuery(retrieval.KeywordQuery(req.Query)).
		WithVector(req.Embedding).
		WithAlpha(req.Alpha).
		WithProperties([]string{propKeywords}).
		WithFusionType(graphql.RelativeScore)

	resp, err := x.client.GraphQL().Get().
		WithClassName(x.class).
		WithFields(
			graphql.Field{Name: propRecord},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "score"}}},
		).
		WithHybrid(hybrid).
		WithLimit(req.Limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return x.parseHybrid(resp)
}

type hybridHit struct {
	Record     string `json:"record"`
	Additional struct {
		ID    string `json:"id"`
		Score string `json:"score"`
	} `json:"_additional"`
}

func (x *WeaviateIndex) parseHybrid(resp *models.GraphQLResponse) ([]domain.ScoredChunk, error) {
	if resp == nil {
		return nil, nil
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", resp.Errors[0].Message)
	}
	raw, err := json.Marshal(resp.Data["Get"])
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	var byClass map[string][]hybridHit
	if err := json.Unmarshal(raw, &byClass); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	hits := make([]domain.ScoredChunk, 0, len(byClass[x.class]))
	for _, h := range byClass[x.class] {
		c, err := decodeRecord(h.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to decode object %s: %w", h.Additional.ID, err)
		}
		score, err := strconv.ParseFloat(h.Additional.Score, 32)
		if err != nil {
			score = 0
		}
		hits = append(hits, domain.ScoredChunk{Chunk: c, Score: float32(score)})
	}
	retrieval.SortRanked(hits)
	return hits, nil
}
