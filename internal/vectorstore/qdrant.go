package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/driveagent/driveagent/internal/mimemap"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
)

// QdrantStore is a VectorStore backed by a Qdrant collection, for
// collections too large for EmbeddedStore's brute-force scan.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	rootName   string
	model      contracts.Model
}

// QdrantConfig addresses a Qdrant instance and collection.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	RootName   string
}

// NewQdrantStore dials Qdrant and ensures the collection exists.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig, model contracts.Model, vectorSize uint64) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Host, Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}

	exists, err := client.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("check qdrant collection: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     vectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("create qdrant collection: %w", err)
		}
		log.Info().Str("collection", cfg.Collection).Msg("qdrant collection created")
	}

	rootName := cfg.RootName
	if rootName == "" {
		rootName = "Drive"
	}
	return &QdrantStore{client: client, collection: cfg.Collection, rootName: rootName, model: model}, nil
}

// Kind identifies this driver in the vectorstore registry.
func (s *QdrantStore) Kind() string { return "qdrant" }

// AddMany embeds each input and upserts it as a Qdrant point keyed by id.
func (s *QdrantStore) AddMany(ctx context.Context, inputs []contracts.AddManyInput) error {
	points := make([]*qdrant.PointStruct, 0, len(inputs))
	for _, in := range inputs {
		embedding, err := s.model.Embed(ctx, in.Text)
		if err != nil {
			return fmt.Errorf("embed %s: %w", in.ID, err)
		}
		vec := make([]float32, len(embedding))
		for i, v := range embedding {
			vec[i] = float32(v)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(in.ID),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":         in.Text,
				"name":         in.Metadata.Name,
				"mimeType":     in.Metadata.MimeType,
				"folderPath":   in.Metadata.FolderPath,
				"modifiedTime": in.Metadata.ModifiedTime,
				"extension":    in.Metadata.Extension,
				"googleLink":   in.Metadata.GoogleLink,
			}),
		})
	}
	if len(points) == 0 {
		return nil
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: s.collection, Points: points})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Search implements the spec's ranking algorithm on top of Qdrant's
// nearest-neighbor search: fetch top n*3 (or n) by distance, then apply the
// same metadata/keyword/maxDistance refinement EmbeddedStore applies.
func (s *QdrantStore) Search(ctx context.Context, query string, n int, opts contracts.SearchOptions) ([]models.SearchResult, error) {
	queryEmbedding, err := s.model.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec := make([]float32, len(queryEmbedding))
	for i, v := range queryEmbedding {
		vec[i] = float32(v)
	}

	fetchN := uint64(n)
	if opts.Keyword != "" {
		fetchN = uint64(n * 3)
	}
	if fetchN == 0 {
		fetchN = 50
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          qdrant.PtrOf(fetchN),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	candidates := make([]models.SearchResult, 0, len(points))
	for _, p := range points {
		meta := models.DocumentMetadata{
			Name:         p.Payload["name"].GetStringValue(),
			MimeType:     p.Payload["mimeType"].GetStringValue(),
			FolderPath:   p.Payload["folderPath"].GetStringValue(),
			ModifiedTime: p.Payload["modifiedTime"].GetStringValue(),
			Extension:    p.Payload["extension"].GetStringValue(),
			GoogleLink:   p.Payload["googleLink"].GetStringValue(),
		}
		if !matchesFilter(meta, opts.MetadataFilter) {
			continue
		}
		candidates = append(candidates, models.SearchResult{
			ID:       p.Id.GetUuid(),
			Text:     p.Payload["text"].GetStringValue(),
			Metadata: meta,
			Distance: 1 - float64(p.Score),
		})
	}

	if opts.Keyword != "" {
		needle := strings.ToLower(opts.Keyword)
		for i := range candidates {
			candidates[i].KeywordCount = strings.Count(strings.ToLower(candidates[i].Text), needle)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].KeywordCount != candidates[j].KeywordCount {
				return candidates[i].KeywordCount > candidates[j].KeywordCount
			}
			return candidates[i].Distance < candidates[j].Distance
		})
	}

	if opts.MaxDistance != nil {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.Distance <= *opts.MaxDistance {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	if n > 0 && n < len(candidates) {
		candidates = candidates[:n]
	}

	for i := range candidates {
		candidates[i].Path = s.pathFor(candidates[i].Metadata)
		if candidates[i].Metadata.GoogleLink != "" {
			candidates[i].GoogleLink = candidates[i].Metadata.GoogleLink
		} else {
			candidates[i].GoogleLink = mimemap.GoogleLink(candidates[i].ID, candidates[i].Metadata.MimeType)
		}
	}

	return candidates, nil
}

func (s *QdrantStore) pathFor(meta models.DocumentMetadata) string {
	parts := []string{s.rootName}
	if meta.FolderPath != "" {
		parts = append(parts, meta.FolderPath)
	}
	parts = append(parts, meta.Name+meta.Extension)
	return strings.Join(parts, "/")
}

// GetAll scrolls the entire collection. Used only for sync reconciliation.
func (s *QdrantStore) GetAll(ctx context.Context) ([]models.Document, error) {
	total, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collection, Exact: qdrant.PtrOf(true)})
	if err != nil {
		return nil, fmt.Errorf("qdrant count: %w", err)
	}
	if total == 0 {
		return []models.Document{}, nil
	}
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
		Limit:          qdrant.PtrOf(uint32(total)),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll: %w", err)
	}
	out := make([]models.Document, 0, len(points))
	for _, p := range points {
		out = append(out, models.Document{
			ID:   p.Id.GetUuid(),
			Text: p.Payload["text"].GetStringValue(),
			Metadata: models.DocumentMetadata{
				Name:         p.Payload["name"].GetStringValue(),
				MimeType:     p.Payload["mimeType"].GetStringValue(),
				FolderPath:   p.Payload["folderPath"].GetStringValue(),
				ModifiedTime: p.Payload["modifiedTime"].GetStringValue(),
				Extension:    p.Payload["extension"].GetStringValue(),
				GoogleLink:   p.Payload["googleLink"].GetStringValue(),
			},
		})
	}
	return out, nil
}

// DeleteMany removes points by id.
func (s *QdrantStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// GetStats returns the collection's point count.
func (s *QdrantStore) GetStats(ctx context.Context) (models.VectorStoreStats, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collection})
	if err != nil {
		return models.VectorStoreStats{}, fmt.Errorf("qdrant count: %w", err)
	}
	return models.VectorStoreStats{Count: int(count), Name: s.Kind()}, nil
}

// Reset deletes and recreates the collection.
func (s *QdrantStore) Reset(ctx context.Context) error {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("qdrant collection info: %w", err)
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("qdrant delete collection: %w", err)
	}
	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig:  info.GetConfig().GetParams().GetVectorsConfig(),
	}); err != nil {
		return fmt.Errorf("qdrant recreate collection: %w", err)
	}
	return nil
}
