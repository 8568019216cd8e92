package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/driveagent/driveagent/internal/mimemap"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultMaxVectors is the default cap for the embedded store (50K).
// AddMany rejects a new id beyond the cap with an error suggesting Qdrant,
// and logs a warning once the store holds more than 90% of the cap.
const DefaultMaxVectors = 50_000

// EmbeddedOption configures the embedded store.
type EmbeddedOption func(*EmbeddedStore)

// WithMaxVectors sets the maximum number of vectors (default 50K).
func WithMaxVectors(max int) EmbeddedOption {
	return func(s *EmbeddedStore) { s.maxVectors = max }
}

// WithRootName sets the folder-root label Search prefixes onto Path.
func WithRootName(name string) EmbeddedOption {
	return func(s *EmbeddedStore) { s.rootName = name }
}

// EmbeddedStore is a lightweight in-memory vector store using brute-force
// cosine distance search. Suitable for development and small workloads
// (≤50K vectors). For production scale, use QdrantStore.
type EmbeddedStore struct {
	mu         sync.RWMutex
	docs       map[string]*models.Document
	maxVectors int
	rootName   string
	model      contracts.Model
}

// NewEmbeddedStore creates an in-memory vector store that embeds documents
// and queries via model.
func NewEmbeddedStore(model contracts.Model, opts ...EmbeddedOption) *EmbeddedStore {
	s := &EmbeddedStore{
		docs:       make(map[string]*models.Document),
		maxVectors: DefaultMaxVectors,
		rootName:   "Drive",
		model:      model,
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Info().Int("max_vectors", s.maxVectors).Msg("embedded vector store initialized")
	return s
}

// Kind identifies this driver in the vectorstore registry.
func (s *EmbeddedStore) Kind() string { return "embedded" }

// AddMany embeds and upserts each input, replacing any existing id.
func (s *EmbeddedStore) AddMany(ctx context.Context, inputs []contracts.AddManyInput) error {
	for _, in := range inputs {
		embedding, err := s.model.Embed(ctx, in.Text)
		if err != nil {
			return fmt.Errorf("embed %s: %w", in.ID, err)
		}

		s.mu.Lock()
		_, exists := s.docs[in.ID]
		if !exists && len(s.docs)+1 > s.maxVectors {
			s.mu.Unlock()
			return fmt.Errorf("embedded vector store capacity exceeded: %d > %d (consider qdrant)", len(s.docs)+1, s.maxVectors)
		}
		if float64(len(s.docs)) > float64(s.maxVectors)*0.9 {
			log.Warn().Int("count", len(s.docs)).Int("max", s.maxVectors).Msg("embedded vector store nearing capacity")
		}
		s.docs[in.ID] = &models.Document{
			ID:        in.ID,
			Text:      in.Text,
			Embedding: embedding,
			Metadata:  in.Metadata,
		}
		s.mu.Unlock()
	}
	return nil
}

// Search implements the spec's ranking algorithm: embed the query, gather
// candidates by ascending distance (top n*3 when a keyword is set, else top
// n), apply the metadata filter, refine by keyword count, gate by
// maxDistance, then truncate to n.
func (s *EmbeddedStore) Search(ctx context.Context, query string, n int, opts contracts.SearchOptions) ([]models.SearchResult, error) {
	queryEmbedding, err := s.model.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	candidates := make([]models.SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		candidates = append(candidates, models.SearchResult{
			ID:       doc.ID,
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Distance: cosineDistance(queryEmbedding, doc.Embedding),
		})
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })

	fetchN := n
	if opts.Keyword != "" {
		fetchN = n * 3
	}
	if fetchN > 0 && fetchN < len(candidates) {
		candidates = candidates[:fetchN]
	}

	if len(opts.MetadataFilter) > 0 {
		kept := candidates[:0]
		for _, c := range candidates {
			if matchesFilter(c.Metadata, opts.MetadataFilter) {
				kept = append(kept, c)
			}
		}
		candidates = kept
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

func (s *EmbeddedStore) pathFor(meta models.DocumentMetadata) string {
	parts := []string{s.rootName}
	if meta.FolderPath != "" {
		parts = append(parts, meta.FolderPath)
	}
	parts = append(parts, meta.Name+meta.Extension)
	return strings.Join(parts, "/")
}

func matchesFilter(meta models.DocumentMetadata, filter map[string]string) bool {
	for k, v := range filter {
		switch k {
		case "name":
			if meta.Name != v {
				return false
			}
		case "mimeType":
			if meta.MimeType != v {
				return false
			}
		case "folderPath":
			if meta.FolderPath != v {
				return false
			}
		case "extension":
			if meta.Extension != v {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// GetAll returns every stored document, used by sync reconciliation.
func (s *EmbeddedStore) GetAll(ctx context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	return out, nil
}

// DeleteMany removes documents by id. Missing ids are ignored.
func (s *EmbeddedStore) DeleteMany(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

// GetStats returns the current document count.
func (s *EmbeddedStore) GetStats(ctx context.Context) (models.VectorStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.VectorStoreStats{Count: len(s.docs), Name: s.Kind()}, nil
}

// Reset empties the collection.
func (s *EmbeddedStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*models.Document)
	return nil
}

// cosineDistance returns 1 - cosine similarity; 0 is identical, 2 is opposite.
func cosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - similarity
}
