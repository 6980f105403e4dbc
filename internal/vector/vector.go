// Package vector implements a small on-disk vector index with
// cosine-similarity search. The index holds every document in memory
// and persists them as a single JSON file, which is plenty for a
// corpus of a few thousand chunks.
package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// indexFile is the persisted index name inside the index directory.
const indexFile = "index.json"

// ErrIndexNotFound is returned by Load when no persisted index exists
// in the configured directory.
var ErrIndexNotFound = errors.New("vector: index not found")

// Document is one indexed chunk of corpus text.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float64 `json:"embedding"`
}

// Result is a search hit with its cosine similarity to the query.
type Result struct {
	Document Document
	Score    float64
}

// Embedder turns text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Index is an in-memory vector index backed by a JSON file.
//
// Build and Load replace the whole document set; Search reads it.
// All three are safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	dir      string
	docs     []Document
	embedder Embedder
	logger   *slog.Logger
}

// New creates an Index persisted under dir. A nil logger falls back
// to slog.Default().
func New(dir string, embedder Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{dir: dir, embedder: embedder, logger: logger}
}

// Exists reports whether dir holds a persisted index.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, indexFile))
	return err == nil && !info.IsDir()
}

// Build embeds every document and persists the result, replacing any
// previous index contents.
func (ix *Index) Build(ctx context.Context, docs []Document) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d documents: %w", len(docs), err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(embeddings), len(docs))
	}

	indexed := make([]Document, len(docs))
	for i, doc := range docs {
		doc.Embedding = embeddings[i]
		indexed[i] = doc
	}

	if err := ix.persist(indexed); err != nil {
		return err
	}

	ix.mu.Lock()
	ix.docs = indexed
	ix.mu.Unlock()

	ix.logger.Debug("built vector index", "documents", len(indexed), "dir", ix.dir)
	return nil
}

// Load reads the persisted index into memory. Returns ErrIndexNotFound
// when the directory holds no index.
func (ix *Index) Load(ctx context.Context) error {
	data, err := os.ReadFile(filepath.Join(ix.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, ix.dir)
	}
	if err != nil {
		return fmt.Errorf("reading index from %s: %w", ix.dir, err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("decoding index from %s: %w", ix.dir, err)
	}

	ix.mu.Lock()
	ix.docs = docs
	ix.mu.Unlock()

	ix.logger.Debug("loaded vector index", "documents", len(docs), "dir", ix.dir)
	return nil
}

// Search embeds the query and returns the topK most similar documents
// in descending score order.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	embedding, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]Result, 0, len(ix.docs))
	for _, doc := range ix.docs {
		results = append(results, Result{
			Document: doc,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func (ix *Index) persist(docs []Document) error {
	if err := os.MkdirAll(ix.dir, 0o750); err != nil {
		return fmt.Errorf("creating index directory %s: %w", ix.dir, err)
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := os.WriteFile(filepath.Join(ix.dir, indexFile), data, 0o640); err != nil {
		return fmt.Errorf("writing index to %s: %w", ix.dir, err)
	}
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
