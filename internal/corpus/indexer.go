package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/halcyon0/halcyon/internal/vector"
)

// Indexer hands out the retrieval index for a corpus, building it at
// most once. The handle is cached under a key derived from the corpus
// paths, so asking for the same corpus again is free while a changed
// corpus triggers a rebuild.
type Indexer struct {
	embedder     vector.Embedder
	logger       *slog.Logger
	chunkSize    int
	chunkOverlap int

	mu    sync.Mutex
	key   string
	index *vector.Index

	// loader seams, replaced in tests
	loadPDF func(string) ([]vector.Document, error)
	loadCSV func(string) ([]vector.Document, error)
}

// NewIndexer creates an Indexer with the default splitter settings.
// A nil logger falls back to slog.Default().
func NewIndexer(embedder vector.Embedder, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		embedder:     embedder,
		logger:       logger,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		loadPDF:      LoadPDF,
		loadCSV:      LoadCSVQA,
	}
}

// SetChunking overrides the splitter settings for subsequent builds.
func (ix *Indexer) SetChunking(size, overlap int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunkSize = size
	ix.chunkOverlap = overlap
}

// Retriever returns the index for the given corpus, reusing the
// cached handle when the corpus is unchanged. When dir already holds
// a persisted index it is loaded without reading the source files.
func (ix *Indexer) Retriever(ctx context.Context, pdfPath, csvPath, dir string) (*vector.Index, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := corpusKey(pdfPath, csvPath, dir)
	if ix.index != nil && ix.key == key {
		return ix.index, nil
	}

	index := vector.New(dir, ix.embedder, ix.logger)
	if vector.Exists(dir) {
		if err := index.Load(ctx); err != nil {
			return nil, err
		}
		ix.logger.Info("loaded persisted corpus index", "dir", dir, "documents", index.Len())
	} else {
		docs, err := ix.loadCorpus(pdfPath, csvPath)
		if err != nil {
			return nil, err
		}
		chunks := Split(docs, ix.chunkSize, ix.chunkOverlap)
		if err := index.Build(ctx, chunks); err != nil {
			return nil, err
		}
		ix.logger.Info("built corpus index",
			"dir", dir, "documents", len(docs), "chunks", len(chunks))
	}

	ix.key = key
	ix.index = index
	return index, nil
}

func (ix *Indexer) loadCorpus(pdfPath, csvPath string) ([]vector.Document, error) {
	var docs []vector.Document
	if pdfPath != "" {
		pages, err := ix.loadPDF(pdfPath)
		if err != nil {
			return nil, err
		}
		docs = append(docs, pages...)
	}
	if csvPath != "" {
		rows, err := ix.loadCSV(csvPath)
		if err != nil {
			return nil, err
		}
		docs = append(docs, rows...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus is empty (pdf=%q csv=%q)", pdfPath, csvPath)
	}
	return docs, nil
}

// BuildIndex loads the index persisted under dir, or builds one from
// docs when none exists. It shares no state with any Indexer.
func BuildIndex(ctx context.Context, embedder vector.Embedder, docs []vector.Document, dir string) (*vector.Index, error) {
	index := vector.New(dir, embedder, nil)
	if vector.Exists(dir) {
		if err := index.Load(ctx); err != nil {
			return nil, err
		}
		return index, nil
	}

	if err := index.Build(ctx, Split(docs, DefaultChunkSize, DefaultChunkOverlap)); err != nil {
		return nil, err
	}
	return index, nil
}

func corpusKey(pdfPath, csvPath, dir string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s", pdfPath, csvPath, dir))
	return hex.EncodeToString(sum[:])
}
