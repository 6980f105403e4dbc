package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/halcyon0/halcyon/internal/log"
	"github.com/halcyon0/halcyon/internal/vector"
)

type stubEmbedder struct{ calls int }

func (s *stubEmbedder) Embed(context.Context, string) ([]float64, error) {
	s.calls++
	return []float64{1, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

// fakeLoaders counts source reads and returns a tiny fixed corpus.
type fakeLoaders struct {
	pdfCalls, csvCalls int
	err                error
}

func (f *fakeLoaders) pdf(string) ([]vector.Document, error) {
	f.pdfCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []vector.Document{{ID: "p1", Content: "page one", Source: "guide.pdf"}}, nil
}

func (f *fakeLoaders) csv(string) ([]vector.Document, error) {
	f.csvCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []vector.Document{{ID: "r1", Content: "Question: q\nAnswer: a", Source: "qa.csv"}}, nil
}

func newTestIndexer(t *testing.T) (*Indexer, *fakeLoaders, *stubEmbedder) {
	t.Helper()
	embedder := &stubEmbedder{}
	loaders := &fakeLoaders{}
	ix := NewIndexer(embedder, log.NewNop())
	ix.loadPDF = loaders.pdf
	ix.loadCSV = loaders.csv
	return ix, loaders, embedder
}

func TestRetrieverBuildsOnce(t *testing.T) {
	ix, loaders, _ := newTestIndexer(t)
	ctx := context.Background()
	dir := t.TempDir()

	first, err := ix.Retriever(ctx, "guide.pdf", "qa.csv", dir)
	if err != nil {
		t.Fatalf("Retriever() error = %v", err)
	}
	if loaders.pdfCalls != 1 || loaders.csvCalls != 1 {
		t.Errorf("loader calls = %d/%d, want 1/1", loaders.pdfCalls, loaders.csvCalls)
	}

	second, err := ix.Retriever(ctx, "guide.pdf", "qa.csv", dir)
	if err != nil {
		t.Fatalf("second Retriever() error = %v", err)
	}
	if second != first {
		t.Error("second call returned a different handle, want the cached one")
	}
	if loaders.pdfCalls != 1 || loaders.csvCalls != 1 {
		t.Errorf("loaders hit again on a cached corpus: %d/%d", loaders.pdfCalls, loaders.csvCalls)
	}
}

func TestRetrieverRebuildsOnChangedCorpus(t *testing.T) {
	ix, loaders, _ := newTestIndexer(t)
	ctx := context.Background()

	first, err := ix.Retriever(ctx, "guide.pdf", "qa.csv", t.TempDir())
	if err != nil {
		t.Fatalf("Retriever() error = %v", err)
	}

	second, err := ix.Retriever(ctx, "other.pdf", "qa.csv", t.TempDir())
	if err != nil {
		t.Fatalf("Retriever() with new corpus error = %v", err)
	}
	if second == first {
		t.Error("changed corpus returned the stale cached handle")
	}
	if loaders.pdfCalls != 2 {
		t.Errorf("pdf loader calls = %d, want 2", loaders.pdfCalls)
	}
}

func TestRetrieverLoadsPersistedIndexWithoutLoaders(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Persist an index with one Indexer, then start over.
	seed, _, _ := newTestIndexer(t)
	if _, err := seed.Retriever(ctx, "guide.pdf", "qa.csv", dir); err != nil {
		t.Fatalf("seeding index: %v", err)
	}

	ix, loaders, _ := newTestIndexer(t)
	index, err := ix.Retriever(ctx, "guide.pdf", "qa.csv", dir)
	if err != nil {
		t.Fatalf("Retriever() error = %v", err)
	}
	if loaders.pdfCalls != 0 || loaders.csvCalls != 0 {
		t.Errorf("loaders ran on the persisted fast path: %d/%d", loaders.pdfCalls, loaders.csvCalls)
	}
	if index.Len() == 0 {
		t.Error("loaded index is empty")
	}
}

func TestRetrieverEmptyCorpus(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	if _, err := ix.Retriever(context.Background(), "", "", t.TempDir()); err == nil {
		t.Error("Retriever() with no sources returned nil error")
	}
}

func TestRetrieverLoaderFailure(t *testing.T) {
	ix, loaders, _ := newTestIndexer(t)
	loaders.err = errors.New("corrupt file")

	if _, err := ix.Retriever(context.Background(), "guide.pdf", "qa.csv", t.TempDir()); !errors.Is(err, loaders.err) {
		t.Errorf("Retriever() error = %v, want wrapped loader error", err)
	}
}

func TestBuildIndexStandalone(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	embedder := &stubEmbedder{}
	docs := []vector.Document{{ID: "1", Content: "some corpus text"}}

	first, err := BuildIndex(ctx, embedder, docs, dir)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if first.Len() != 1 {
		t.Fatalf("built %d documents, want 1", first.Len())
	}
	buildCalls := embedder.calls

	// Second call loads from disk instead of re-embedding.
	second, err := BuildIndex(ctx, embedder, nil, dir)
	if err != nil {
		t.Fatalf("second BuildIndex() error = %v", err)
	}
	if second.Len() != 1 {
		t.Errorf("loaded %d documents, want 1", second.Len())
	}
	if embedder.calls != buildCalls {
		t.Errorf("embedder ran again on load: %d calls, want %d", embedder.calls, buildCalls)
	}
}
