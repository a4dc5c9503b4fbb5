package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harborlend/underwriteai/internal/document"
)

// keywordEmbedder maps text onto a fixed axis per keyword so similarity
// is predictable without a live embedding service.
type keywordEmbedder struct {
	keywords []string
}

func (e *keywordEmbedder) Embed(_ context.Context, inputs []string) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	for i, text := range inputs {
		v := make([]float64, len(e.keywords))
		lower := strings.ToLower(text)
		for j, kw := range e.keywords {
			v[j] = float64(strings.Count(lower, kw))
		}
		out[i] = v
	}
	return out, nil
}

type failingEmbedder struct{ err error }

func (e *failingEmbedder) Embed(context.Context, []string) ([][]float64, error) {
	return nil, e.err
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(&keywordEmbedder{keywords: []string{"dti", "ltv", "credit", "insurance"}})
	docs := []document.Document{
		{Source: "guide.pdf", Text: "Back-end DTI ratios above 43% require review. DTI exceptions need compensating factors."},
		{Source: "guide.pdf", Text: "LTV may not exceed 80% without mortgage insurance. High LTV loans carry PMI."},
		{Source: "bulletin.html", Text: "Minimum credit score 620. Credit tiers adjust pricing."},
	}
	if err := store.Add(context.Background(), docs); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return store
}

func TestStoreSearchRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Search(context.Background(), "what are the dti limits", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if !strings.Contains(matches[0].Document.Text, "DTI") {
		t.Errorf("top match should be the DTI chunk, got %q", matches[0].Document.Text)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches should be ordered best first")
	}
}

func TestStoreReset(t *testing.T) {
	store := newTestStore(t)
	if store.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", store.Len())
	}
	store.Reset()
	if store.Len() != 0 {
		t.Errorf("expected empty store after reset, got %d", store.Len())
	}
}

func TestRetrieverPolicyContext(t *testing.T) {
	r := NewRetriever(newTestStore(t))

	pc, err := r.PolicyContext(context.Background(), "ltv_ratio", 1)
	if err != nil {
		t.Fatalf("PolicyContext: %v", err)
	}
	if pc.Metric != "ltv_ratio" {
		t.Errorf("metric: got %q", pc.Metric)
	}
	if len(pc.Snippets) != 1 || !strings.Contains(pc.Snippets[0], "LTV") {
		t.Errorf("expected the LTV chunk, got %v", pc.Snippets)
	}
}

func TestRetrieverUnknownMetric(t *testing.T) {
	r := NewRetriever(newTestStore(t))
	if _, err := r.PolicyContext(context.Background(), "shoe_size", 3); err == nil {
		t.Fatal("expected an error for an unknown metric")
	}
}

func TestRetrieverFetchAll(t *testing.T) {
	r := NewRetriever(newTestStore(t))

	contexts, err := r.FetchAll(context.Background(), []string{"dti_ratio", "ltv_ratio", "credit_score"}, 2)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(contexts) != 3 {
		t.Fatalf("expected 3 contexts, got %d", len(contexts))
	}
	for _, metric := range []string{"dti_ratio", "ltv_ratio", "credit_score"} {
		if contexts[metric] == nil || len(contexts[metric].Snippets) == 0 {
			t.Errorf("metric %s: missing context", metric)
		}
	}
}

func TestRetrieverFetchAllPropagatesFailure(t *testing.T) {
	wantErr := errors.New("embedding backend offline")
	store := NewStore(&failingEmbedder{err: wantErr})
	r := NewRetriever(store)

	_, err := r.FetchAll(context.Background(), []string{"dti_ratio", "ltv_ratio"}, 2)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped embedder error, got %v", err)
	}
}

func TestRetrieverDTISnippets(t *testing.T) {
	r := NewRetriever(newTestStore(t))

	snippets, err := r.DTISnippets(context.Background())
	if err != nil {
		t.Fatalf("DTISnippets: %v", err)
	}
	// Three query phrasings over three chunks each return up to 3 hits.
	if len(snippets) != 9 {
		t.Fatalf("expected 9 snippets (3 queries x 3 chunks), got %d", len(snippets))
	}
}

func TestLookupQuery(t *testing.T) {
	q, err := LookupQuery("mortgage_insurance")
	if err != nil {
		t.Fatalf("LookupQuery: %v", err)
	}
	if !strings.Contains(q.Query, "mortgage insurance") {
		t.Errorf("unexpected query text: %q", q.Query)
	}
	if _, err := LookupQuery("nope"); err == nil {
		t.Fatal("expected an error for an unknown metric")
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header: %q", got)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float64 `json:"embedding"`
			}{Index: i, Embedding: []float64{float64(i), 1}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", WithEmbedderBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}

	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 1 {
		t.Errorf("unexpected vectors: %v", vectors)
	}
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

// countingEmbedder records how many texts reach the wrapped embedder.
type countingEmbedder struct {
	inner Embedder
	seen  int
}

func (e *countingEmbedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	e.seen += len(inputs)
	return e.inner.Embed(ctx, inputs)
}

func TestCachingEmbedderServesRepeatsFromCache(t *testing.T) {
	counter := &countingEmbedder{inner: &keywordEmbedder{keywords: []string{"dti"}}}
	caching := NewCachingEmbedder(counter)
	ctx := context.Background()

	first, err := caching.Embed(ctx, []string{"dti limits", "ltv caps"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if counter.seen != 2 {
		t.Fatalf("upstream texts: got %d, want 2", counter.seen)
	}

	second, err := caching.Embed(ctx, []string{"dti limits", "ltv caps"})
	if err != nil {
		t.Fatalf("Embed (cached): %v", err)
	}
	if counter.seen != 2 {
		t.Errorf("cached call still reached upstream: seen=%d", counter.seen)
	}
	if second[0][0] != first[0][0] {
		t.Errorf("cached vector differs: %v vs %v", second[0], first[0])
	}
}

func TestCachingEmbedderBatchesOnlyMisses(t *testing.T) {
	counter := &countingEmbedder{inner: &keywordEmbedder{keywords: []string{"dti"}}}
	caching := NewCachingEmbedder(counter)
	ctx := context.Background()

	if _, err := caching.Embed(ctx, []string{"dti limits"}); err != nil {
		t.Fatal(err)
	}
	if _, err := caching.Embed(ctx, []string{"dti limits", "credit tiers"}); err != nil {
		t.Fatal(err)
	}
	if counter.seen != 2 {
		t.Errorf("upstream texts: got %d, want 2 (one per unique input)", counter.seen)
	}
}

func TestCachingEmbedderPropagatesErrors(t *testing.T) {
	caching := NewCachingEmbedder(&failingEmbedder{err: ErrEmbeddingDown})
	if _, err := caching.Embed(context.Background(), []string{"dti"}); !errors.Is(err, ErrEmbeddingDown) {
		t.Fatalf("expected ErrEmbeddingDown, got %v", err)
	}
}
