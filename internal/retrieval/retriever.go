package retrieval

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harborlend/underwriteai/pkg/models"
)

// dtiMetrics are the catalog entries combined when gathering snippets
// for threshold parsing.
var dtiMetrics = []string{"dti_ratio", "dti_ratio_detailed", "dti_ratio_by_credit"}

// Retriever answers metric-oriented policy questions from the store.
type Retriever struct {
	store *Store
}

func NewRetriever(store *Store) *Retriever {
	return &Retriever{store: store}
}

// PolicyContext retrieves the top-k snippets for a named risk metric.
func (r *Retriever) PolicyContext(ctx context.Context, metric string, k int) (*models.PolicyContext, error) {
	q, err := LookupQuery(metric)
	if err != nil {
		return nil, err
	}

	matches, err := r.store.Search(ctx, q.Query, k)
	if err != nil {
		return nil, err
	}

	pc := &models.PolicyContext{Metric: metric, Query: q.Query}
	for _, m := range matches {
		pc.Snippets = append(pc.Snippets, m.Document.Text)
	}
	return pc, nil
}

// FetchAll retrieves contexts for several metrics concurrently. One
// failed metric fails the batch; partial context would silently skew a
// downstream assessment.
func (r *Retriever) FetchAll(ctx context.Context, metrics []string, k int) (map[string]*models.PolicyContext, error) {
	out := make(map[string]*models.PolicyContext, len(metrics))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, metric := range metrics {
		metric := metric
		g.Go(func() error {
			pc, err := r.PolicyContext(gctx, metric, k)
			if err != nil {
				return err
			}
			mu.Lock()
			out[metric] = pc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DTISnippets gathers the combined snippet set for threshold parsing,
// five hits per DTI query phrasing.
func (r *Retriever) DTISnippets(ctx context.Context) ([]string, error) {
	contexts, err := r.FetchAll(ctx, dtiMetrics, 5)
	if err != nil {
		return nil, err
	}

	var snippets []string
	for _, metric := range dtiMetrics {
		snippets = append(snippets, contexts[metric].Snippets...)
	}
	return snippets, nil
}
