package cloudsearch

import (
	"context"
	"sync"
	"time"

	"github.com/goto/salt/log"

	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/core/search"
)

const documentLang = "en"

// DocumentRepository pushes document batches to the remote domain.
type DocumentRepository struct {
	cli    *Client
	cfg    schema.IndexConfig
	logger log.Logger
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

type DocumentRepositoryOption func(*DocumentRepository)

// WithClock overrides the version clock, primarily for tests.
func WithClock(now func() time.Time) DocumentRepositoryOption {
	return func(r *DocumentRepository) {
		r.now = now
	}
}

func NewDocumentRepository(logger log.Logger, cli *Client, cfg schema.IndexConfig, opts ...DocumentRepositoryOption) *DocumentRepository {
	r := &DocumentRepository{
		cli:    cli,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Push uploads documents as one add batch. Documents of an excluded
// kind are filtered out first; a batch that filters down to nothing is
// a successful no-op. Returns the number of documents sent.
func (r *DocumentRepository) Push(ctx context.Context, docs []schema.Document) (int, error) {
	ns := r.cfg.Namespace()
	version := r.version()

	items := make([]batchItem, 0, len(docs))
	for _, doc := range docs {
		if r.cfg.Excluded(doc.Kind) {
			r.logger.Debug("skipping excluded document", "id", doc.ID, "kind", doc.Kind)
			continue
		}

		fields := make(map[string]interface{}, len(doc.Fields)+1)
		for name, value := range doc.Fields {
			fields[EncodeName(ns, name)] = value
		}
		// Tag every document with its owning index so that indexes
		// sharing the domain can tell their documents apart.
		fields[DocTagField] = r.cfg.Name

		items = append(items, batchItem{
			Type:    "add",
			ID:      EncodeName(ns, doc.ID),
			Version: version,
			Lang:    documentLang,
			Fields:  fields,
		})
	}

	if len(items) == 0 {
		r.logger.Info("document batch empty after filtering, nothing sent", "namespace", ns)
		return 0, nil
	}

	if _, err := r.cli.submitBatch(ctx, items); err != nil {
		return 0, search.AdapterError{Op: "Push", Index: ns, Err: err}
	}
	r.logger.Info("document batch submitted", "namespace", ns, "documents", len(items))
	return len(items), nil
}

// Delete uploads one delete batch for the given document ids. Every
// entry carries a distinct, strictly increasing version so it
// supersedes any earlier state of the same document.
func (r *DocumentRepository) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ns := r.cfg.Namespace()

	items := make([]batchItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, batchItem{
			Type:    "delete",
			ID:      EncodeName(ns, id),
			Version: r.version(),
		})
	}

	if _, err := r.cli.submitBatch(ctx, items); err != nil {
		return 0, search.AdapterError{Op: "Delete", Index: ns, Err: err}
	}
	r.logger.Info("document deletions submitted", "namespace", ns, "documents", len(items))
	return len(items), nil
}

// version issues a strictly increasing sequence. The wall clock has
// second resolution, so when it has not advanced past the last issued
// value the next version is minted by incrementing instead.
func (r *DocumentRepository) version() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.now().Unix()
	if v <= r.last {
		v = r.last + 1
	}
	r.last = v
	return v
}
