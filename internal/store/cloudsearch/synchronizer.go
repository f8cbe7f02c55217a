package cloudsearch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/goto/salt/log"

	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/core/search"
)

// DocTagField records which abstract index a document belongs to. It
// is deliberately un-namespaced so that every index sharing the domain
// reads and writes the same field.
const DocTagField = "searchbridge_index"

// Synchronizer reconciles an index's abstract field set with the
// fields defined on the remote domain. One Sync call is one pass;
// passes against the same namespace must be serialized by the caller.
type Synchronizer struct {
	cli      *Client
	cfg      schema.IndexConfig
	facets   schema.FacetStore
	mappings schema.MappingStore
	logger   log.Logger
}

func NewSynchronizer(logger log.Logger, cli *Client, cfg schema.IndexConfig, facets schema.FacetStore, mappings schema.MappingStore) (*Synchronizer, error) {
	if cfg.Name == "" {
		return nil, schema.ErrEmptyIndexName
	}
	return &Synchronizer{
		cli:      cli,
		cfg:      cfg,
		facets:   facets,
		mappings: mappings,
		logger:   logger,
	}, nil
}

// Sync runs one synchronization pass: fetch remote fields, delete the
// obsolete ones, ensure the document-tag field, add or update changed
// fields and trigger reindexing when anything moved.
//
// Only a remote-fetch failure aborts the pass; per-field failures are
// counted and the first one retained in the result.
func (s *Synchronizer) Sync(ctx context.Context, fields []schema.FieldDescriptor) (schema.SyncResult, error) {
	ns := s.cfg.Namespace()
	passID := uuid.NewString()
	s.logger.Info("starting field synchronization", "namespace", ns, "pass", passID, "fields", len(fields))

	remote, err := s.cli.ListFields(ctx)
	if err != nil {
		return schema.SyncResult{}, search.AdapterError{Op: "Sync", Index: ns, Err: err}
	}

	byDecodedName := make(map[string]RemoteField, len(remote))
	for _, r := range remote {
		if !belongsTo(ns, r.Name) {
			continue
		}
		byDecodedName[DecodeName(ns, r.Name)] = r
	}

	var result schema.SyncResult
	s.deleteObsolete(ctx, fields, byDecodedName, &result, passID)
	s.ensureDocTagField(ctx, remote, &result, passID)
	mapping := s.addOrUpdateChanged(ctx, fields, byDecodedName, &result, passID)

	if err := s.mappings.SaveMapping(ns, mapping); err != nil {
		s.logger.Error("persisting field mapping failed", "namespace", ns, "pass", passID, "error", err)
		result.Failed++
		keepFirst(&result, err)
	}

	if result.Changed() > 0 {
		if err := s.cli.TriggerReindex(ctx); err != nil {
			// Structural changes stay pending on the domain; the next
			// pass or a manual reindex picks them up.
			s.logger.Error("reindex trigger failed", "namespace", ns, "pass", passID, "error", err)
			keepFirst(&result, err)
		} else {
			result.Reindexed = true
		}
	}

	s.logger.Info("field synchronization finished",
		"namespace", ns, "pass", passID,
		"added", result.Added, "updated", result.Updated,
		"deleted", result.Deleted, "failed", result.Failed,
		"reindexed", result.Reindexed)
	return result, nil
}

// deleteObsolete removes remote fields of this namespace that no
// abstract field (or derived sort field) accounts for. Fields of
// foreign namespaces are never touched.
func (s *Synchronizer) deleteObsolete(ctx context.Context, fields []schema.FieldDescriptor, byDecodedName map[string]RemoteField, result *schema.SyncResult, passID string) {
	wanted := make(map[string]struct{}, len(fields)*2)
	for _, f := range fields {
		wanted[f.Name] = struct{}{}
		wanted[SortFieldName(f.Name)] = struct{}{}
	}

	for decoded, r := range byDecodedName {
		if _, ok := wanted[decoded]; ok {
			continue
		}
		if err := s.cli.RemoveField(ctx, r.Name); err != nil {
			s.logger.Warn("deleting obsolete field failed", "field", r.Name, "pass", passID, "error", err)
			result.Failed++
			keepFirst(result, err)
			continue
		}
		delete(byDecodedName, decoded)
		result.Deleted++
	}
}

// ensureDocTagField guarantees the shared index-membership field
// exists on the domain.
func (s *Synchronizer) ensureDocTagField(ctx context.Context, remote []RemoteField, result *schema.SyncResult, passID string) {
	for _, r := range remote {
		if r.Name == DocTagField {
			return
		}
	}

	spec := IndexFieldSpec{
		Name:    DocTagField,
		Options: LiteralOptions{Search: true, Facet: false, Result: false},
	}
	if err := s.cli.AddOrUpdateField(ctx, spec); err != nil {
		s.logger.Warn("adding document tag field failed", "field", DocTagField, "pass", passID, "error", err)
		result.Failed++
		keepFirst(result, err)
		return
	}
	result.Added++
}

// addOrUpdateChanged pushes definitions for every abstract field that
// differs from its remote counterpart and returns the full mapping for
// persistence.
func (s *Synchronizer) addOrUpdateChanged(ctx context.Context, fields []schema.FieldDescriptor, byDecodedName map[string]RemoteField, result *schema.SyncResult, passID string) schema.IndexMapping {
	mapping := schema.IndexMapping{Fields: make(map[string]schema.MappingRecord, len(fields))}

	for _, f := range fields {
		specs := MapField(f, s.cfg, s.facets)
		mapping.Fields[f.Name] = MappingRecordFor(f, specs)

		reason, changed := fieldChanged(f, specs, byDecodedName)
		if !changed {
			continue
		}

		_, existed := byDecodedName[f.Name]
		failed := false
		for _, spec := range specs {
			if err := s.cli.AddOrUpdateField(ctx, spec); err != nil {
				s.logger.Warn("defining field failed", "field", spec.Name, "pass", passID, "error", err)
				result.Failed++
				keepFirst(result, err)
				failed = true
			}
		}
		if failed {
			continue
		}

		s.logger.Info("field definition pushed", "field", f.Name, "pass", passID, "reason", reason)
		if existed {
			result.Updated++
		} else {
			result.Added++
		}
	}
	return mapping
}

// The change decision is an OR-reduction over independent predicates,
// each naming the constraint it checks.
var changeChecks = []struct {
	name  string
	check func(f schema.FieldDescriptor, specs []IndexFieldSpec, remote map[string]RemoteField) bool
}{
	{"missing-remote", func(f schema.FieldDescriptor, _ []IndexFieldSpec, remote map[string]RemoteField) bool {
		_, ok := remote[f.Name]
		return !ok
	}},
	{"missing-sort-field", func(f schema.FieldDescriptor, specs []IndexFieldSpec, remote map[string]RemoteField) bool {
		if len(specs) < 2 {
			return false
		}
		_, ok := remote[SortFieldName(f.Name)]
		return !ok
	}},
	{"storage-type-differs", func(f schema.FieldDescriptor, specs []IndexFieldSpec, remote map[string]RemoteField) bool {
		r, ok := remote[f.Name]
		return ok && r.Type != string(specs[0].Storage())
	}},
	{"literal-flags-differ", func(f schema.FieldDescriptor, specs []IndexFieldSpec, remote map[string]RemoteField) bool {
		opts, literal := specs[0].Options.(LiteralOptions)
		if !literal {
			return false
		}
		r, ok := remote[f.Name]
		return ok && (r.FacetEnabled != opts.Facet || r.SearchEnabled != opts.Search)
	}},
}

func fieldChanged(f schema.FieldDescriptor, specs []IndexFieldSpec, remote map[string]RemoteField) (string, bool) {
	for _, c := range changeChecks {
		if c.check(f, specs, remote) {
			return c.name, true
		}
	}
	return "", false
}

func keepFirst(result *schema.SyncResult, err error) {
	if result.FirstErr == nil {
		result.FirstErr = fmt.Errorf("sync: %w", err)
	}
}
