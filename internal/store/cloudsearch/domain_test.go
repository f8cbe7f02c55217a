package cloudsearch_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/incepto/searchbridge/core/schema"
	store "github.com/incepto/searchbridge/internal/store/cloudsearch"
)

// fakeDomain emulates the remote search domain's three endpoints and
// records everything the adapter sends it.
type fakeDomain struct {
	mu sync.Mutex

	fields   []store.RemoteField
	listFail bool

	failDefine map[string]bool
	defined    []map[string]interface{}
	removed    []string
	reindexes  int
	reindexErr bool

	batches    [][]map[string]interface{}
	lastQuery  string
	searchBody string

	server *httptest.Server
}

func newFakeDomain() *fakeDomain {
	d := &fakeDomain{
		failDefine: map[string]bool{},
		searchBody: `{"hits":{"found":0,"hit":[]}}`,
	}
	d.server = httptest.NewServer(http.HandlerFunc(d.handle))
	return d
}

func (d *fakeDomain) Close() {
	d.server.Close()
}

func (d *fakeDomain) Config() store.Config {
	return store.Config{
		ConfigEndpoint:   d.server.URL,
		DocumentEndpoint: d.server.URL,
		SearchEndpoint:   d.server.URL,
		Domain:           "test-domain",
	}
}

func (d *fakeDomain) handle(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/2011-02-01")
	switch {
	case path == "/index-fields" && r.Method == http.MethodGet:
		if d.listFail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"domain unavailable"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"fields": d.fields})

	case path == "/index-fields" && r.Method == http.MethodPost:
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if name, _ := payload["name"].(string); d.failDefine[name] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid field definition"}`))
			return
		}
		d.defined = append(d.defined, payload)

	case strings.HasPrefix(path, "/index-fields/") && r.Method == http.MethodDelete:
		d.removed = append(d.removed, strings.TrimPrefix(path, "/index-fields/"))

	case path == "/index-documents" && r.Method == http.MethodPost:
		if d.reindexErr {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"domain is processing"}`))
			return
		}
		d.reindexes++

	case path == "/domain-status" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"processing":true,"requires_indexing":false}`))

	case path == "/documents/batch" && r.Method == http.MethodPost:
		var items []map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&items)
		d.batches = append(d.batches, items)
		adds, deletes := 0, 0
		for _, item := range items {
			if item["type"] == "add" {
				adds++
			} else {
				deletes++
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success", "adds": adds, "deletes": deletes,
		})

	case path == "/search" && r.Method == http.MethodGet:
		d.lastQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(d.searchBody))

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no such route"}`))
	}
}

func (d *fakeDomain) definedNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.defined))
	for _, payload := range d.defined {
		name, _ := payload["name"].(string)
		names = append(names, name)
	}
	return names
}

// memMappings is an in-memory schema.MappingStore.
type memMappings struct {
	mu    sync.Mutex
	saved map[string]schema.IndexMapping
}

func newMemMappings() *memMappings {
	return &memMappings{saved: map[string]schema.IndexMapping{}}
}

func (m *memMappings) Mapping(namespace string) (schema.IndexMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping, ok := m.saved[namespace]
	if !ok {
		return schema.IndexMapping{Fields: map[string]schema.MappingRecord{}}, nil
	}
	return mapping, nil
}

func (m *memMappings) SaveMapping(namespace string, mapping schema.IndexMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[namespace] = mapping
	return nil
}
