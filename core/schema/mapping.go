package schema

//go:generate mockery --name=MappingStore -r --case underscore --with-expecter --structname MappingStore --filename mapping_store.go --output=./mocks

// MappingRecord describes how one abstract field materialized on the
// remote domain. Records are written by the index synchronizer and read
// by the query compiler, which needs the semantic type for filter-value
// quoting and the sort-field name for rank expressions.
type MappingRecord struct {
	Name        string       `yaml:"name" json:"name"`
	EncodedName string       `yaml:"encoded_name" json:"encoded_name"`
	Storage     string       `yaml:"storage" json:"storage"`
	Type        SemanticType `yaml:"type" json:"type"`
	SortField   string       `yaml:"sort_field,omitempty" json:"sort_field,omitempty"`
}

// IndexMapping is the full field mapping of one index namespace.
type IndexMapping struct {
	Fields map[string]MappingRecord `yaml:"fields" json:"fields"`
}

// Record returns the mapping record for an abstract field name.
func (m IndexMapping) Record(name string) (MappingRecord, bool) {
	r, ok := m.Fields[name]
	return r, ok
}

// MappingStore persists index mappings between synchronization passes.
// A store is single-writer per pass: concurrent passes against the same
// namespace must be serialized by the caller.
type MappingStore interface {
	Mapping(namespace string) (IndexMapping, error)
	SaveMapping(namespace string, mapping IndexMapping) error
}
