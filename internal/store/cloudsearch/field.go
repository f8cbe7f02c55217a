package cloudsearch

// StorageType is the remote service's index-field type.
type StorageType string

const (
	StorageLiteral   StorageType = "literal"
	StorageText      StorageType = "text"
	StorageInt       StorageType = "int"
	StorageUint      StorageType = "uint"
	StorageIntArray  StorageType = "int-array"
	StorageTextArray StorageType = "text-array"
)

// FieldOptions is the option block of an index field. One variant
// exists per storage type so that combinations the service rejects,
// like a search flag on a numeric field, cannot be constructed.
type FieldOptions interface {
	storage() StorageType
}

// LiteralOptions configure an exact-match field.
type LiteralOptions struct {
	Search bool
	Facet  bool
	Result bool
}

// TextOptions configure a full-text field. Text fields are always
// searchable; only faceting and result return are switchable.
type TextOptions struct {
	Facet  bool
	Result bool
}

// IntOptions configure a signed numeric field. Numeric fields are
// always range-searchable and returned in results.
type IntOptions struct{}

// UintOptions configure an unsigned numeric field, used for derived
// sort fields. Faceting is switchable for range facets.
type UintOptions struct {
	Facet bool
}

// TextArrayOptions configure a multi-valued text field.
type TextArrayOptions struct {
	Facet  bool
	Result bool
}

// IntArrayOptions configure a multi-valued numeric field.
type IntArrayOptions struct{}

func (LiteralOptions) storage() StorageType   { return StorageLiteral }
func (TextOptions) storage() StorageType      { return StorageText }
func (IntOptions) storage() StorageType       { return StorageInt }
func (UintOptions) storage() StorageType      { return StorageUint }
func (TextArrayOptions) storage() StorageType { return StorageTextArray }
func (IntArrayOptions) storage() StorageType  { return StorageIntArray }

// IndexFieldSpec is one concrete field definition for the remote
// domain, computed fresh from an abstract descriptor on every
// synchronization pass.
type IndexFieldSpec struct {
	// Name is the encoded, namespaced field name.
	Name string

	// Source, when set, names the encoded field this one copies its
	// value from. Used by derived sort fields.
	Source string

	Options FieldOptions
}

// Storage returns the field's storage type.
func (s IndexFieldSpec) Storage() StorageType {
	return s.Options.storage()
}

// fieldPayload is the wire shape of a field definition on the
// index-administration API. Flags are pointers so that only the option
// block matching the storage type is serialized.
type fieldPayload struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Source        string `json:"source,omitempty"`
	SearchEnabled *bool  `json:"search_enabled,omitempty"`
	FacetEnabled  *bool  `json:"facet_enabled,omitempty"`
	ResultEnabled *bool  `json:"result_enabled,omitempty"`
}

func (s IndexFieldSpec) payload() fieldPayload {
	p := fieldPayload{
		Name:   s.Name,
		Type:   string(s.Storage()),
		Source: s.Source,
	}
	switch opts := s.Options.(type) {
	case LiteralOptions:
		p.SearchEnabled = boolPtr(opts.Search)
		p.FacetEnabled = boolPtr(opts.Facet)
		p.ResultEnabled = boolPtr(opts.Result)
	case TextOptions:
		p.FacetEnabled = boolPtr(opts.Facet)
		p.ResultEnabled = boolPtr(opts.Result)
	case TextArrayOptions:
		p.FacetEnabled = boolPtr(opts.Facet)
		p.ResultEnabled = boolPtr(opts.Result)
	case UintOptions:
		p.FacetEnabled = boolPtr(opts.Facet)
	}
	return p
}

func boolPtr(b bool) *bool { return &b }

// RemoteField is a field definition as reported by the remote domain.
type RemoteField struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Source          string `json:"source"`
	SearchEnabled   bool   `json:"search_enabled"`
	FacetEnabled    bool   `json:"facet_enabled"`
	ResultEnabled   bool   `json:"result_enabled"`
	PendingDeletion bool   `json:"pending_deletion"`
}
