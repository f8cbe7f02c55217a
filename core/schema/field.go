package schema

// SemanticType is the abstract type of a field as declared by the host
// application, before any backend-specific storage mapping is applied.
type SemanticType string

const (
	TypeString      SemanticType = "string"
	TypeText        SemanticType = "text"
	TypeDate        SemanticType = "date"
	TypeBoolean     SemanticType = "boolean"
	TypeInteger     SemanticType = "integer"
	TypeDecimal     SemanticType = "decimal"
	TypeTextList    SemanticType = "list<text>"
	TypeIntegerList SemanticType = "list<integer>"
)

// IsNumeric reports whether values of this type order numerically.
// Dates count: they are indexed as epoch integers.
func (t SemanticType) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeDecimal, TypeDate:
		return true
	}
	return false
}

// FieldDescriptor is one abstract field of an index, immutable for the
// duration of a synchronization pass.
type FieldDescriptor struct {
	Name string
	Type SemanticType
}

// IndexConfig carries the per-index settings that drive field mapping
// and name encoding.
type IndexConfig struct {
	// Name is the index machine name. It prefixes every field and
	// document identifier that crosses the remote-service boundary.
	Name string

	// Site is an optional site identifier, set when multiple sites
	// share one remote search domain. It is prepended ahead of Name.
	Site string

	// SortFields lists abstract field names the host wants sortable.
	SortFields []string

	// RangeFields lists abstract field names the host wants range
	// queries on.
	RangeFields []string

	// ExcludedKinds lists document kinds that must never be pushed to
	// the remote domain.
	ExcludedKinds []string
}

// Namespace returns the prefix applied to every encoded field and
// document name belonging to this index.
func (c IndexConfig) Namespace() string {
	if c.Site != "" {
		return c.Site + "_" + c.Name
	}
	return c.Name
}

func (c IndexConfig) Sortable(field string) bool {
	return containsString(c.SortFields, field)
}

func (c IndexConfig) Ranged(field string) bool {
	return containsString(c.RangeFields, field)
}

func (c IndexConfig) Excluded(kind string) bool {
	return containsString(c.ExcludedKinds, kind)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
