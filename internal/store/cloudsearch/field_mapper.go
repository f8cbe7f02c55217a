package cloudsearch

import (
	"github.com/incepto/searchbridge/core/schema"
)

// Derived sort fields are named after the field they copy from.
const sortFieldPrefix = "sort_"

// MapField converts one abstract field descriptor into its concrete
// index-field definition, plus any derived fields the storage
// constraints force. The first returned spec is always the primary.
//
// The remote service cannot facet and sort on the same literal or text
// field, so a field that is both facet-enabled and sortable (or range
// queried) gets an auxiliary copy field carrying the sortable storage.
//
// MapField is pure and safe for concurrent use.
func MapField(f schema.FieldDescriptor, cfg schema.IndexConfig, facets schema.FacetStore) []IndexFieldSpec {
	ns := cfg.Namespace()
	facet := facets.IsFacetField(ns, f.Name)
	sortable := cfg.Sortable(f.Name)
	ranges := cfg.Ranged(f.Name)

	storage := storageFor(f.Type, facet)
	primary := IndexFieldSpec{
		Name:    EncodeName(ns, f.Name),
		Options: primaryOptions(storage, facet),
	}

	specs := []IndexFieldSpec{primary}
	if (sortable || ranges) && facet {
		specs = append(specs, sortAuxiliary(f, cfg, primary, ranges))
	}
	return specs
}

// SortFieldName returns the abstract name of the auxiliary sort field
// derived from a field.
func SortFieldName(field string) string {
	return sortFieldPrefix + field
}

// storageFor maps a semantic type to remote storage. Facet membership
// matters for scalar numerics: faceting requires literal storage, at
// the cost of numeric range queries.
func storageFor(t schema.SemanticType, facet bool) StorageType {
	switch t {
	case schema.TypeString:
		return StorageLiteral
	case schema.TypeText:
		return StorageText
	case schema.TypeTextList:
		return StorageTextArray
	case schema.TypeIntegerList:
		return StorageIntArray
	case schema.TypeDate, schema.TypeBoolean, schema.TypeInteger:
		if facet {
			return StorageLiteral
		}
		return StorageInt
	case schema.TypeDecimal:
		// No native decimal storage; literal loses numeric ordering.
		return StorageLiteral
	}
	return StorageLiteral
}

func primaryOptions(storage StorageType, facet bool) FieldOptions {
	switch storage {
	case StorageLiteral:
		return LiteralOptions{Search: true, Facet: facet, Result: !facet}
	case StorageText:
		return TextOptions{Facet: facet, Result: !facet}
	case StorageTextArray:
		return TextArrayOptions{Facet: facet, Result: !facet}
	case StorageIntArray:
		return IntArrayOptions{}
	default:
		return IntOptions{}
	}
}

func sortAuxiliary(f schema.FieldDescriptor, cfg schema.IndexConfig, primary IndexFieldSpec, ranges bool) IndexFieldSpec {
	aux := IndexFieldSpec{
		Name:   EncodeName(cfg.Namespace(), SortFieldName(f.Name)),
		Source: primary.Name,
	}

	if f.Type.IsNumeric() {
		aux.Options = UintOptions{Facet: ranges}
		return aux
	}

	switch primary.Storage() {
	case StorageText:
		aux.Options = TextOptions{Facet: ranges, Result: true}
	case StorageTextArray:
		aux.Options = TextArrayOptions{Facet: ranges, Result: true}
	default:
		aux.Options = LiteralOptions{Search: false, Facet: ranges, Result: true}
	}
	return aux
}

// MappingRecordFor builds the mapping record the query compiler reads
// later, covering the primary spec and an optional sort auxiliary.
func MappingRecordFor(f schema.FieldDescriptor, specs []IndexFieldSpec) schema.MappingRecord {
	record := schema.MappingRecord{
		Name:        f.Name,
		EncodedName: specs[0].Name,
		Storage:     string(specs[0].Storage()),
		Type:        f.Type,
	}
	if len(specs) > 1 {
		record.SortField = specs[1].Name
	}
	return record
}
