package schema

//go:generate mockery --name=FacetStore -r --case underscore --with-expecter --structname FacetStore --filename facet_store.go --output=./mocks

// FacetStore answers whether a field participates in faceting. Facet
// membership is owned by the host application's facet configuration,
// not by the index definition itself.
type FacetStore interface {
	IsFacetField(namespace, field string) bool
}

// FacetList is a static FacetStore backed by a plain list of field
// names, shared across namespaces. Suitable for configuration-driven
// setups and tests.
type FacetList []string

func (l FacetList) IsFacetField(_, field string) bool {
	return containsString(l, field)
}
