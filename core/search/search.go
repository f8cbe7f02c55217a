package search

import "context"

//go:generate mockery --name=Repository -r --case underscore --with-expecter --structname Repository --filename repository.go --output=./mocks

// Repository executes abstract queries against a remote search backend.
type Repository interface {
	Search(ctx context.Context, query Query) (Result, error)
}

// Reserved sort keys. Relevance and document identity are not regular
// index fields and compile to backend-defined rank expressions.
const (
	SortRelevance = "relevance"
	SortID        = "id"
)

// Sort orders results by one field.
type Sort struct {
	Field      string
	Descending bool
}

// Query is an abstract search request. It is owned by the caller for
// the duration of one Search call; implementations hold only a
// transient reference and never mutate it.
type Query struct {
	// Keys is the keyword structure to match against searchable
	// fields. Nil means match-all.
	Keys *KeyGroup

	// Filters is the root of the boolean filter tree. Nil or empty
	// means unfiltered.
	Filters *FilterNode

	// Sorts are applied in order.
	Sorts []Sort

	// Facets lists abstract field names to build facets for.
	Facets []string

	Offset int
	Limit  int
}

// KeyGroup is a boolean group of keyword terms.
type KeyGroup struct {
	Conjunction Conjunction
	Negate      bool
	Terms       []Key
}

// Key is either a scalar keyword or a nested group, never both.
type Key struct {
	Value string
	Group *KeyGroup
}

// Keyword builds a scalar key term.
func Keyword(value string) Key {
	return Key{Value: value}
}

// SubGroup builds a nested key term.
func SubGroup(g *KeyGroup) Key {
	return Key{Group: g}
}

// Hit is one search result entry. The backend returns identifiers and
// relevance only; stored field values are never fetched.
type Hit struct {
	ID    string
	Score float64
}

// FacetValue is one facet constraint with its document count.
type FacetValue struct {
	Value string
	Count int
}

// Result is the decoded outcome of one query. Constructed fresh per
// call and never mutated after return.
type Result struct {
	Total  int64
	Hits   []Hit
	Facets map[string][]FacetValue
}
