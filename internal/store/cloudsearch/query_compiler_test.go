package cloudsearch_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/core/search"
	store "github.com/incepto/searchbridge/internal/store/cloudsearch"
)

func keysOf(values ...string) *search.KeyGroup {
	g := &search.KeyGroup{Conjunction: search.And}
	for _, v := range values {
		g.Terms = append(g.Terms, search.Keyword(v))
	}
	return g
}

func emptyMapping() schema.IndexMapping {
	return schema.IndexMapping{Fields: map[string]schema.MappingRecord{}}
}

func TestCompileQueryKeywords(t *testing.T) {
	t.Run("multi-token run becomes an and-group of two tokens", func(t *testing.T) {
		query := search.Query{
			Keys:   keysOf("red shoes"),
			Sorts:  []search.Sort{{Field: search.SortRelevance, Descending: true}},
			Limit:  10,
			Offset: 0,
		}

		compiled := store.CompileQuery(query, "idx1", emptyMapping())
		assert.Equal(t, "q=red%20shoes&return-fields=text_relevance&rank=-text_relevance&size=10&start=0", compiled)
	})

	t.Run("empty keywords compile to match-all sentinel", func(t *testing.T) {
		compiled := store.CompileQuery(search.Query{}, "idx1", emptyMapping())
		assert.Equal(t, "q=%&return-fields=text_relevance&start=0", compiled)
	})

	t.Run("duplicate tokens are eliminated", func(t *testing.T) {
		compiled := store.CompileQuery(search.Query{Keys: keysOf("shoes red shoes")}, "idx1", emptyMapping())
		assert.Equal(t, "q=shoes%20red&return-fields=text_relevance&start=0", compiled)
	})

	t.Run("punctuation splits tokens", func(t *testing.T) {
		compiled := store.CompileQuery(search.Query{Keys: keysOf("rock-n-roll!")}, "idx1", emptyMapping())
		assert.Equal(t, "q=rock%20n%20roll&return-fields=text_relevance&start=0", compiled)
	})

	t.Run("or-group renders with pipe separator", func(t *testing.T) {
		keys := &search.KeyGroup{
			Conjunction: search.And,
			Terms: []search.Key{
				search.Keyword("shoes"),
				search.SubGroup(&search.KeyGroup{
					Conjunction: search.Or,
					Terms:       []search.Key{search.Keyword("red"), search.Keyword("blue")},
				}),
			},
		}

		compiled := store.CompileQuery(search.Query{Keys: keys}, "idx1", emptyMapping())
		assert.Equal(t, "q=shoes%20red|blue&return-fields=text_relevance&start=0", compiled)
	})

	t.Run("negated group prefixes each term", func(t *testing.T) {
		keys := &search.KeyGroup{
			Conjunction: search.And,
			Terms: []search.Key{
				search.Keyword("shoes"),
				search.SubGroup(&search.KeyGroup{
					Conjunction: search.And,
					Negate:      true,
					Terms:       []search.Key{search.Keyword("sandals")},
				}),
			},
		}

		compiled := store.CompileQuery(search.Query{Keys: keys}, "idx1", emptyMapping())
		assert.Equal(t, "q=shoes%20-sandals&return-fields=text_relevance&start=0", compiled)
	})

	t.Run("nested group matching parent conjunction is flattened", func(t *testing.T) {
		nested := &search.KeyGroup{
			Conjunction: search.And,
			Terms: []search.Key{
				search.Keyword("red"),
				search.SubGroup(keysOf("shoes", "red")),
			},
		}

		compiled := store.CompileQuery(search.Query{Keys: nested}, "idx1", emptyMapping())
		assert.Equal(t, "q=red%20shoes&return-fields=text_relevance&start=0", compiled)
	})
}

func TestCompileQueryFilters(t *testing.T) {
	mapping := schema.IndexMapping{Fields: map[string]schema.MappingRecord{
		"weight": {Name: "weight", EncodedName: "idx1_weight", Storage: "int", Type: schema.TypeInteger},
		"color":  {Name: "color", EncodedName: "idx1_color", Storage: "literal", Type: schema.TypeString},
	}}

	t.Run("string values are single-quoted", func(t *testing.T) {
		query := search.Query{
			Filters: search.NewGroup(search.And, search.NewCondition("color", search.OpEquals, "red")),
		}

		compiled := store.CompileQuery(query, "idx1", mapping)
		assert.Equal(t, "q=%&bq=(and%20idx1_color:'red'%20)%20&return-fields=text_relevance&start=0", compiled)
	})

	t.Run("integer values stay bare", func(t *testing.T) {
		query := search.Query{
			Filters: search.NewGroup(search.And, search.NewCondition("weight", search.OpEquals, "42")),
		}

		compiled := store.CompileQuery(query, "idx1", mapping)
		assert.Contains(t, compiled, "bq=(and%20idx1_weight:42%20)%20")
	})

	t.Run("range values stay bare regardless of type", func(t *testing.T) {
		query := search.Query{
			Filters: search.NewGroup(search.And, search.NewCondition("color", search.OpRange, "1..100")),
		}

		compiled := store.CompileQuery(query, "idx1", mapping)
		assert.Contains(t, compiled, "bq=(and%20idx1_color:1..100%20)%20")
	})

	t.Run("nested or keeps its group boundary", func(t *testing.T) {
		query := search.Query{
			Filters: search.NewGroup(search.And,
				search.NewGroup(search.Or,
					search.NewCondition("color", search.OpEquals, "red"),
					search.NewCondition("color", search.OpEquals, "blue"),
				),
				search.NewCondition("weight", search.OpEquals, "42"),
			),
		}

		compiled := store.CompileQuery(query, "idx1", mapping)
		assert.Contains(t, compiled, "bq=(and%20(or%20idx1_color:'red'%20idx1_color:'blue'%20)%20idx1_weight:42%20)%20")
	})

	t.Run("same-conjunction nesting compiles identically to the flat tree", func(t *testing.T) {
		a := search.NewCondition("color", search.OpEquals, "red")
		b := search.NewCondition("color", search.OpEquals, "blue")
		c := search.NewCondition("weight", search.OpEquals, "42")

		nested := search.Query{Filters: search.NewGroup(search.And, search.NewGroup(search.And, a, b), c)}
		flat := search.Query{Filters: search.NewGroup(search.And, a, b, c)}

		compiledNested := store.CompileQuery(nested, "idx1", mapping)
		compiledFlat := store.CompileQuery(flat, "idx1", mapping)
		if diff := cmp.Diff(compiledFlat, compiledNested); diff != "" {
			t.Errorf("compiled queries differ (-flat +nested):\n%s", diff)
		}
	})

	t.Run("not group is never merged", func(t *testing.T) {
		query := search.Query{
			Filters: search.NewGroup(search.Not,
				search.NewGroup(search.Not, search.NewCondition("color", search.OpEquals, "red")),
			),
		}

		compiled := store.CompileQuery(query, "idx1", mapping)
		assert.Contains(t, compiled, "bq=(not%20(not%20idx1_color:'red'%20)%20)%20")
	})

	t.Run("empty filter tree omits bq", func(t *testing.T) {
		query := search.Query{Filters: search.NewGroup(search.And)}
		compiled := store.CompileQuery(query, "idx1", emptyMapping())
		assert.NotContains(t, compiled, "bq=")
	})
}

func TestCompileQueryFacetsAndSorts(t *testing.T) {
	t.Run("facet names are namespaced and comma-joined", func(t *testing.T) {
		query := search.Query{Facets: []string{"color", "brand"}}
		compiled := store.CompileQuery(query, "idx1", emptyMapping())
		assert.Contains(t, compiled, "facet=idx1_color,idx1_brand")
	})

	t.Run("regular sorts use the derived sort field", func(t *testing.T) {
		query := search.Query{Sorts: []search.Sort{{Field: "title"}}}
		compiled := store.CompileQuery(query, "idx1", emptyMapping())
		assert.Contains(t, compiled, "rank=idx1_sort_title")
	})

	t.Run("reserved id sort descending", func(t *testing.T) {
		query := search.Query{Sorts: []search.Sort{{Field: search.SortID, Descending: true}}}
		compiled := store.CompileQuery(query, "idx1", emptyMapping())
		assert.Contains(t, compiled, "rank=-id")
	})

	t.Run("multiple sorts keep order", func(t *testing.T) {
		query := search.Query{Sorts: []search.Sort{
			{Field: "title"},
			{Field: search.SortRelevance, Descending: true},
		}}
		compiled := store.CompileQuery(query, "idx1", emptyMapping())
		assert.Contains(t, compiled, "rank=idx1_sort_title,-text_relevance")
	})
}

func TestSearchRepositorySearch(t *testing.T) {
	ctx := context.Background()
	cfg := schema.IndexConfig{Name: "idx1"}

	newRepo := func(t *testing.T, domain *fakeDomain) *store.SearchRepository {
		t.Helper()
		cli, err := store.NewClient(log.NewNoop(), domain.Config())
		require.NoError(t, err)
		return store.NewSearchRepository(log.NewNoop(), cli, cfg, newMemMappings())
	}

	t.Run("decodes hits and facets", func(t *testing.T) {
		domain := newFakeDomain()
		defer domain.Close()
		domain.searchBody = `{
			"hits": {
				"found": 2,
				"hit": [
					{"id": "idx1_41", "data": {"text_relevance": ["307"]}},
					{"id": "idx1_42", "data": {"text_relevance": ["288.5"]}}
				]
			},
			"facets": {
				"idx1_color": {"constraints": [
					{"value": "red", "count": 3},
					{"value": "blue", "count": 1}
				]}
			}
		}`

		result, err := newRepo(t, domain).Search(ctx, search.Query{Keys: keysOf("shoes")})
		require.NoError(t, err)

		assert.Equal(t, int64(2), result.Total)
		require.Len(t, result.Hits, 2)
		assert.Equal(t, search.Hit{ID: "41", Score: 307}, result.Hits[0])
		assert.Equal(t, search.Hit{ID: "42", Score: 288.5}, result.Hits[1])

		require.Contains(t, result.Facets, "color")
		assert.Equal(t, []search.FacetValue{
			{Value: "'red'", Count: 3},
			{Value: "'blue'", Count: 1},
		}, result.Facets["color"])
	})

	t.Run("error payload is fatal with first message", func(t *testing.T) {
		domain := newFakeDomain()
		defer domain.Close()
		domain.searchBody = `{"messages":[{"severity":"fatal","message":"invalid rank expression"},{"severity":"fatal","message":"second"}]}`

		_, err := newRepo(t, domain).Search(ctx, search.Query{Keys: keysOf("shoes")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid rank expression")
		assert.NotContains(t, err.Error(), "second")
	})

	t.Run("unparseable response is fatal", func(t *testing.T) {
		domain := newFakeDomain()
		defer domain.Close()
		domain.searchBody = `<html>internal error</html>`

		_, err := newRepo(t, domain).Search(ctx, search.Query{Keys: keysOf("shoes")})
		require.Error(t, err)
	})

	t.Run("submits the compiled query string", func(t *testing.T) {
		domain := newFakeDomain()
		defer domain.Close()

		_, err := newRepo(t, domain).Search(ctx, search.Query{Keys: keysOf("red shoes"), Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, "q=red%20shoes&return-fields=text_relevance&size=5&start=0", domain.lastQuery)
	})
}
