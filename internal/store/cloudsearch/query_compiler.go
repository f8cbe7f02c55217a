package cloudsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/goto/salt/log"

	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/core/search"
)

const (
	// relevanceField is the service's built-in rank expression; it is
	// the only return field ever requested since the abstraction needs
	// identifiers and ranking, never stored values.
	relevanceField = "text_relevance"

	// matchAll is the sentinel keyword expression for an empty query.
	matchAll = "%"
)

// SearchRepository implements search.Repository against the remote
// domain, using the mapping records written by the synchronizer.
type SearchRepository struct {
	cli      *Client
	cfg      schema.IndexConfig
	mappings schema.MappingStore
	logger   log.Logger
}

func NewSearchRepository(logger log.Logger, cli *Client, cfg schema.IndexConfig, mappings schema.MappingStore) *SearchRepository {
	return &SearchRepository{
		cli:      cli,
		cfg:      cfg,
		mappings: mappings,
		logger:   logger,
	}
}

// Search compiles the abstract query into the service's query-string
// dialect, submits it and decodes the raw response. Any transport
// failure or error payload is fatal for the call; there are no partial
// results.
func (r *SearchRepository) Search(ctx context.Context, query search.Query) (search.Result, error) {
	ns := r.cfg.Namespace()

	mapping, err := r.mappings.Mapping(ns)
	if err != nil {
		return search.Result{}, search.AdapterError{Op: "Search", Index: ns, Err: fmt.Errorf("load mapping: %w", err)}
	}

	queryString := CompileQuery(query, ns, mapping)
	r.logger.Debug("compiled search query", "namespace", ns, "query", queryString)

	raw, err := r.cli.SubmitQuery(ctx, queryString)
	if err != nil {
		return search.Result{}, search.AdapterError{Op: "Search", Index: ns, Err: err}
	}

	result, err := decodeResult(raw, ns)
	if err != nil {
		return search.Result{}, search.AdapterError{Op: "Search", Index: ns, Err: err}
	}
	return result, nil
}

// CompileQuery renders an abstract query in the service's dialect.
// Parameter order is fixed: q, bq, return-fields, facet, rank, size,
// start. Spaces in the assembled string are percent-encoded; nothing
// else is escaped.
func CompileQuery(query search.Query, namespace string, mapping schema.IndexMapping) string {
	params := []string{"q=" + compileKeys(query.Keys)}

	if filters := query.Filters.Normalize(); !filters.Empty() {
		params = append(params, "bq="+compileFilterExpression(filters, namespace, mapping))
	}

	params = append(params, "return-fields="+relevanceField)

	if len(query.Facets) > 0 {
		encoded := make([]string, 0, len(query.Facets))
		for _, f := range query.Facets {
			if f == "" {
				continue
			}
			encoded = append(encoded, EncodeName(namespace, f))
		}
		if len(encoded) > 0 {
			params = append(params, "facet="+strings.Join(encoded, ","))
		}
	}

	if len(query.Sorts) > 0 {
		params = append(params, "rank="+compileSorts(query.Sorts, namespace))
	}

	if query.Limit > 0 {
		params = append(params, "size="+strconv.Itoa(query.Limit))
	}
	params = append(params, "start="+strconv.Itoa(query.Offset))

	return strings.ReplaceAll(strings.Join(params, "&"), " ", "%20")
}

// compileKeys normalizes and renders the keyword structure. Scalars
// are tokenized on non-letter/non-digit runs with duplicates dropped;
// multi-token runs become an implicit and-group. In the rendered
// dialect, space joins and-terms, '|' joins or-terms and a leading '-'
// negates each term of a negated group.
func compileKeys(keys *search.KeyGroup) string {
	rendered := renderKeys(normalizeKeys(keys))
	if rendered == "" {
		return matchAll
	}
	return rendered
}

func normalizeKeys(g *search.KeyGroup) *search.KeyGroup {
	if g == nil {
		return nil
	}

	out := &search.KeyGroup{Conjunction: g.Conjunction, Negate: g.Negate}
	seen := map[string]struct{}{}

	appendScalar := func(token string) {
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		out.Terms = append(out.Terms, search.Keyword(token))
	}
	appendGroup := func(sub *search.KeyGroup) {
		if sub == nil || len(sub.Terms) == 0 {
			return
		}
		if sub.Conjunction == out.Conjunction && sub.Negate == out.Negate {
			for _, t := range sub.Terms {
				if t.Group != nil {
					out.Terms = append(out.Terms, t)
					continue
				}
				appendScalar(t.Value)
			}
			return
		}
		out.Terms = append(out.Terms, search.SubGroup(sub))
	}

	for _, term := range g.Terms {
		if term.Group != nil {
			appendGroup(normalizeKeys(term.Group))
			continue
		}

		tokens := tokenize(term.Value)
		switch len(tokens) {
		case 0:
		case 1:
			appendScalar(tokens[0])
		default:
			run := &search.KeyGroup{Conjunction: search.And}
			for _, t := range tokens {
				run.Terms = append(run.Terms, search.Keyword(t))
			}
			appendGroup(run)
		}
	}
	return out
}

func renderKeys(g *search.KeyGroup) string {
	if g == nil {
		return ""
	}

	parts := make([]string, 0, len(g.Terms))
	for _, term := range g.Terms {
		p := term.Value
		if term.Group != nil {
			p = renderKeys(term.Group)
		}
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	if g.Negate {
		for i := range parts {
			parts[i] = "-" + parts[i]
		}
	}

	separator := " "
	if g.Conjunction == search.Or {
		separator = "|"
	}
	return strings.Join(parts, separator)
}

func tokenize(s string) []string {
	raw := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(raw))
	tokens := raw[:0]
	for _, t := range raw {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	return tokens
}

// compileFilterExpression renders a filter tree depth-first as a
// parenthesized prefix expression. Every condition and every closed
// group carries one trailing space; the caller normalizes the tree
// beforehand so equal-conjunction nesting is already merged.
func compileFilterExpression(n *search.FilterNode, namespace string, mapping schema.IndexMapping) string {
	if n.IsCondition() {
		return EncodeName(namespace, n.Field) + ":" + filterValue(n, mapping) + " "
	}

	children := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, compileFilterExpression(child, namespace, mapping))
	}
	return "(" + string(n.Conjunction) + " " + strings.Join(children, "") + ") "
}

// filterValue quotes a condition value: integers and range bounds stay
// bare, everything else is single-quoted.
func filterValue(n *search.FilterNode, mapping schema.IndexMapping) string {
	if n.Operator == search.OpRange {
		return n.Value
	}
	if record, ok := mapping.Record(n.Field); ok && record.Type == schema.TypeInteger {
		return n.Value
	}
	return "'" + n.Value + "'"
}

// compileSorts renders the rank expression. Regular fields sort on
// their derived sort field; relevance and document identity are
// reserved keys with fixed names. A leading '-' marks descending
// order.
func compileSorts(sorts []search.Sort, namespace string) string {
	entries := make([]string, 0, len(sorts))
	for _, s := range sorts {
		var field string
		switch s.Field {
		case search.SortRelevance:
			field = relevanceField
		case search.SortID:
			field = "id"
		default:
			field = EncodeName(namespace, SortFieldName(s.Field))
		}
		if s.Descending {
			field = "-" + field
		}
		entries = append(entries, field)
	}
	return strings.Join(entries, ",")
}

type queryResponse struct {
	Messages []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"messages"`
	Hits *struct {
		Found int64 `json:"found"`
		Hit   []struct {
			ID   string              `json:"id"`
			Data map[string][]string `json:"data"`
		} `json:"hit"`
	} `json:"hits"`
	Facets map[string]struct {
		Constraints []struct {
			Value string `json:"value"`
			Count int    `json:"count"`
		} `json:"constraints"`
	} `json:"facets"`
}

// decodeResult maps a raw response back into the abstract result
// shape: document ids lose their namespace prefix, scores come from
// the relevance field and facet names are decoded to abstract names.
func decodeResult(raw []byte, namespace string) (search.Result, error) {
	if len(raw) == 0 {
		return search.Result{}, search.ErrEmptyResponse
	}

	var response queryResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return search.Result{}, fmt.Errorf("decode search response: %w", err)
	}

	for _, m := range response.Messages {
		if m.Severity == "fatal" || m.Severity == "error" {
			return search.Result{}, errors.New(m.Message)
		}
	}
	if response.Hits == nil {
		return search.Result{}, search.ErrEmptyResponse
	}

	result := search.Result{Total: response.Hits.Found}
	for _, hit := range response.Hits.Hit {
		h := search.Hit{ID: DecodeName(namespace, hit.ID)}
		if rel, ok := hit.Data[relevanceField]; ok && len(rel) > 0 {
			h.Score, _ = strconv.ParseFloat(rel[0], 64)
		}
		result.Hits = append(result.Hits, h)
	}

	if len(response.Facets) > 0 {
		result.Facets = make(map[string][]search.FacetValue, len(response.Facets))
		for name, facet := range response.Facets {
			values := make([]search.FacetValue, 0, len(facet.Constraints))
			for _, c := range facet.Constraints {
				// Values are re-quoted as filter literals so callers
				// can hand them straight back as filter conditions.
				values = append(values, search.FacetValue{
					Value: "'" + c.Value + "'",
					Count: c.Count,
				})
			}
			result.Facets[DecodeName(namespace, name)] = values
		}
	}
	return result, nil
}
