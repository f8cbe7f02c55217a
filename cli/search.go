package cli

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/incepto/searchbridge/config"
	"github.com/incepto/searchbridge/core/search"
	"github.com/incepto/searchbridge/internal/store/cloudsearch"
	"github.com/incepto/searchbridge/internal/store/configfile"
)

func searchCommand(cfg config.Config) *cobra.Command {
	var filter, sortBy, facets string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Query the remote domain",
		Args:  cobra.ExactArgs(1),
		Example: heredoc.Doc(`
			$ searchbridge search "red shoes" --limit 10
			$ searchbridge search shoes --filter color:red --facets color,brand
		`),
		Annotations: map[string]string{
			"group:core": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogger(cfg.LogLevel)
			cli, err := initClient(logger, cfg)
			if err != nil {
				return err
			}

			mappings := configfile.NewStore(logger, cfg.MappingPath)
			repo := cloudsearch.NewSearchRepository(logger, cli, cfg.Index(), mappings)

			query := makeQuery(args[0], filter, sortBy, facets, limit, offset)
			result, err := repo.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			fmt.Printf("total: %d\n", result.Total)
			for _, hit := range result.Hits {
				fmt.Printf("%s\t%.4f\n", hit.ID, hit.Score)
			}
			for field, values := range result.Facets {
				fmt.Printf("facet %s:\n", field)
				for _, v := range values {
					fmt.Printf("  %s (%d)\n", v.Value, v.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "--filter=field1:val1,field2:val2 exact-match conditions, and-joined")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "--sort=[-]field, '-' for descending; 'relevance' and 'id' are reserved")
	cmd.Flags().StringVar(&facets, "facets", "", "--facets=field1,field2 fields to facet on")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of hits")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "hit offset")
	return cmd
}

func makeQuery(text, filter, sortBy, facets string, limit, offset int) search.Query {
	query := search.Query{
		Keys: &search.KeyGroup{
			Conjunction: search.And,
			Terms:       []search.Key{search.Keyword(text)},
		},
		Offset: offset,
		Limit:  limit,
	}

	if filter != "" {
		root := search.NewGroup(search.And)
		for _, pair := range strings.Split(filter, ",") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			root.Children = append(root.Children, search.NewCondition(kv[0], search.OpEquals, kv[1]))
		}
		query.Filters = root
	}

	if sortBy != "" {
		descending := strings.HasPrefix(sortBy, "-")
		query.Sorts = []search.Sort{{
			Field:      strings.TrimPrefix(sortBy, "-"),
			Descending: descending,
		}}
	}

	if facets != "" {
		query.Facets = strings.Split(facets, ",")
	}
	return query
}
