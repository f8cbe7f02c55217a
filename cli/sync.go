package cli

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/incepto/searchbridge/config"
	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/internal/store/cloudsearch"
	"github.com/incepto/searchbridge/internal/store/configfile"
)

func syncCommand(cfg config.Config) *cobra.Command {
	var fieldsPath string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize index fields with the remote domain",
		Example: heredoc.Doc(`
			$ searchbridge sync --fields fields.yaml
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

			fields, err := loadFields(fieldsPath)
			if err != nil {
				return err
			}

			mappings := configfile.NewStore(logger, cfg.MappingPath)
			sync, err := cloudsearch.NewSynchronizer(logger, cli, cfg.Index(), cfg.Facets(), mappings)
			if err != nil {
				return err
			}

			result, err := sync.Sync(cmd.Context(), fields)
			if err != nil {
				return err
			}

			fmt.Printf("added: %d, updated: %d, deleted: %d, failed: %d, reindexed: %v\n",
				result.Added, result.Updated, result.Deleted, result.Failed, result.Reindexed)
			if result.FirstErr != nil {
				fmt.Printf("first failure: %v\n", result.FirstErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&fieldsPath, "fields", "f", "fields.yaml", "YAML file listing abstract fields (name, type)")
	return cmd
}

func loadFields(path string) ([]schema.FieldDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields file: %w", err)
	}

	var parsed []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse fields file: %w", err)
	}

	fields := make([]schema.FieldDescriptor, 0, len(parsed))
	for _, p := range parsed {
		if p.Name == "" {
			return nil, schema.ErrEmptyFieldName
		}
		fields = append(fields, schema.FieldDescriptor{
			Name: p.Name,
			Type: schema.SemanticType(p.Type),
		})
	}
	return fields, nil
}
