package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/incepto/searchbridge/config"
	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/internal/store/cloudsearch"
)

func pushCommand(cfg config.Config) *cobra.Command {
	var deleteIDs []string
	cmd := &cobra.Command{
		Use:   "push [documents.json]",
		Short: "Push or delete documents on the remote domain",
		Args:  cobra.MaximumNArgs(1),
		Example: heredoc.Doc(`
			$ searchbridge push documents.json
			$ searchbridge push --delete 1 --delete 2
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
			repo := cloudsearch.NewDocumentRepository(logger, cli, cfg.Index())

			if len(deleteIDs) > 0 {
				sent, err := repo.Delete(cmd.Context(), deleteIDs)
				if err != nil {
					return err
				}
				fmt.Printf("deleted: %d\n", sent)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("either a documents file or --delete ids are required")
			}
			docs, err := loadDocuments(args[0])
			if err != nil {
				return err
			}

			sent, err := repo.Push(cmd.Context(), docs)
			if err != nil {
				return err
			}
			fmt.Printf("pushed: %d of %d\n", sent, len(docs))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&deleteIDs, "delete", "d", nil, "document id to delete, repeatable")
	return cmd
}

func loadDocuments(path string) ([]schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents file: %w", err)
	}

	var parsed []struct {
		ID     string                 `json:"id"`
		Kind   string                 `json:"kind"`
		Fields map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse documents file: %w", err)
	}

	docs := make([]schema.Document, 0, len(parsed))
	for _, p := range parsed {
		docs = append(docs, schema.Document{
			ID:     p.ID,
			Kind:   p.Kind,
			Fields: p.Fields,
		})
	}
	return docs, nil
}
