package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/incepto/searchbridge/config"
)

func statusCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remote domain's processing state",
		Example: heredoc.Doc(`
			$ searchbridge status
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initLogger(cfg.LogLevel)
			cli, err := initClient(logger, cfg)
			if err != nil {
				return err
			}

			status, err := cli.DomainStatus(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("processing: %v\nrequires indexing: %v\n", status.Processing, status.RequiresIndexing)
			return nil
		},
	}
}
