package cli

import (
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/log"
	"github.com/spf13/cobra"

	"github.com/incepto/searchbridge/config"
	"github.com/incepto/searchbridge/internal/store/cloudsearch"
)

// New builds the searchbridge command tree.
func New(cfg config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "searchbridge <command> [flags]",
		Short:         "Search index bridge",
		Long:          "Bridge between an abstract search index and a managed search domain.",
		SilenceErrors: true,
		SilenceUsage:  false,
		Example: heredoc.Doc(`
			$ searchbridge sync --fields fields.yaml
			$ searchbridge search "red shoes" --limit 10
			$ searchbridge push documents.json
			$ searchbridge status
		`),
		Annotations: map[string]string{
			"group:core": "true",
			"help:learn": heredoc.Doc(`
				Use 'searchbridge <command> --help' for info about a command.
			`),
		},
	}

	rootCmd.AddCommand(
		syncCommand(cfg),
		searchCommand(cfg),
		pushCommand(cfg),
		statusCommand(cfg),
		versionCmd(),
	)

	return rootCmd
}

func initLogger(logLevel string) *log.Logrus {
	return log.NewLogrus(
		log.LogrusWithLevel(logLevel),
		log.LogrusWithWriter(os.Stdout),
	)
}

func initClient(logger log.Logger, cfg config.Config) (*cloudsearch.Client, error) {
	return cloudsearch.NewClient(logger, cfg.Client())
}
