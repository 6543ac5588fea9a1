package command

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/convoportal/internal/utils"
)

// Execute runs the convoportal CLI until ctx is cancelled or the command returns.
func Execute(ctx context.Context) error {
	return newRoot().ExecuteContext(ctx)
}

func newRoot() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "convoportal",
		Short:        "ConvoAI subscription portal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default portal.yaml in the project root, or $PORTAL_CONFIG)")

	path := func() string {
		if configPath != "" {
			return configPath
		}
		return utils.DefaultConfigPath()
	}
	root.AddCommand(
		Server{}.Command(path),
		sealCmd(path),
		keygenCmd(),
	)
	return root
}
