package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"betamax-recon/intel"
)

func newIntelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "intel <package-id>",
		Short: "Fetch the store intel snippet for one package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := intel.NewFetcher(a.cfg, a.logger)
			res := fetcher.FetchIntel(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n%s\n", args[0], res.Outcome, res)
			return nil
		},
	}
}
