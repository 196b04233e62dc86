package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"betamax-recon/track"
)

func newTrackCmd(a *app) *cobra.Command {
	var issuesURL string
	cmd := &cobra.Command{
		Use:   "track <store-url>",
		Short: "Turn a Google Play or TestFlight link into a community beta signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := track.ParseStoreURL(args[0])
			if err != nil {
				return err
			}
			sig.IssuesURL = issuesURL

			if issuesURL != "" {
				tracker := track.NewIssueTracker(a.cfg.GitHubToken, a.logger)
				tracker.Enrich(cmd.Context(), &sig)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(sig); err != nil {
				return fmt.Errorf("failed to encode signal: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&issuesURL, "issues", "", "external issue tracker URL (GitHub issues)")
	return cmd
}
