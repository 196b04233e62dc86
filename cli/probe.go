package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"betamax-recon/probe"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		headful bool
		settle  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe <package-id>",
		Short: "Render a store listing in Chrome and look for testing-program indicators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := probe.New(a.cfg, a.logger)
			p.Headless = !headful
			if settle > 0 {
				p.Settle = settle
			}

			rep, err := p.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !rep.Enrolled() {
				fmt.Fprintf(out, "[NEGATIVE] No beta indicators found on %s\n", rep.URL)
				return nil
			}
			for _, s := range rep.Signals {
				fmt.Fprintf(out, "[SUCCESS] Detected signal: %q\n", s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	cmd.Flags().DurationVar(&settle, "settle", 0, "time to let the page render (default 3s)")
	return cmd
}
