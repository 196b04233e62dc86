// Package cli wires the recon commands.
package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"betamax-recon/config"
	"betamax-recon/logging"
)

// app carries state shared by every command of one invocation.
type app struct {
	cfg    config.Config
	logger logging.Logger

	storeURL  string
	timeoutMS int
	verbose   bool
}

// NewRootCmd builds the recon command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "recon",
		Short:         "Detect beta builds on a device and pull their store intel",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.storeURL, "store-url", "", "store base URL (default $RECON_STORE_BASE_URL or https://play.google.com)")
	root.PersistentFlags().IntVar(&a.timeoutMS, "timeout", 0, "intel fetch timeout in milliseconds (default $RECON_INTEL_TIMEOUT_MS or 5000)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newScanCmd(a),
		newClassifyCmd(a),
		newIntelCmd(a),
		newTrackCmd(a),
		newProbeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) {
	a.logger = logging.NewLoggerWithOutput(cmd.ErrOrStderr())
	config.LoadEnv(a.logger)
	// level may come from a .env file
	a.logger.SetLevel(config.GetLogLevel())
	if a.verbose {
		a.logger.SetLevel(logrus.DebugLevel)
	}

	a.cfg = config.Load()
	if a.storeURL != "" {
		a.cfg.StoreBaseURL = a.storeURL
	}
	if a.timeoutMS > 0 {
		a.cfg.IntelTimeout = time.Duration(a.timeoutMS) * time.Millisecond
	}
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
