package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"betamax-recon/recon"
)

func newClassifyCmd(a *app) *cobra.Command {
	opts := &scanOptions{}
	var (
		pkg     string
		version string
		system  bool
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show the beta verdict for an app or a whole inventory without fetching intel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := a.classifier(opts.prefixes)

			var apps []recon.AppMetadata
			if pkg != "" {
				apps = []recon.AppMetadata{{PackageID: pkg, VersionLabel: version, IsSystemApp: system}}
			} else {
				provider, err := a.provider(opts)
				if err != nil {
					return err
				}
				if apps, err = provider.Inventory(cmd.Context()); err != nil {
					return fmt.Errorf("failed to read inventory: %w", err)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PACKAGE\tVERSION\tSYSTEM\tVERDICT\tRULE")
			for _, app := range apps {
				v := classifier.Explain(app)
				verdict := "FAIL"
				if v.Pass {
					verdict = "PASS"
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", app.PackageID, app.VersionLabel, app.IsSystemApp, verdict, v)
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.inventory, "inventory", "i", "", "inventory file (.json, .yaml)")
	f.BoolVar(&opts.adb, "adb", false, "read the inventory from a device over adb")
	f.StringVar(&opts.serial, "serial", "", "adb device serial (default $ADB_SERIAL)")
	f.StringSliceVar(&opts.prefixes, "prefix", nil, "reserved package prefixes (default $RECON_RESERVED_PREFIXES)")
	f.StringVar(&pkg, "package", "", "classify a single package instead of an inventory")
	f.StringVar(&version, "version", "", "version label for --package")
	f.BoolVar(&system, "system", false, "mark --package as a system app")
	return cmd
}
