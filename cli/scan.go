package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"betamax-recon/intel"
	"betamax-recon/inventory"
	"betamax-recon/recon"
	"betamax-recon/report"
)

type scanOptions struct {
	inventory   string
	adb         bool
	serial      string
	format      string
	out         string
	concurrency int
	summary     bool
	prefixes    []string
}

func newScanCmd(a *app) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan an app inventory for beta builds",
		Long: `Classify every installed app, fetch store intel for the ones that look like
beta builds and print them in inventory order. The inventory comes from a
JSON/YAML export (--inventory) or a device attached over adb (--adb).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.inventory, "inventory", "i", "", "inventory file (.json, .yaml)")
	f.BoolVar(&opts.adb, "adb", false, "read the inventory from a device over adb")
	f.StringVar(&opts.serial, "serial", "", "adb device serial (default $ADB_SERIAL)")
	f.StringVarP(&opts.format, "format", "f", "table", "output format: table, json or csv")
	f.StringVarP(&opts.out, "out", "o", "", "write results to this file instead of stdout")
	f.IntVarP(&opts.concurrency, "concurrency", "c", 0, "parallel intel fetches (default $RECON_CONCURRENCY or 1)")
	f.BoolVar(&opts.summary, "summary", false, "also publish a Markdown summary ($GITHUB_STEP_SUMMARY or stdout)")
	f.StringSliceVar(&opts.prefixes, "prefix", nil, "reserved package prefixes (default $RECON_RESERVED_PREFIXES)")
	return cmd
}

func (a *app) provider(opts *scanOptions) (recon.InventoryProvider, error) {
	switch {
	case opts.adb && opts.inventory != "":
		return nil, fmt.Errorf("--adb and --inventory are mutually exclusive")
	case opts.adb:
		serial := opts.serial
		if serial == "" {
			serial = a.cfg.ADBSerial
		}
		return inventory.NewADBProvider(serial, a.logger), nil
	case opts.inventory != "":
		return inventory.FileProvider{Path: opts.inventory}, nil
	default:
		return nil, fmt.Errorf("an inventory source is required: pass --inventory or --adb")
	}
}

func (a *app) classifier(prefixes []string) *recon.Classifier {
	if len(prefixes) == 0 {
		prefixes = a.cfg.ReservedPrefixes
	}
	return recon.NewClassifier(prefixes...)
}

func (a *app) runScan(cmd *cobra.Command, opts *scanOptions) error {
	switch opts.format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	provider, err := a.provider(opts)
	if err != nil {
		return err
	}

	apps, err := provider.Inventory(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	scanner := recon.NewScanner(a.classifier(opts.prefixes), intel.NewFetcher(a.cfg, a.logger), a.logger)
	scanner.Concurrency = a.cfg.Concurrency
	if opts.concurrency > 0 {
		scanner.Concurrency = opts.concurrency
	}

	var tw *tabwriter.Writer
	if opts.format == "table" {
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "APP\tPACKAGE\tVERSION\tINTEL")
		scanner.OnCandidate = func(c recon.DetectedCandidate) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.DisplayName, c.PackageID, c.VersionLabel, c.IntelSnippet)
		}
	}

	candidates := scanner.ScanInventory(cmd.Context(), apps)

	switch opts.format {
	case "table":
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d signals found\n", len(candidates))
	case "json":
		if err := report.WriteJSON(w, candidates); err != nil {
			return err
		}
	case "csv":
		if err := report.WriteCSV(w, candidates); err != nil {
			return err
		}
	}

	if opts.summary {
		summary := report.Summary{Inventory: len(apps), Candidates: candidates}
		if err := summary.Publish(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to publish summary: %w", err)
		}
	}
	return nil
}
