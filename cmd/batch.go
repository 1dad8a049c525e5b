package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-verify/internal/batch"
)

var (
	batchManifest    string
	batchOutput      string
	batchFormat      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Verify every parcel listed in a manifest",
	Long: `Reads a manifest (.csv or .xlsx) of administrative,survey document path
pairs, verifies them concurrently, and writes a report.

Examples:
  parcel-verify batch --manifest parcels.csv
  parcel-verify batch --manifest parcels.csv --format xlsx --output report.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format, err := batch.CheckFormat(batchFormat)
		if err != nil {
			return err
		}
		if format == batch.FormatXLSX && batchOutput == "" {
			return eris.New("batch: xlsx reports require --output")
		}

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrent = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		items, err := batch.ReadManifest(batchManifest)
		if err != nil {
			return err
		}

		report, err := batch.Run(ctx, items, cfg.Verification.ToParcel(), cfg.Batch.MaxConcurrent)
		if err != nil {
			return err
		}

		return writeBatchReport(cmd.OutOrStdout(), batchOutput, format, report)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "manifest file (.csv or .xlsx)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "report file (default stdout)")
	batchCmd.Flags().StringVar(&batchFormat, "format", batch.FormatCSV, "report format: csv, json or xlsx")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max parcels in flight (default from config)")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}

func writeBatchReport(stdout io.Writer, output, format string, report *batch.Report) error {
	if output == "" {
		return batch.WriteReport(stdout, format, report)
	}

	f, err := os.Create(output)
	if err != nil {
		return eris.Wrapf(err, "batch: create %s", output)
	}
	if err := batch.WriteReport(f, format, report); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "batch: close report")
}
