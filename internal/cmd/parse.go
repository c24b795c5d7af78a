package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shadwsndst/dmarc-rua-dashboard/internal/analysis"
	"github.com/shadwsndst/dmarc-rua-dashboard/internal/extract"
	"github.com/shadwsndst/dmarc-rua-dashboard/internal/output"
	"github.com/shadwsndst/dmarc-rua-dashboard/internal/parser"
	"github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"
)

const dateFormat = "2006-01-02"

var (
	digestOut       bool
	jsonOut         bool
	fromDate        string
	toDate          string
	topN            int
	fingerprintFile string
	exportPath      string
	verbose         bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <mailbox.mbox>",
	Short: "Parse a DMARC RUA mailbox and print the scorecard",
	Long: `Parse an mbox export of DMARC aggregate report mail.

Report attachments (.xml, .xml.gz, .zip) are extracted from every message,
parsed, aggregated, and classified against a provider fingerprint table.

Examples:
  ruadash parse reports.mbox
  ruadash parse reports.mbox --digest
  ruadash parse reports.mbox --json
  ruadash parse reports.mbox --from 2026-01-01 --to 2026-01-31
  ruadash parse reports.mbox --export reports.zip
  ruadash parse reports.mbox --fingerprints providers.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&digestOut, "digest", false, "Print the shareable text digest instead of tables")
	parseCmd.Flags().BoolVar(&jsonOut, "json", false, "Output the scorecard as JSON")
	parseCmd.Flags().StringVar(&fromDate, "from", "", "Window start date (YYYY-MM-DD, UTC, inclusive)")
	parseCmd.Flags().StringVar(&toDate, "to", "", "Window end date (YYYY-MM-DD, UTC, inclusive)")
	parseCmd.Flags().IntVar(&topN, "top", 5, "Ranking depth for the top-N tables")
	parseCmd.Flags().StringVar(&fingerprintFile, "fingerprints", "", "YAML file overriding the provider fingerprint table")
	parseCmd.Flags().StringVar(&exportPath, "export", "", "Write the raw report documents behind the result to a zip file")
	parseCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func runParse(_ *cobra.Command, args []string) error {
	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck
	}

	table := analysis.DefaultFingerprints()
	if fingerprintFile != "" {
		var err error
		table, err = analysis.LoadFingerprints(fingerprintFile)
		if err != nil {
			return err
		}
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close() //nolint:errcheck

	// Scratch storage for the extracted documents; gone when the run ends,
	// even on failure.
	dir, err := os.MkdirTemp("", "ruadash-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	records, extracted, err := collectRecords(f, dir, logger)
	if err != nil {
		return err
	}
	logger.Debug("extraction finished",
		zap.Int("documents", len(extracted.Files)),
		zap.Int("skipped_attachments", extracted.Skipped),
		zap.Int("records", len(records)))

	if len(records) == 0 {
		fmt.Println("No DMARC records were found in the mailbox.")
		return nil
	}

	from, to, err := resolveWindow(records)
	if err != nil {
		return err
	}
	records = analysis.FilterWindow(records, from, to)
	if len(records) == 0 {
		fmt.Println("No DMARC records fall inside the selected date window.")
		return nil
	}

	if exportPath != "" {
		if err := exportDocuments(records, exportPath); err != nil {
			return err
		}
	}

	sc := analysis.BuildScorecard(records, analysis.NewClassifier(table), topN)

	switch {
	case jsonOut:
		jsonStr, err := output.ToJSON(sc)
		if err != nil {
			return fmt.Errorf("generating JSON: %w", err)
		}
		fmt.Println(jsonStr)
	case digestOut:
		fmt.Print(output.Digest(sc))
	default:
		fmt.Print(output.TableOutput(sc))
	}
	return nil
}

// collectRecords runs extraction and parsing over one mailbox stream.
// Unparseable documents are skipped; the run never fails on bad input data.
func collectRecords(r io.Reader, dir string, logger *zap.Logger) ([]types.Record, *extract.Result, error) {
	res, err := extract.New(logger).Extract(r, dir)
	if err != nil {
		return nil, res, fmt.Errorf("extracting mailbox: %w", err)
	}

	var records []types.Record
	for _, path := range res.Files {
		recs, err := parser.ParseReportFile(path)
		if err != nil {
			logger.Debug("skipping unparseable document",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		records = append(records, recs...)
	}
	return records, res, nil
}

// resolveWindow combines the --from/--to flags with the default window (the
// widest range covering every document).
func resolveWindow(records []types.Record) (time.Time, time.Time, error) {
	window := analysis.DefaultWindow(records)
	from, to := window.Begin, window.End

	if fromDate != "" {
		t, err := time.ParseInLocation(dateFormat, fromDate, time.UTC)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date %q: %w", fromDate, err)
		}
		from = t
	}
	if toDate != "" {
		t, err := time.ParseInLocation(dateFormat, toDate, time.UTC)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date %q: %w", toDate, err)
		}
		// Inclusive calendar date: cover the whole day.
		to = t.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}

func exportDocuments(records []types.Record, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := extract.WriteArchive(analysis.DocumentPaths(records), f); err != nil {
		return fmt.Errorf("writing export archive: %w", err)
	}
	return nil
}
