package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go-silversense/intent"
	"go-silversense/processor"

	"github.com/spf13/cobra"
)

var batchFile string

// runBatch classifies CSV rows with fallback guidance only and writes one
// JSON object per line.
func runBatch(ctx context.Context, rules *intent.Rules, r io.Reader, w io.Writer) error {
	rows, err := processor.ReadCSV(r)
	if err != nil {
		return err
	}
	p := processor.New(processor.Deps{Rules: rules})
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, res := range p.RunBatch(ctx, rows) {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify a CSV of text,event,confidence rows",
	Long: `Classify a CSV of text,event,confidence rows with the batch_dataset
source and print one JSON result per line. The first row is a header.

Examples:
  silversense batch --file dataset.csv > results.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchFile == "" {
			return fmt.Errorf("--file is required")
		}
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		rules, err := intent.LoadFile(cfg.IntentRulesPath)
		if err != nil {
			return err
		}

		f, err := os.Open(batchFile)
		if err != nil {
			return fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()

		return runBatch(cmd.Context(), rules, f, os.Stdout)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "CSV file with text,event,confidence rows")
	rootCmd.AddCommand(batchCmd)
}
