package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/droplab/tidal/tlog"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	exportFilter  string
	exportStreams []string
	exportOutput  string
)

// exportCmd writes decoded samples as newline-delimited JSON, one object per
// sample, in per-stream file order.
var exportCmd = &cobra.Command{
	Use:   "export [file|s3://bucket/key]",
	Short: "Export decoded samples as newline-delimited JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := resolveDataset(cmd.Context(), args[0])
		if err != nil {
			bailf("error reading log: %s", err)
		}
		signals, err := selectSignals(ds, exportFilter, exportStreams)
		if err != nil {
			bailf("error filtering streams: %s", err)
		}
		out := io.Writer(os.Stdout)
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				bailf("error creating output file: %s", err)
			}
			defer f.Close()
			out = f
		}
		if err := writeJSON(out, signals); err != nil {
			bailf("error writing export: %s", err)
		}
	},
}

type exportRecord struct {
	Stream string `json:"stream"`
	Time   uint64 `json:"time"`
	Values any    `json:"values"`
}

func writeJSON(w io.Writer, signals []*tlog.Signal) error {
	bw := bufio.NewWriter(w)
	encoder := json.NewEncoder(bw)
	for _, sig := range signals {
		for i, ts := range sig.Timestamps {
			record := exportRecord{Stream: sig.Name, Time: ts, Values: sig.Sample(i)}
			if err := encoder.Encode(record); err != nil {
				return fmt.Errorf("failed to encode sample: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.PersistentFlags().StringVarP(&exportFilter, "filter", "f", "", "Stream filter expression")
	exportCmd.PersistentFlags().StringArrayVarP(&exportStreams, "streams", "s", []string{}, "Streams to export")
	exportCmd.PersistentFlags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
