package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/droplab/tidal/schema"
	"github.com/droplab/tidal/tlog"
	"github.com/spf13/cobra"
)

var (
	convertStream string
	convertOutput string
)

// convertCmd writes one scalar stream as CSV: a timestamp column followed by
// one column per field. Vector and matrix streams don't flatten naturally to
// CSV and are better served by export.
var convertCmd = &cobra.Command{
	Use:   "convert [file|s3://bucket/key]",
	Short: "Convert a scalar stream to CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := resolveDataset(cmd.Context(), args[0])
		if err != nil {
			bailf("error reading log: %s", err)
		}
		sig, ok := ds.Streams[convertStream]
		if !ok {
			bailf("no stream %q in %s (have: %v)", convertStream, args[0], ds.Names())
		}
		if sig.Layout.Class != schema.Scalar {
			bailf("stream %q is a %s stream; convert only handles scalar streams",
				convertStream, sig.Layout.Class)
		}
		out := io.Writer(os.Stdout)
		if convertOutput != "" {
			f, err := os.Create(convertOutput)
			if err != nil {
				bailf("error creating output file: %s", err)
			}
			defer f.Close()
			out = f
		}
		if err := writeCSV(out, sig); err != nil {
			bailf("error writing csv: %s", err)
		}
	},
}

func writeCSV(w io.Writer, sig *tlog.Signal) error {
	samples, ok := sig.Samples.(*tlog.ScalarSamples)
	if !ok {
		return fmt.Errorf("stream %q has no scalar samples", sig.Name)
	}
	cw := csv.NewWriter(w)
	header := []string{"time"}
	for _, f := range samples.Fields {
		header = append(header, f.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(header))
	for i, ts := range sig.Timestamps {
		row[0] = strconv.FormatUint(ts, 10)
		for j, v := range samples.Rows[i] {
			row[j+1] = fmt.Sprintf("%v", v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.PersistentFlags().StringVarP(&convertStream, "stream", "s", "", "Stream to convert")
	convertCmd.PersistentFlags().StringVarP(&convertOutput, "output", "o", "", "Output file (default stdout)")

	convertCmd.MarkFlagRequired("stream")
}
