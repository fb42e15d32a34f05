package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/droplab/tidal/schema"
	"github.com/droplab/tidal/tlog"
	"github.com/droplab/tidal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	infoFilter string
)

var infoCmd = &cobra.Command{
	Use:   "info [file|s3://bucket/key]",
	Short: "Summarize the streams in a tidal log",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := resolveDataset(cmd.Context(), args[0])
		if err != nil {
			bailf("error reading log: %s", err)
		}
		signals, err := selectSignals(ds, infoFilter, nil)
		if err != nil {
			bailf("error filtering streams: %s", err)
		}
		printSummary(signals)
	},
}

func printSummary(signals []*tlog.Signal) {
	header := color.New(color.Bold)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header.Fprintln(w, "ID\tNAME\tCLASS\tTYPE\tSHAPE\tLABELS\tSAMPLES\tRATE")
	for _, sig := range signals {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			sig.ID,
			sig.Name,
			sig.Layout.Class,
			elemSummary(sig),
			shapeSummary(sig),
			strings.Join(sig.Labels, ","),
			sig.Len(),
			rateSummary(sig),
		)
	}
	w.Flush()
}

func elemSummary(sig *tlog.Signal) string {
	if sig.Layout.Class != schema.Scalar {
		return sig.Layout.Elem.String()
	}
	names := make([]string, len(sig.Layout.Fields))
	for i, f := range sig.Layout.Fields {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}

func shapeSummary(sig *tlog.Signal) string {
	switch {
	case sig.Layout.Rows > 0:
		return fmt.Sprintf("%dx%d", sig.Layout.Rows, sig.Layout.Cols)
	case sig.Layout.Length > 0:
		return strconv.Itoa(sig.Layout.Length)
	default:
		return strconv.Itoa(len(sig.Layout.Fields))
	}
}

// rateSummary estimates the sample rate, treating timestamps as nanoseconds.
func rateSummary(sig *tlog.Signal) string {
	n := sig.Len()
	if n < 2 {
		return "-"
	}
	first := util.ParseNanos(sig.Timestamps[0])
	last := util.ParseNanos(sig.Timestamps[n-1])
	elapsed := last.Sub(first).Seconds()
	if elapsed <= 0 {
		return "-"
	}
	return util.HumanFrequency(float64(n-1) / elapsed)
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.PersistentFlags().StringVarP(&infoFilter, "filter", "f", "", "Stream filter expression")
}
