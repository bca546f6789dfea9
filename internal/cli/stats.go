package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-grading-api/internal/grading"
)

func newStatsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics and a histogram for a score file",
		RunE: func(cmd *cobra.Command, args []string) error {
			scores, err := readScores(file)
			if err != nil {
				return err
			}
			printStatistics(cmd.OutOrStdout(), "Scores", grading.ComputeStatistics(scores.Scores))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "score file (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printStatistics(out io.Writer, title string, stats grading.Statistics) {
	fmt.Fprintf(out, "%s (%d)\n", title, stats.Count)
	if stats.Count == 0 {
		fmt.Fprintln(out, "  no scores")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  mean\t%.2f\n", stats.Mean)
	fmt.Fprintf(w, "  median\t%.2f\n", stats.Median)
	fmt.Fprintf(w, "  min\t%.2f\n", stats.Min)
	fmt.Fprintf(w, "  max\t%.2f\n", stats.Max)
	fmt.Fprintf(w, "  std dev\t%.2f\n", stats.StdDev)
	for i, count := range stats.Histogram {
		fmt.Fprintf(w, "  %s\t%d\n", grading.BucketLabel(i), count)
	}
	w.Flush() //nolint:errcheck
}
