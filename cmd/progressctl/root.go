package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-literacy/internal/progress"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "progressctl",
		Short: "Inspect an exported activity log offline",
		Long: "progressctl runs the progress aggregation and badge rules over an activity log\n" +
			"exported as a JSON array of records, without a server or database.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("file", "f", "-", "Activity log JSON file (- for stdin)")
	root.PersistentFlags().StringP("output", "o", "text", "Output format: text or json")

	root.AddCommand(newStatsCmd())
	root.AddCommand(newGradesCmd())
	root.AddCommand(newRecentCmd())
	root.AddCommand(newBadgesCmd())
	root.AddCommand(newExportCmd())
	return root
}

// loadRecords reads the --file flag. Records of unknown types are kept;
// aggregation skips them.
func loadRecords(cmd *cobra.Command) ([]progress.Record, error) {
	path, _ := cmd.Flags().GetString("file")

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open activity log: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []progress.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode activity log: %w", err)
	}
	return records, nil
}

func outputJSON(cmd *cobra.Command) (bool, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		return true, nil
	case "text":
		return false, nil
	default:
		return false, fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
