package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-literacy/internal/audit"
	"github.com/p-n-ai/pai-literacy/internal/badge"
	"github.com/p-n-ai/pai-literacy/internal/progress"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := outputJSON(cmd)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd)
			if err != nil {
				return err
			}

			s := progress.Aggregate(records)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tTOTAL\tCOMPLETED\tIN PROGRESS\tAVG SCORE")
			fmt.Fprintf(tw, "lessons\t%d\t%d\t%d\t-\n", s.Lessons.Total, s.Lessons.Completed, s.Lessons.InProgress)
			fmt.Fprintf(tw, "quizzes\t%d\t%d\t-\t%.1f\n", s.Quizzes.Total, s.Quizzes.Completed, s.Quizzes.AverageScore)
			fmt.Fprintf(tw, "missions\t%d\t%d\t%d\t-\n", s.Missions.Total, s.Missions.Completed, s.Missions.InProgress)
			fmt.Fprintf(tw, "problems\t%d\t%d\t-\t%.1f\n", s.Problems.Total, s.Problems.Completed, s.Problems.AverageScore)
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d completed (%d%%), %ds spent\n",
				s.Overall.CompletedActivities, s.Overall.TotalActivities,
				s.Overall.CompletionRate, s.Overall.TotalTimeSpent)
			return err
		},
	}
}

func newGradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grades",
		Short: "Show per-grade progress for grades 6-10",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := outputJSON(cmd)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd)
			if err != nil {
				return err
			}

			rows := progress.GradeBreakdown(records)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GRADE\tTOTAL\tCOMPLETED\tPERCENT\tQUIZ AVG")
			for _, g := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d%%\t%d\n", g.Grade, g.Total, g.Completed, g.Percentage, g.Types.Quizzes.AverageScore)
			}
			return tw.Flush()
		},
	}
}

func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently updated activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := outputJSON(cmd)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("limit")
			records, err := loadRecords(cmd)
			if err != nil {
				return err
			}

			recent := progress.Recent(records, n)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recent)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UPDATED\tTYPE\tACTIVITY\tSTATUS\tSCORE")
			for _, r := range recent {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\n",
					r.UpdatedAt.Format("2006-01-02 15:04"), r.ActivityType, r.ActivityID, r.Status, r.Score, r.MaxScore)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntP("limit", "n", progress.RecentLimit, "Number of activities to show")
	return cmd
}

func newBadgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "List the badges the log currently qualifies for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := outputJSON(cmd)
			if err != nil {
				return err
			}
			records, err := loadRecords(cmd)
			if err != nil {
				return err
			}

			eligible := badge.Eligible(progress.Aggregate(records))
			if asJSON {
				if eligible == nil {
					eligible = []badge.Definition{}
				}
				return writeJSON(cmd.OutOrStdout(), eligible)
			}
			if len(eligible) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No badges yet.")
				return err
			}
			for _, d := range eligible {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", d.Icon, d.Name, d.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the activity log to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return errors.New("--out is required")
			}
			records, err := loadRecords(cmd)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create workbook: %w", err)
			}
			if err := audit.ExportWorkbook(f, nil, nil, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close workbook: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), out)
			return err
		},
	}
	cmd.Flags().String("out", "", "Path of the XLSX file to write")
	return cmd
}
