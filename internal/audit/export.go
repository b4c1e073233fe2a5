package audit

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-literacy/internal/progress"
)

// Sheet names in the admin workbook, in tab order.
const (
	SheetActivity = "Activity"
	SheetRoles    = "Roles"
	SheetProgress = "Progress"
)

var (
	activityHeader = []any{"User ID", "Email", "Name", "Event", "Time"}
	rolesHeader    = []any{"User ID", "Role", "Granted"}
	progressHeader = []any{
		"User ID", "Type", "Activity", "Grade", "Status",
		"Score", "Max Score", "Time Spent (s)", "Attempts", "Updated", "Completed",
	}
)

// ExportWorkbook writes an XLSX workbook with one sheet each for account
// events, role grants and activity records.
func ExportWorkbook(w io.Writer, events []Event, roles []RoleGrant, records []progress.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetActivity); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetRoles, SheetProgress} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	activityRows := make([][]any, 0, len(events))
	for _, e := range events {
		activityRows = append(activityRows, []any{
			e.UserID, e.UserEmail, e.UserName, string(e.ActivityType), formatTime(e.CreatedAt),
		})
	}
	if err := writeSheet(f, SheetActivity, activityHeader, activityRows); err != nil {
		return err
	}

	roleRows := make([][]any, 0, len(roles))
	for _, g := range roles {
		roleRows = append(roleRows, []any{g.UserID, string(g.Role), formatTime(g.CreatedAt)})
	}
	if err := writeSheet(f, SheetRoles, rolesHeader, roleRows); err != nil {
		return err
	}

	progressRows := make([][]any, 0, len(records))
	for _, r := range records {
		grade := ""
		if r.Grade != nil {
			grade = fmt.Sprint(*r.Grade)
		}
		completed := ""
		if r.CompletedAt != nil {
			completed = formatTime(*r.CompletedAt)
		}
		progressRows = append(progressRows, []any{
			r.UserID, string(r.ActivityType), r.ActivityID, grade, string(r.Status),
			r.Score, r.MaxScore, r.TimeSpent, r.Attempts, formatTime(r.UpdatedAt), completed,
		})
	}
	if err := writeSheet(f, SheetProgress, progressHeader, progressRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
