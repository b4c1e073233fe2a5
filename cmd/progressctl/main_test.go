package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-literacy/internal/audit"
	"github.com/p-n-ai/pai-literacy/internal/badge"
	"github.com/p-n-ai/pai-literacy/internal/progress"
)

const testLog = `[
  {"user_id":"u1","activity_type":"lesson","activity_id":"What is AI?-Intro","grade":6,"status":"completed","score":100,"max_score":100,"time_spent":60,"attempts":1,"updated_at":"2026-05-01T10:00:00Z"},
  {"user_id":"u1","activity_type":"quiz","activity_id":"6-Easy","grade":6,"difficulty":"Easy","status":"completed","score":80,"max_score":100,"time_spent":120,"attempts":1,"updated_at":"2026-05-02T10:00:00Z"},
  {"user_id":"u1","activity_type":"quiz","activity_id":"7-Hard","grade":7,"difficulty":"Hard","status":"in_progress","score":40,"max_score":100,"time_spent":30,"attempts":0,"updated_at":"2026-05-03T10:00:00Z"},
  {"user_id":"u1","activity_type":"video","activity_id":"intro","status":"completed","updated_at":"2026-05-04T10:00:00Z"}
]`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStats(t *testing.T) {
	out, err := run(t, testLog, "stats", "-o", "json")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var s progress.Stats
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if s.Overall.TotalActivities != 3 || s.Overall.CompletedActivities != 2 || s.Overall.TotalTimeSpent != 210 {
		t.Errorf("overall = %+v", s.Overall)
	}
	if s.Quizzes.Total != 2 || s.Quizzes.AverageScore != 60 {
		t.Errorf("quizzes = %+v", s.Quizzes)
	}

	text, err := run(t, testLog, "stats")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"TYPE", "quizzes", "2/3 completed (67%)"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q:\n%s", want, text)
		}
	}
}

func TestGrades(t *testing.T) {
	out, err := run(t, testLog, "grades", "--output", "json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []progress.GradeProgress
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 || rows[0].Grade != 6 || rows[0].Completed != 2 || rows[1].Total != 1 || rows[4].Total != 0 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestRecent(t *testing.T) {
	out, err := run(t, testLog, "recent", "-n", "2", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var recent []progress.Record
	if err := json.Unmarshal([]byte(out), &recent); err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ActivityID != "intro" || recent[1].ActivityID != "7-Hard" {
		t.Errorf("recent = %+v", recent)
	}

	text, err := run(t, testLog, "recent")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "6-Easy") || !strings.Contains(text, "80/100") {
		t.Errorf("text output:\n%s", text)
	}
}

func TestBadges(t *testing.T) {
	out, err := run(t, testLog, "badges", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var defs []badge.Definition
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 || defs[0].Name != "First Steps" || defs[1].Name != "Quiz Taker" {
		t.Errorf("badges = %+v", defs)
	}

	text, err := run(t, "[]", "badges")
	if err != nil || !strings.Contains(text, "No badges yet.") {
		t.Errorf("empty log badges = %q, %v", text, err)
	}
}

func TestFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	if err := os.WriteFile(path, []byte(testLog), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "stats", "-f", path); err != nil {
		t.Errorf("stats -f error = %v", err)
	}
	if _, err := run(t, "", "stats", "-f", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"bad-json", "{not json", []string{"stats"}},
		{"bad-format", testLog, []string{"stats", "-o", "yaml"}},
		{"extra-args", testLog, []string{"grades", "7"}},
		{"export-without-out", testLog, []string{"export"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.stdin, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.xlsx")
	out, err := run(t, testLog, "export", "--out", path)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "wrote 4 records") {
		t.Errorf("output = %q", out)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(audit.SheetProgress)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Errorf("progress rows = %d, want header + 4", len(rows))
	}
}
