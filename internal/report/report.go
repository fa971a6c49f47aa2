// Package report renders a sprint summary as a PDF.
package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"sprintdash/internal/database"
	"sprintdash/internal/models"
	"sprintdash/internal/tracker"
)

// Generate writes a PDF report for the given sprint and returns the
// absolute output path. reader is optional: without it issues are listed
// by number only. An empty path defaults to sprint_<n>_report.pdf in the
// working directory.
func Generate(ctx context.Context, store *database.Store, reader tracker.IssueReader, number int, path string) (string, error) {
	sprint, err := store.GetSprint(ctx, number)
	if err != nil {
		return "", err
	}
	issues, err := store.IssueNumbers(ctx, number)
	if err != nil {
		return "", err
	}

	// Closed-state and title enrichment comes from the tracker when
	// available.
	details := make(map[int]tracker.Issue)
	if reader != nil {
		all, err := reader.ListIssues(ctx, "all")
		if err != nil {
			return "", fmt.Errorf("report: list issues: %w", err)
		}
		for _, iss := range all {
			details[iss.Number] = iss
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Sprint %d Report: %s/%s", sprint.Number, store.Owner(), store.Repo()))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", sprint.Status))
	pdf.Ln(6)
	if sprint.StartDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Start: %s", *sprint.StartDate))
		pdf.Ln(6)
	}
	if sprint.EndDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("End: %s", *sprint.EndDate))
		pdf.Ln(6)
	}
	if sprint.Goal != "" {
		pdf.MultiCell(0, 8, fmt.Sprintf("Goal: %s", sprint.Goal), "", "", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Issues (%d)", len(issues)))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	if len(issues) == 0 {
		pdf.Cell(0, 8, "  - No issues assigned.")
		pdf.Ln(8)
	}

	totalPoints, donePoints := 0, 0
	for _, n := range issues {
		box := "[ ]"
		line := fmt.Sprintf("#%d", n)
		if iss, ok := details[n]; ok {
			points := iss.Points()
			totalPoints += points
			if iss.IsClosed() {
				box = "[x]"
				donePoints += points
			}
			line = fmt.Sprintf("#%d (%dp) %s", n, points, iss.Title)
		}
		pdf.Cell(0, 8, fmt.Sprintf("  %s %s", box, line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if reader != nil {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 10, fmt.Sprintf("Points: %d done / %d total", donePoints, totalPoints))
		pdf.Ln(10)
	}

	writeSnapshots(pdf, ctx, store, number)

	if path == "" {
		path = fmt.Sprintf("sprint_%d_report.pdf", number)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

func writeSnapshots(pdf *fpdf.Fpdf, ctx context.Context, store *database.Store, number int) {
	start, startErr := store.GetSnapshot(ctx, number, models.SnapshotStart)
	end, endErr := store.GetSnapshot(ctx, number, models.SnapshotEnd)
	if startErr != nil && endErr != nil {
		return
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Snapshots")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	if startErr == nil {
		pdf.Cell(0, 8, fmt.Sprintf("  Start: %d issues, %d points (%s)",
			start.TotalIssues, start.TotalPoints, start.CapturedAt.Format("2006-01-02")))
		pdf.Ln(6)
	}
	if endErr == nil {
		pdf.Cell(0, 8, fmt.Sprintf("  End: %d issues, %d points (%s)",
			end.TotalIssues, end.TotalPoints, end.CapturedAt.Format("2006-01-02")))
		pdf.Ln(6)
	}
}

// NotFound reports whether err is a missing-sprint error, so callers can
// give a friendlier message than the raw store error.
func NotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
