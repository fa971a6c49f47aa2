package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sprintdash/internal/config"
	"sprintdash/internal/database"
	"sprintdash/internal/models"
)

func runSprint(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sprintdash sprint <list|show|create|update|start|close|cancel|current> [arguments]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return sprintList(rest)
	case "show":
		return sprintShow(rest)
	case "create":
		return sprintCreate(rest)
	case "update":
		return sprintUpdate(rest)
	case "start":
		return sprintStart(rest)
	case "close":
		return sprintClose(rest)
	case "cancel":
		return sprintCancel(rest)
	case "current":
		return sprintCurrent(rest)
	default:
		return fmt.Errorf("unknown sprint subcommand %q", sub)
	}
}

// sprintFlags is the flag surface shared by every sprint subcommand.
type sprintFlags struct {
	fs     *flag.FlagSet
	dbPath *string
	json   *bool
}

func newSprintFlags(name string, cfg *config.Config) *sprintFlags {
	fs := flag.NewFlagSet("sprint "+name, flag.ExitOnError)
	return &sprintFlags{
		fs:     fs,
		dbPath: fs.String("db", defaultDBPath(cfg), "path to the sprint database"),
		json:   fs.Bool("json", false, "machine-readable output"),
	}
}

// parseNumber pulls a positional sprint number off the front of args.
func parseNumber(args []string) (int, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("sprint number required")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, nil, fmt.Errorf("invalid sprint number %q", args[0])
	}
	return n, args[1:], nil
}

func validateDate(v, what string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return fmt.Errorf("invalid %s %q (want YYYY-MM-DD)", what, v)
	}
	return nil
}

func sprintList(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("list", cfg)
	status := f.fs.String("status", "", "filter by status")
	f.fs.Parse(args)

	if *status != "" && !models.SprintStatus(*status).IsValid() {
		return fmt.Errorf("invalid status %q", *status)
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sprints, err := store.ListSprints(ctx, models.SprintStatus(*status))
	if err != nil {
		return err
	}
	if *f.json {
		if sprints == nil {
			sprints = []models.Sprint{}
		}
		return printJSON(sprints)
	}
	if len(sprints) == 0 {
		fmt.Println("No sprints found.")
		return nil
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%-6s %-14s %-12s %-12s %s", "#", "Status", "Start", "End", "Goal")))
	fmt.Println(dimStyle.Render(strings.Repeat("-", 70)))
	for _, sp := range sprints {
		fmt.Printf("%-6d %-14s %-12s %-12s %s\n",
			sp.Number, sp.Status, orDash(sp.StartDate), orDash(sp.EndDate), sp.Goal)
	}
	return nil
}

func orDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func sprintShow(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("show", cfg)
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sprint, err := store.GetSprint(ctx, number)
	if err != nil {
		return err
	}
	issues, err := store.IssueNumbers(ctx, number)
	if err != nil {
		return err
	}
	startSnap, _ := store.GetSnapshot(ctx, number, models.SnapshotStart)
	endSnap, _ := store.GetSnapshot(ctx, number, models.SnapshotEnd)

	if *f.json {
		out := map[string]any{
			"number":      sprint.Number,
			"status":      sprint.Status,
			"start_date":  sprint.StartDate,
			"end_date":    sprint.EndDate,
			"goal":        sprint.Goal,
			"issues":      issues,
			"issue_count": len(issues),
		}
		if startSnap != nil {
			out["start_snapshot"] = startSnap
		}
		if endSnap != nil {
			out["end_snapshot"] = endSnap
		}
		return printJSON(out)
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Sprint %d  [%s]", sprint.Number, sprint.Status)))
	if sprint.Goal != "" {
		fmt.Printf("Goal: %s\n", sprint.Goal)
	}
	fmt.Printf("Start: %s  End: %s\n", orDash(sprint.StartDate), orDash(sprint.EndDate))
	fmt.Printf("Issues (%d): %s\n", len(issues), issueList(issues))
	if startSnap != nil {
		fmt.Printf("Start snapshot: %d issues, %d pts\n", startSnap.TotalIssues, startSnap.TotalPoints)
	}
	if endSnap != nil {
		fmt.Printf("End snapshot: %d issues, %d pts\n", endSnap.TotalIssues, endSnap.TotalPoints)
	}
	return nil
}

func issueList(nums []int) string {
	if len(nums) == 0 {
		return "none"
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("#%d", n)
	}
	return strings.Join(parts, ", ")
}

func sprintCreate(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("create", cfg)
	start := f.fs.String("start", "", "start date (YYYY-MM-DD)")
	end := f.fs.String("end", "", "end date (YYYY-MM-DD)")
	goal := f.fs.String("goal", "", "sprint goal")
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)

	if err := validateDate(*start, "start date"); err != nil {
		return err
	}
	if err := validateDate(*end, "end date"); err != nil {
		return err
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sprint, err := store.CreateSprint(ctx, number, *start, *end, *goal)
	if err != nil {
		return err
	}
	if *f.json {
		return printJSON(sprint)
	}
	fmt.Printf("Sprint %d created [%s]\n", sprint.Number, sprint.Status)
	return nil
}

func sprintUpdate(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("update", cfg)
	start := f.fs.String("start", "", "start date (YYYY-MM-DD)")
	end := f.fs.String("end", "", "end date (YYYY-MM-DD)")
	goal := f.fs.String("goal", "", "sprint goal")
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)

	var update database.SprintUpdate
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "start":
			update.StartDate = start
		case "end":
			update.EndDate = end
		case "goal":
			update.Goal = goal
		}
	})
	if update.StartDate == nil && update.EndDate == nil && update.Goal == nil {
		return fmt.Errorf("no fields to update; use -start, -end, or -goal")
	}
	if err := validateDate(*start, "start date"); err != nil {
		return err
	}
	if err := validateDate(*end, "end date"); err != nil {
		return err
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sprint, err := store.UpdateSprint(ctx, number, update)
	if err != nil {
		return err
	}
	if *f.json {
		return printJSON(sprint)
	}
	fmt.Printf("Sprint %d updated\n", sprint.Number)
	return nil
}

func sprintStart(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("start", cfg)
	start := f.fs.String("start", "", "start date (default today)")
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)

	startDate := *start
	if startDate == "" {
		startDate = time.Now().UTC().Format("2006-01-02")
	} else if err := validateDate(startDate, "start date"); err != nil {
		return err
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := store.StartSprint(ctx, number, startDate)
	if err != nil {
		return err
	}
	if *f.json {
		return printJSON(res)
	}
	fmt.Printf("Sprint %d started (%s)\n", number, res.StartDate)
	fmt.Printf("Start snapshot: %d issues\n", len(res.Issues))
	return nil
}

func sprintClose(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("close", cfg)
	carryOverTo := f.fs.Int("carry-over-to", 0, "carry remaining issues to this sprint")
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	issues, err := store.IssueNumbers(ctx, number)
	if err != nil {
		return err
	}
	req := database.CloseRequest{
		Number:       number,
		EndDate:      time.Now().UTC().Format("2006-01-02"),
		TotalIssues:  len(issues),
		IssueNumbers: issues,
	}
	if *carryOverTo > 0 {
		req.CarryOverTo = carryOverTo
		req.CarryOverIssues = issues
		if req.CarryOverIssues == nil {
			req.CarryOverIssues = []int{}
		}
	}

	res, err := store.CloseSprint(ctx, req)
	if err != nil {
		return err
	}
	if *f.json {
		return printJSON(res)
	}
	fmt.Printf("Sprint %d closed (%s)\n", number, res.EndDate)
	if res.CarriedOver != nil {
		fmt.Printf("Carried over %d issues to sprint %d\n",
			len(res.CarriedOver.Issues), res.CarriedOver.ToSprint)
	}
	return nil
}

func sprintCancel(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("cancel", cfg)
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := store.CancelSprint(ctx, number)
	if err != nil {
		return err
	}
	if *f.json {
		return printJSON(res)
	}
	fmt.Printf("Sprint %d cancelled\n", number)
	if res.Snapshot != "" {
		fmt.Println("End snapshot captured (sprint was active)")
	}
	return nil
}

func sprintCurrent(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("current", cfg)
	f.fs.Parse(args)

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	number, err := store.CurrentSprintNumber(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			if *f.json {
				return printJSON(map[string]any{"current_sprint": nil})
			}
			return fmt.Errorf("no sprint in progress")
		}
		return err
	}
	if *f.json {
		return printJSON(map[string]any{"current_sprint": number})
	}
	fmt.Println(number)
	return nil
}
