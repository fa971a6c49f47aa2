package main

import (
	"context"
	"fmt"
	"strconv"

	"sprintdash/internal/config"
	"sprintdash/internal/models"
)

func runIssue(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sprintdash issue <list|add|remove|move> [arguments]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return issueListCmd(rest)
	case "add":
		return issueAdd(rest)
	case "remove":
		return issueRemove(rest)
	case "move":
		return issueMove(rest)
	default:
		return fmt.Errorf("unknown issue subcommand %q", sub)
	}
}

// parseIssueNumbers converts the remaining positional args to issue
// numbers.
func parseIssueNumbers(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one issue number required")
	}
	nums := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid issue number %q", a)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

func issueListCmd(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("issue list", cfg)
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
	if *f.json {
		if issues == nil {
			issues = []int{}
		}
		return printJSON(map[string]any{"sprint": number, "issues": issues, "count": len(issues)})
	}
	if len(issues) == 0 {
		fmt.Printf("Sprint %d has no issues.\n", number)
		return nil
	}
	for i, n := range issues {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(n)
	}
	fmt.Println()
	return nil
}

func issueAdd(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("issue add", cfg)
	source := f.fs.String("source", string(models.SourceManual), "assignment source (manual, rollover, migration)")
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)
	issues, err := parseIssueNumbers(f.fs.Args())
	if err != nil {
		return err
	}
	src := models.AssignmentSource(*source)
	switch src {
	case models.SourceManual, models.SourceRollover, models.SourceMigration:
	default:
		return fmt.Errorf("invalid source %q", *source)
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var added []int
	for _, n := range issues {
		if err := store.AddIssue(ctx, number, n, src); err != nil {
			return fmt.Errorf("added %s before failing on #%d: %w", issueList(added), n, err)
		}
		added = append(added, n)
	}
	if *f.json {
		return printJSON(map[string]any{"sprint": number, "added": added})
	}
	fmt.Printf("Added to sprint %d: %s\n", number, issueList(added))
	return nil
}

func issueRemove(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("issue remove", cfg)
	number, rest, err := parseNumber(args)
	if err != nil {
		return err
	}
	f.fs.Parse(rest)
	issues, err := parseIssueNumbers(f.fs.Args())
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var removed []int
	for _, n := range issues {
		if err := store.RemoveIssue(ctx, number, n); err != nil {
			return fmt.Errorf("removed %s before failing on #%d: %w", issueList(removed), n, err)
		}
		removed = append(removed, n)
	}
	if *f.json {
		return printJSON(map[string]any{"sprint": number, "removed": removed})
	}
	fmt.Printf("Removed from sprint %d: %s\n", number, issueList(removed))
	return nil
}

func issueMove(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f := newSprintFlags("issue move", cfg)
	from := f.fs.Int("from", 0, "source sprint number (required)")
	to := f.fs.Int("to", 0, "target sprint number (required)")
	f.fs.Parse(args)
	if *from <= 0 || *to <= 0 {
		return fmt.Errorf("both -from and -to are required")
	}
	issues, err := parseIssueNumbers(f.fs.Args())
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *f.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var moved []int
	for _, n := range issues {
		if err := store.MoveIssue(ctx, n, *from, *to); err != nil {
			return fmt.Errorf("moved %s before failing on #%d: %w", issueList(moved), n, err)
		}
		moved = append(moved, n)
	}
	if *f.json {
		return printJSON(map[string]any{"from_sprint": *from, "to_sprint": *to, "moved": moved})
	}
	fmt.Printf("Moved to sprint %d: %s\n", *to, issueList(moved))
	return nil
}
