// Command sprintdash manages repo-scoped sprints backed by a local SQLite
// store, with optional Gitea and Woodpecker integration for enrichment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"sprintdash/internal/ci"
	"sprintdash/internal/config"
	"sprintdash/internal/database"
	"sprintdash/internal/export"
	"sprintdash/internal/report"
	"sprintdash/internal/seed"
	"sprintdash/internal/server"
	"sprintdash/internal/tracker"
	"sprintdash/internal/tui"
	"sprintdash/internal/util"
)

const usageText = `Usage: sprintdash <command> [arguments]

Commands:
  serve     run the HTTP API server
  seed      import sprints and assignments from Gitea milestones/labels
  board     open the interactive sprint board
  report    generate a PDF report for a sprint
  export    write a JSON backup of the store
  sprint    sprint management (list, show, create, update, start, close, cancel, current)
  issue     issue management (list, add, remove, move)

Run "sprintdash <command> -h" for command flags.`

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "seed":
		err = runSeed(args)
	case "board":
		err = runBoard(args)
	case "report":
		err = runReport(args)
	case "export":
		err = runExport(args)
	case "sprint":
		err = runSprint(args)
	case "issue":
		err = runIssue(args)
	case "help", "-h", "--help":
		fmt.Println(usageText)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n\n%s\n", cmd, usageText)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

// defaultDBPath prefers the env-configured path and otherwise keeps the
// store under the XDG data dir.
func defaultDBPath(cfg *config.Config) string {
	if os.Getenv("SPRINT_DASH_DB") != "" {
		return cfg.DBPath
	}
	return filepath.Join(util.DataDir(config.AppName), config.DBFileName)
}

func openDB(ctx context.Context, path string) (*database.Database, error) {
	return database.Open(ctx, path)
}

func openStore(ctx context.Context, cfg *config.Config, dbPath string) (*database.Store, *database.Database, error) {
	if err := cfg.RequireRepo(); err != nil {
		return nil, nil, err
	}
	db, err := openDB(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	return database.NewStore(db, cfg.Owner, cfg.Repo), db, nil
}

// newTracker builds a Gitea client when credentials resolve, nil otherwise.
func newTracker(cfg *config.Config) tracker.IssueReader {
	client, err := tracker.NewClient(cfg)
	if err != nil {
		return nil
	}
	return client
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "listen address")
	dbPath := fs.String("db", defaultDBPath(cfg), "path to the sprint database")
	fs.Parse(args)

	ctx := context.Background()
	db, err := openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := newTracker(cfg)
	var health server.HealthReader
	if ciClient, err := ci.NewClient(cfg); err == nil {
		health = ciClient
	}

	fmt.Printf("sprintdash serving on %s (db: %s)\n", *addr, db.Path())
	return server.New(db, reader, health).ListenAndServe(*addr)
}

func runSeed(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath(cfg), "path to the sprint database")
	jsonOut := fs.Bool("json", false, "machine-readable output")
	fs.Parse(args)

	if err := cfg.RequireGitea(); err != nil {
		return err
	}
	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := tracker.NewClient(cfg)
	if err != nil {
		return err
	}
	summary, err := seed.Run(ctx, store, client)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(summary)
	}
	fmt.Printf("Sprints created: %d (skipped %d, orphans %d)\n",
		summary.SprintsCreated, summary.SprintsSkipped, summary.OrphanSprints)
	fmt.Printf("Issues mapped: %d (skipped %d)\n", summary.IssuesMapped, summary.IssuesSkipped)
	return nil
}

func runBoard(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("board", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath(cfg), "path to the sprint database")
	theme := fs.String("theme", "default", "color theme (default, dracula)")
	fs.Parse(args)

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tui.SetTheme(*theme)
	return tui.Run(store, newTracker(cfg))
}

func runReport(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath(cfg), "path to the sprint database")
	number := fs.Int("sprint", 0, "sprint number (required)")
	out := fs.String("out", "", "output path (default sprint_<n>_report.pdf)")
	fs.Parse(args)

	if *number <= 0 {
		return fmt.Errorf("report: -sprint is required")
	}
	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := report.Generate(ctx, store, newTracker(cfg), *number, *out)
	if err != nil {
		if report.NotFound(err) {
			return fmt.Errorf("sprint %d not found", *number)
		}
		return err
	}
	fmt.Printf("PDF report generated: %s\n", path)
	return nil
}

func runExport(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath(cfg), "path to the sprint database")
	out := fs.String("out", "sprint-dash-export.json", "output path")
	encrypt := fs.Bool("encrypt", false, "encrypt the export with a passphrase")
	fs.Parse(args)

	ctx := context.Background()
	db, err := openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := export.Options{EncryptOutput: *encrypt}
	if *encrypt {
		pass, err := promptPassphrase("Export passphrase: ")
		if err != nil {
			return err
		}
		if err := util.ValidatePassphrase(pass); err != nil {
			return err
		}
		confirm, err := promptPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}
		opts.Passphrase = pass
	}

	if err := export.ToFile(ctx, db, *out, opts); err != nil {
		return err
	}
	fmt.Printf("Export written: %s\n", *out)
	return nil
}

func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	return strings.TrimSpace(string(pass)), err
}
