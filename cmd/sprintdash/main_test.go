package main

import (
	"strings"
	"testing"

	"sprintdash/internal/config"
)

func TestParseNumber(t *testing.T) {
	n, rest, err := parseNumber([]string{"47", "-json"})
	if err != nil {
		t.Fatalf("parseNumber failed: %v", err)
	}
	if n != 47 || len(rest) != 1 || rest[0] != "-json" {
		t.Fatalf("got %d %v", n, rest)
	}

	for _, args := range [][]string{nil, {"abc"}, {"0"}, {"-1"}} {
		if _, _, err := parseNumber(args); err == nil {
			t.Fatalf("parseNumber(%v) succeeded, want error", args)
		}
	}
}

func TestParseIssueNumbers(t *testing.T) {
	nums, err := parseIssueNumbers([]string{"101", "102"})
	if err != nil {
		t.Fatalf("parseIssueNumbers failed: %v", err)
	}
	if len(nums) != 2 || nums[0] != 101 || nums[1] != 102 {
		t.Fatalf("got %v", nums)
	}

	for _, args := range [][]string{nil, {"x"}, {"101", "0"}} {
		if _, err := parseIssueNumbers(args); err == nil {
			t.Fatalf("parseIssueNumbers(%v) succeeded, want error", args)
		}
	}
}

func TestValidateDate(t *testing.T) {
	if err := validateDate("", "start date"); err != nil {
		t.Fatalf("empty date rejected: %v", err)
	}
	if err := validateDate("2026-01-05", "start date"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	err := validateDate("01/05/2026", "start date")
	if err == nil || !strings.Contains(err.Error(), "start date") {
		t.Fatalf("err = %v", err)
	}
}

func TestIssueList(t *testing.T) {
	if got := issueList(nil); got != "none" {
		t.Fatalf("issueList(nil) = %q", got)
	}
	if got := issueList([]int{1, 2}); got != "#1, #2" {
		t.Fatalf("issueList = %q", got)
	}
}

func TestOrDash(t *testing.T) {
	if got := orDash(nil); got != "-" {
		t.Fatalf("orDash(nil) = %q", got)
	}
	v := "2026-01-05"
	if got := orDash(&v); got != v {
		t.Fatalf("orDash = %q", got)
	}
}

func TestDefaultDBPathEnvOverride(t *testing.T) {
	t.Setenv("SPRINT_DASH_DB", "/tmp/custom.db")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := defaultDBPath(cfg); got != "/tmp/custom.db" {
		t.Fatalf("defaultDBPath = %q", got)
	}
}
