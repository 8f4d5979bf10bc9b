package id

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var runIDPattern = regexp.MustCompile(`^\d{8}T\d{6}Z-[0-9a-f]{8}$`)

func TestRunIDGenerator_NewRunID(t *testing.T) {
	startedAt := time.Date(2025, 9, 8, 6, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	g := NewRunIDGenerator()

	first, err := g.NewRunID(startedAt)
	if err != nil {
		t.Fatalf("new run id: %v", err)
	}
	second, err := g.NewRunID(startedAt)
	if err != nil {
		t.Fatalf("new run id: %v", err)
	}

	if !runIDPattern.MatchString(first) {
		t.Fatalf("unexpected run id format: %q", first)
	}
	if !strings.HasPrefix(first, "20250908T130000Z-") {
		t.Fatalf("run id must carry the UTC start second, got %q", first)
	}
	if first == second {
		t.Fatalf("expected distinct run ids in the same second, got %q twice", first)
	}
}

func TestRunIDGenerator_SortsByStartTime(t *testing.T) {
	g := NewRunIDGenerator()
	earlier, err := g.NewRunID(time.Date(2025, 9, 8, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("new run id: %v", err)
	}
	later, err := g.NewRunID(time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new run id: %v", err)
	}
	if earlier >= later {
		t.Fatalf("expected %q to sort before %q", earlier, later)
	}
}
