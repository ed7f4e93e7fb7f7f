package store

import (
	"context"
	"testing"

	"impactreview/internal/models"
)

func TestNewHistoryStore(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}
	defer s.Close()

	if s.db == nil {
		t.Error("database connection is nil")
	}
}

func TestSaveAndList(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	result := models.ReviewResult{
		Summary: "No semantically significant changes detected.",
		Status:  models.StatusCompleted,
		Findings: []models.ReviewFinding{
			{Severity: "warn", Category: "style", Message: "consider renaming"},
		},
	}
	if err := s.Save(ctx, "pr-42", result); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].PRID != "pr-42" {
		t.Errorf("expected pr-42, got %s", entries[0].PRID)
	}
	if entries[0].Status != string(models.StatusCompleted) {
		t.Errorf("expected status completed, got %s", entries[0].Status)
	}
	if len(entries[0].Result.Findings) != 1 {
		t.Errorf("expected 1 finding round-tripped, got %d", len(entries[0].Result.Findings))
	}
}

func TestGetReturnsMostRecent(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	_ = s.Save(ctx, "pr-1", models.ReviewResult{Summary: "first run", Status: models.StatusCompleted})
	_ = s.Save(ctx, "pr-1", models.ReviewResult{Summary: "second run", Status: models.StatusCompleted})

	entry, err := s.Get(ctx, "pr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry, got nil")
	}
	if entry.Summary != "second run" {
		t.Errorf("expected most recent save to win, got %q", entry.Summary)
	}
}

func TestGetUnknownPRReturnsNil(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}
	defer s.Close()

	entry, err := s.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil for unknown PR, got %+v", entry)
	}
}

func TestListRespectsLimit(t *testing.T) {
	s, err := NewHistoryStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Save(ctx, "pr-batch", models.ReviewResult{Status: models.StatusCompleted})
	}

	entries, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries with limit=2, got %d", len(entries))
	}
}
