package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetLoggingState() {
	CloseAll()
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
	logsDir = ""
	workspace = ""
}

func TestAllCategoriesLog(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLoggingState()

	categories := map[string]bool{
		"boot": true, "vcs": true, "extract": true, "diff": true, "graph": true,
		"retrieval": true, "context": true, "prompt": true, "llm": true,
		"orchestrator": true, "store": true,
	}
	if err := Initialize(tempDir, true, categories, "debug", false); err != nil {
		t.Fatalf("failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("expected debug mode to be enabled")
	}

	all := []Category{
		CategoryBoot, CategoryVCS, CategoryExtract, CategoryDiff, CategoryGraph,
		CategoryRetrieval, CategoryContext, CategoryPrompt, CategoryLLM,
		CategoryOrchestrator, CategoryStore,
	}
	for _, cat := range all {
		l := Get(cat)
		l.Info("test message for %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".reviewengine", "logs"))
	if err != nil {
		t.Fatalf("failed to read logs dir: %v", err)
	}
	if len(entries) != len(all) {
		t.Fatalf("expected %d log files, got %d", len(all), len(entries))
	}
}

func TestDisabledModeIsNoop(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_disabled")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLoggingState()
	if err := Initialize(tempDir, false, nil, "info", false); err != nil {
		t.Fatalf("failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Fatal("expected debug mode disabled")
	}

	l := Get(CategoryLLM)
	l.Info("should not be written")

	if _, err := os.Stat(filepath.Join(tempDir, ".reviewengine", "logs")); !os.IsNotExist(err) {
		t.Fatalf("expected no logs directory to be created, stat err=%v", err)
	}
}

func TestCategoryFilter(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_filter")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLoggingState()
	categories := map[string]bool{"llm": true, "graph": false}
	if err := Initialize(tempDir, true, categories, "info", false); err != nil {
		t.Fatalf("failed to initialize logging: %v", err)
	}

	if !IsCategoryEnabled(CategoryLLM) {
		t.Error("expected llm category enabled")
	}
	if IsCategoryEnabled(CategoryGraph) {
		t.Error("expected graph category disabled")
	}
	if !IsCategoryEnabled(CategoryExtract) {
		t.Error("expected unspecified category to default to enabled")
	}
}

func TestJSONFormat(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_json")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLoggingState()
	if err := Initialize(tempDir, true, nil, "debug", true); err != nil {
		t.Fatalf("failed to initialize logging: %v", err)
	}
	Get(CategoryLLM).Info("hello %s", "world")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".reviewengine", "logs"))
	if err != nil {
		t.Fatalf("failed to read logs dir: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.Contains(e.Name(), "llm") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an llm log file")
	}
}
