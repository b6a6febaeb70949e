package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	unlock, err := client.Lock(context.Background())
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, DefaultLockName)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	t.Run("Contention Times Out", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := client.Lock(ctx); err == nil {
			t.Error("expected second Lock to fail while the lock is held")
		}
	})

	unlock()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_InitAndCommit(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	if err := client.Init(); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".git")); os.IsNotExist(err) {
		t.Fatal(".git directory not created")
	}
	if !client.IsRepo() {
		t.Fatal("expected IsRepo after Init")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.json"), []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	changed, err := client.HasChanges("notes.json")
	if err != nil {
		t.Fatalf("HasChanges failed: %v", err)
	}
	if !changed {
		t.Fatal("expected untracked file to count as a change")
	}

	if err := client.Add("notes.json"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := client.Commit("docs(notes): first"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	changed, err = client.HasChanges("notes.json")
	if err != nil {
		t.Fatalf("HasChanges failed: %v", err)
	}
	if changed {
		t.Error("expected clean tree after commit")
	}

	subjects, err := client.Log(5)
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(subjects) != 1 || subjects[0] != "docs(notes): first" {
		t.Errorf("unexpected log: %v", subjects)
	}
}
