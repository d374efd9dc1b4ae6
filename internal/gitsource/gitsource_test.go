package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{"https", "https://github.com/acme/words.git", filepath.Join("repos", "github.com", "acme", "words"), false},
		{"scp-like", "git@github.com:acme/words.git", filepath.Join("repos", "github.com", "acme", "words"), false},
		{"ssh scheme", "ssh://git@example.org/team/vocab", filepath.Join("repos", "example.org", "team", "vocab"), false},
		{"file scheme", "file:///srv/git/words.git", filepath.Join("repos", "file", "srv", "git", "words"), false},
		{"plain path", "not a url", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q, but got %q", tc.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalPath() returned an unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	testCases := map[string]bool{
		"https://github.com/acme/words.git": true,
		"git@github.com:acme/words.git":     true,
		"file:///srv/git/words":             true,
		"/home/me/words":                    false,
		"./decks":                           false,
	}
	for path, expected := range testCases {
		if got := IsRemote(path); got != expected {
			t.Errorf("IsRemote(%q) = %v, want %v", path, got, expected)
		}
	}
}

func TestSyncClonesAndPulls(t *testing.T) {
	origin := t.TempDir()
	repo, err := git.PlainInit(origin, false)
	if err != nil {
		t.Fatalf("PlainInit() returned an unexpected error: %v", err)
	}
	commitFile(t, repo, origin, "words.csv", "freight,n,/freɪt/,hàng hóa,,goods\n")

	clone := filepath.Join(t.TempDir(), "clone")
	ctx := context.Background()
	if err := Sync(ctx, origin, clone); err != nil {
		t.Fatalf("Sync() clone returned an unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(clone, "words.csv")); err != nil {
		t.Fatalf("Expected the cloned file to exist: %v", err)
	}

	// Nothing new upstream.
	if err := Sync(ctx, origin, clone); err != nil {
		t.Fatalf("Sync() pull returned an unexpected error: %v", err)
	}
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() returned an unexpected error: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() returned an unexpected error: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add() returned an unexpected error: %v", err)
	}
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() returned an unexpected error: %v", err)
	}
}
