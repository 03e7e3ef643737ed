package badger

import (
	"context"
	"testing"
	"time"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

func TestItemBasics(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	item := &core.Item{
		Title: "A story about storage engines",
		URL:   "https://example.com/storage-engines",
	}

	added, err := repos.Items.AddItems(ctx, item)
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(added))
	}

	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	retrieved, err := repos.Items.GetItem(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}

	if retrieved.Title != "A story about storage engines" {
		t.Fatalf("Unexpected title: %q", retrieved.Title)
	}
	if retrieved.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}
}

func TestItemIDDerivedFromURL(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	first := &core.Item{Title: "First scrape", URL: "https://example.com/same"}
	second := &core.Item{Title: "Second scrape", URL: "https://example.com/same"}

	if _, err := repos.Items.AddItems(ctx, first); err != nil {
		t.Fatalf("Failed to add first item: %v", err)
	}
	if _, err := repos.Items.AddItems(ctx, second); err != nil {
		t.Fatalf("Failed to add second item: %v", err)
	}

	if first.Id != second.Id {
		t.Fatalf("Expected same ID for same URL, got %d and %d", first.Id, second.Id)
	}

	// Second add overwrites the first
	retrieved, err := repos.Items.GetItem(ctx, first.Id)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if retrieved.Title != "Second scrape" {
		t.Fatalf("Expected overwritten title, got %q", retrieved.Title)
	}
}

func TestItemValidation(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	_, err = repos.Items.AddItems(ctx, &core.Item{Title: "No URL"})
	if err == nil {
		t.Fatal("Expected error for item without URL")
	}
}

func TestItemUpdateNotFound(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	_, err = repos.Items.UpdateItems(ctx, &core.Item{Id: 42, Title: "Ghost", URL: "https://example.com/ghost"})
	if err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestItemScrapedRange(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	now := time.Now().UTC()
	items := []*core.Item{
		{Title: "Old", URL: "https://example.com/old", ScrapedAt: now.Add(-48 * time.Hour)},
		{Title: "Recent", URL: "https://example.com/recent", ScrapedAt: now.Add(-1 * time.Hour)},
		{Title: "Fresh", URL: "https://example.com/fresh", ScrapedAt: now},
	}

	if _, err := repos.Items.AddItems(ctx, items...); err != nil {
		t.Fatalf("Failed to add items: %v", err)
	}

	start := now.Add(-24 * time.Hour)
	end := now.Add(1 * time.Minute)
	results, err := repos.Items.GetItemsByScrapedRange(ctx, start, end)
	if err != nil {
		t.Fatalf("Failed to query range: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 items in range, got %d", len(results))
	}
	// Ordered by scrape time ascending
	if results[0].Title != "Recent" || results[1].Title != "Fresh" {
		t.Fatalf("Unexpected order: %q, %q", results[0].Title, results[1].Title)
	}
}
