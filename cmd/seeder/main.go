package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"iter"
	"log/slog"
	"os"
	"time"

	nexus "github.com/JoelJohnsonThomas/nexus-pipeline"
	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

var samples = []core.Item{
	{
		Title:       "Understanding B-tree Indexes",
		URL:         "https://example.com/articles/btree-indexes",
		Description: "A walkthrough of how databases use B-tree indexes to keep range queries fast even as tables grow.",
	},
	{
		Title:       "A Field Guide to Log-Structured Merge Trees",
		URL:         "https://example.com/articles/lsm-trees",
		Description: "Why write-heavy storage engines trade read amplification for sequential writes, and how compaction keeps it bounded.",
	},
	{
		Title:       "Backpressure in Streaming Systems",
		URL:         "https://example.com/articles/backpressure",
		Description: "What happens when producers outrun consumers, and the strategies systems use to shed, buffer, or slow the flow.",
	},
	{
		Title:       "Consistent Hashing Explained",
		URL:         "https://example.com/articles/consistent-hashing",
		Description: "How consistent hashing lets caches and databases rebalance with minimal key movement when nodes join or leave.",
	},
	{
		Title:       "Intro to Vector Similarity Search",
		URL:         "https://example.com/videos/vector-search",
		VideoID:     "dQw4w9WgXcQ",
		Description: "A lecture on embedding spaces, cosine similarity, and why brute-force search is often good enough.",
	},
}

var (
	seedFileName = flag.String("src", "", "JSON-lines file of seed items")
	dbPath       = flag.String("db", "./nexus_db", "path to the database directory")
	submit       = flag.Bool("submit", true, "submit seeded items to the pipeline")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// itemsFromFile returns an iterator over items parsed from a JSON-lines file.
func itemsFromFile(filename string) (iter.Seq[*core.Item], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(*core.Item) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var item core.Item
			if err := json.Unmarshal(line, &item); err != nil {
				slog.Warn("skipping malformed seed line", "err", err)
				continue
			}
			if !yield(&item) {
				return
			}
		}
	}, nil
}

// itemsFromSlice returns an iterator over the built-in samples.
func itemsFromSlice(items []core.Item) iter.Seq[*core.Item] {
	return func(yield func(*core.Item) bool) {
		for i := range items {
			if !yield(&items[i]) {
				return
			}
		}
	}
}

func main() {
	db, err := nexus.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[*core.Item]
	if seedFileName != nil && *seedFileName != "" {
		source, err = itemsFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = itemsFromSlice(samples)
	}

	now := time.Now().UTC()
	var ids []core.ID
	for item := range source {
		if item.ScrapedAt.IsZero() {
			item.ScrapedAt = now
		}
		added, err := db.ItemRepository().AddItems(ctx, item)
		if err != nil {
			panic(err)
		}
		ids = append(ids, added[0].Id)
	}
	slog.Info("seeded items", "count", len(ids))

	if *submit {
		orchestrator, err := db.NewOrchestrator()
		if err != nil {
			panic(err)
		}
		result := orchestrator.SubmitBatch(ctx, ids)
		slog.Info("submitted items", "enqueued", result.Enqueued, "failed", result.Failed)
	}
}
