// Copyright 2026 Joel Johnson Thomas
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	nexus "github.com/JoelJohnsonThomas/nexus-pipeline"
	"github.com/JoelJohnsonThomas/nexus-pipeline/ai"
	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/extract"
	"github.com/JoelJohnsonThomas/nexus-pipeline/pipeline"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "nexus",
		Usage: "Asynchronous content processing pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "work",
				Usage:  "Run the stage workers until interrupted",
				Action: workCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "summarizer-host",
						Usage: "Summarization service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "summarizer-model",
						Usage: "Summarization model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (defaults to summarizer-host if not specified)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "api-key",
						Usage: "API key for the AI services",
					},
					&cli.StringFlag{
						Name:  "transcript-api",
						Usage: "Transcript service URL for video items",
					},
					&cli.StringFlag{
						Name:  "transcript-key",
						Usage: "Transcript service API key",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size (0 uses half the CPU count)",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Queue polling interval",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:      "submit",
				Usage:     "Submit items for processing by ID",
				ArgsUsage: "ITEM_ID [ITEM_ID...]",
				Action:    submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
			{
				Name:   "submit-new",
				Usage:  "Submit recently scraped items that have not been processed",
				Action: submitNewCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "window",
						Usage: "Scrape-time window to scan",
						Value: 24 * time.Hour,
					},
				},
			},
			{
				Name:   "retry-failed",
				Usage:  "Resubmit failed items below the retry limit",
				Action: retryFailedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per item",
						Value: 3,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show queue depths and processing record counts",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
			{
				Name:   "clear-failed",
				Usage:  "Remove jobs from the failed-job registry",
				Action: clearFailedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Only clear one stage (extraction, summarization, embedding, notify)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func workCommand(c *cli.Context) error {
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	summarizerHost := c.String("summarizer-host")
	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = summarizerHost
	}

	aiConfig := ai.NewConfig(
		ai.WithSummarizerHost(summarizerHost),
		ai.WithSummarizerModel(c.String("summarizer-model")),
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	var extractorOpts []extract.HTTPOption
	if c.String("transcript-api") != "" {
		extractorOpts = append(extractorOpts, extract.WithTranscriptAPI(c.String("transcript-api"), c.String("transcript-key")))
	}

	db, err := nexus.NewDatabase(dbPath,
		nexus.WithAIConfig(aiConfig),
		nexus.WithExtractor(extract.NewHTTPExtractor(extractorOpts...)),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var runnerOpts []queue.RunnerOption
	if c.Int("workers") > 0 {
		runnerOpts = append(runnerOpts, queue.WithPoolSize(c.Int("workers")))
	}
	runnerOpts = append(runnerOpts, queue.WithPollInterval(c.Duration("poll-interval")))

	runner, err := db.NewRunner(runnerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Summarizer: %s (%s)\n", summarizerHost, c.String("summarizer-model"))
	fmt.Fprintf(os.Stderr, "Embedder: %s (%s)\n", embeddingHost, c.String("embedding-model"))
	fmt.Fprintln(os.Stderr, "Workers running, press Ctrl-C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Fprintln(os.Stderr, "Shutting down")
	runner.Stop()
	return nil
}

func submitCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one item ID is required")
	}

	var ids []core.ID
	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item ID %q: %w", arg, err)
		}
		ids = append(ids, core.ID(id))
	}

	orchestrator, cleanup, err := openOrchestrator(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	result := orchestrator.SubmitBatch(ctx, ids)
	fmt.Fprintf(os.Stderr, "Enqueued: %d, failed: %d\n", result.Enqueued, result.Failed)
	return nil
}

func submitNewCommand(c *cli.Context) error {
	ctx := context.Background()

	orchestrator, cleanup, err := openOrchestrator(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := orchestrator.SubmitNew(ctx, c.Duration("window"))
	if err != nil {
		return fmt.Errorf("submit-new failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Found: %d, enqueued: %d, failed: %d\n", result.Found, result.Enqueued, result.Failed)
	return nil
}

func retryFailedCommand(c *cli.Context) error {
	ctx := context.Background()

	orchestrator, cleanup, err := openOrchestrator(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := orchestrator.RetryFailed(ctx, c.Int("max-retries"))
	if err != nil {
		return fmt.Errorf("retry-failed failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Eligible: %d, retried: %d\n", result.Found, result.Retried)
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	orchestrator, cleanup, err := openOrchestrator(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := orchestrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	fmt.Println("Queues:")
	for _, stage := range append(core.Stages(), core.StageNotify) {
		stats := status.Queues[stage]
		fmt.Printf("  %-14s pending=%d in-flight=%d failed=%d\n", stage, stats.Pending, stats.InFlight, stats.Failed)
	}
	fmt.Println("Records:")
	for recordStatus, count := range status.Records {
		fmt.Printf("  %-14s %d\n", recordStatus, count)
	}
	return nil
}

func clearFailedCommand(c *cli.Context) error {
	ctx := context.Background()

	var stage core.Stage
	if name := c.String("stage"); name != "" {
		parsed, err := parseStage(name)
		if err != nil {
			return err
		}
		stage = parsed
	}

	orchestrator, cleanup, err := openOrchestrator(c.String("db"))
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := orchestrator.ClearFailedJobs(ctx, stage)
	if err != nil {
		return fmt.Errorf("clear-failed failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Removed %d failed jobs\n", removed)
	return nil
}

// openOrchestrator opens just the pieces the batch commands need,
// skipping the AI provider and extractor.
func openOrchestrator(dbPath string) (*pipeline.Orchestrator, func(), error) {
	if dbPath == "" {
		return nil, nil, fmt.Errorf("database path is required")
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	itemRepo, err := badger.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create item repository: %w", err)
	}

	statusRepo, err := badger.NewStatusRepository(backend)
	if err != nil {
		itemRepo.Close()
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create status repository: %w", err)
	}

	jobQueue, err := queue.New(backend, slog.Default())
	if err != nil {
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create job queue: %w", err)
	}

	orchestrator, err := pipeline.NewOrchestrator(itemRepo, statusRepo, jobQueue)
	if err != nil {
		jobQueue.Close()
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	cleanup := func() {
		jobQueue.Close()
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
	}
	return orchestrator, cleanup, nil
}

func parseStage(name string) (core.Stage, error) {
	switch strings.ToLower(name) {
	case "extraction":
		return core.StageExtraction, nil
	case "summarization":
		return core.StageSummarization, nil
	case "embedding":
		return core.StageEmbedding, nil
	case "notify":
		return core.StageNotify, nil
	default:
		return 0, fmt.Errorf("invalid stage %q: must be one of extraction, summarization, embedding, notify", name)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
