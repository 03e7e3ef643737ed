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


package nexus

import (
	"log/slog"

	"github.com/JoelJohnsonThomas/nexus-pipeline/ai"
	"github.com/JoelJohnsonThomas/nexus-pipeline/ai/openai"
	"github.com/JoelJohnsonThomas/nexus-pipeline/cache"
	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/extract"
	"github.com/JoelJohnsonThomas/nexus-pipeline/pipeline"
	"github.com/JoelJohnsonThomas/nexus-pipeline/queue"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage/badger"
)

// Database bundles the storage backend, the durable job queue, and the
// pipeline collaborators behind one lifecycle.
type Database struct {
	backend       *badger.Backend
	itemRepo      storage.ItemRepository
	statusRepo    storage.StatusRepository
	summaryRepo   storage.SummaryRepository
	embeddingRepo storage.EmbeddingRepository
	jobQueue      *queue.Queue
	provider      ai.Provider
	extractor     extract.Extractor
	listCache     *cache.ListCache
	logger        *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	provider  ai.Provider
	extractor extract.Extractor
	inMemory  bool
}

// WithAIConfig sets the configuration used to build the AI provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing
// one from config. Useful for tests.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithExtractor supplies a content extractor. Defaults to the HTTP
// extractor with no transcript API configured.
func WithExtractor(extractor extract.Extractor) DatabaseOption {
	return func(o *databaseOptions) {
		o.extractor = extractor
	}
}

// WithInMemory opens the backend in memory, ignoring the file path.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}
	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create item repository
	itemRepo, err := badger.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create processing status repository
	statusRepo, err := badger.NewStatusRepository(backend)
	if err != nil {
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create summary repository
	summaryRepo, err := badger.NewSummaryRepository(backend)
	if err != nil {
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create embedding repository
	embeddingRepo, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		summaryRepo.Close()
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create the job queue on the same backend
	jobQueue, err := queue.New(backend, slog.Default())
	if err != nil {
		embeddingRepo.Close()
		summaryRepo.Close()
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			jobQueue.Close()
			embeddingRepo.Close()
			summaryRepo.Close()
			statusRepo.Close()
			itemRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	extractor := options.extractor
	if extractor == nil {
		extractor = extract.NewHTTPExtractor()
	}

	listCache, err := cache.NewListCache()
	if err != nil {
		provider.Close()
		jobQueue.Close()
		embeddingRepo.Close()
		summaryRepo.Close()
		statusRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:       backend,
		itemRepo:      itemRepo,
		statusRepo:    statusRepo,
		summaryRepo:   summaryRepo,
		embeddingRepo: embeddingRepo,
		jobQueue:      jobQueue,
		provider:      provider,
		extractor:     extractor,
		listCache:     listCache,
		logger:        slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	db.listCache.Close()

	if err := db.jobQueue.Close(); err != nil {
		db.logger.Error("error closing job queue", "err", err)
		return err
	}

	// Close repositories
	if err := db.embeddingRepo.Close(); err != nil {
		db.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := db.summaryRepo.Close(); err != nil {
		db.logger.Error("error closing summary repository", "err", err)
		return err
	}
	if err := db.statusRepo.Close(); err != nil {
		db.logger.Error("error closing status repository", "err", err)
		return err
	}
	if err := db.itemRepo.Close(); err != nil {
		db.logger.Error("error closing item repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ItemRepository() storage.ItemRepository {
	return db.itemRepo
}

func (db *Database) StatusRepository() storage.StatusRepository {
	return db.statusRepo
}

func (db *Database) SummaryRepository() storage.SummaryRepository {
	return db.summaryRepo
}

func (db *Database) EmbeddingRepository() storage.EmbeddingRepository {
	return db.embeddingRepo
}

func (db *Database) Queue() *queue.Queue {
	return db.jobQueue
}

func (db *Database) Cache() *cache.ListCache {
	return db.listCache
}

func (db *Database) NewOrchestrator() (*pipeline.Orchestrator, error) {
	return pipeline.NewOrchestrator(db.itemRepo, db.statusRepo, db.jobQueue)
}

// NewRunner builds a worker runner with the three stage handlers
// registered and ready to Start.
func (db *Database) NewRunner(opts ...queue.RunnerOption) (*queue.Runner, error) {
	extraction, err := pipeline.NewExtractionHandler(db.itemRepo, db.statusRepo, db.extractor, db.jobQueue)
	if err != nil {
		return nil, err
	}
	summarization, err := pipeline.NewSummarizationHandler(db.itemRepo, db.statusRepo, db.summaryRepo, db.provider.Summarizer(), db.jobQueue)
	if err != nil {
		return nil, err
	}
	embedding, err := pipeline.NewEmbeddingHandler(db.itemRepo, db.statusRepo, db.summaryRepo, db.embeddingRepo, db.provider.Embedder(), db.listCache)
	if err != nil {
		return nil, err
	}

	runner, err := queue.NewRunner(db.jobQueue, opts...)
	if err != nil {
		return nil, err
	}
	if err := runner.Register(core.StageExtraction, extraction); err != nil {
		return nil, err
	}
	if err := runner.Register(core.StageSummarization, summarization); err != nil {
		return nil, err
	}
	if err := runner.Register(core.StageEmbedding, embedding); err != nil {
		return nil, err
	}
	return runner, nil
}
