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


package badger

import "github.com/JoelJohnsonThomas/nexus-pipeline/storage"

// MemoryRepositories bundles the in-memory repositories used by tests.
type MemoryRepositories struct {
	Items      storage.ItemRepository
	Statuses   storage.StatusRepository
	Summaries  storage.SummaryRepository
	Embeddings storage.EmbeddingRepository
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Returns the repositories and the shared backend.
// Caller must close the backend when done.
func NewMemoryRepositories() (*MemoryRepositories, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	items, err := NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	statuses, err := NewStatusRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	summaries, err := NewSummaryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	embeddings, err := NewEmbeddingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return &MemoryRepositories{
		Items:      items,
		Statuses:   statuses,
		Summaries:  summaries,
		Embeddings: embeddings,
	}, backend, nil
}
