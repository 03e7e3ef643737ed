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


// Package ai defines the AI service interfaces used by the pipeline.
//
// The package provides three abstractions:
//
//   - Summarizer: structured summarization of content text
//   - Embedder: vector embedding generation for similarity search
//   - Provider: aggregated lifecycle management of both services
//
// Concrete implementations live in subpackages:
//
//   - openai: OpenAI-compatible API clients (Ollama, LocalAI, vLLM, etc.)
//   - mock: deterministic test doubles
//
// Constructors in implementation packages return these interfaces rather
// than concrete types so consumers never couple to a specific backend.
package ai
