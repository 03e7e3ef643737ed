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


// Package openai implements the ai interfaces against OpenAI-compatible APIs.
//
// Any service speaking the OpenAI wire format works: Ollama, LocalAI, vLLM,
// or OpenAI itself. The summarizer requests JSON-mode output and repairs the
// common formatting mistakes local models make; the embedder validates that
// returned vectors match the configured dimensionality.
package openai
