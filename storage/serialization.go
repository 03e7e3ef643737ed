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


package storage

import (
	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	var id core.ID
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalItem serializes an Item to bytes.
func MarshalItem(item *core.Item) []byte {
	buf := make([]byte, core.ItemMUS.Size(*item))
	core.ItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalItem deserializes an Item from bytes.
func UnmarshalItem(data []byte) (*core.Item, error) {
	item, _, err := core.ItemMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MarshalProcessingRecord serializes a ProcessingRecord to bytes.
func MarshalProcessingRecord(record *core.ProcessingRecord) []byte {
	buf := make([]byte, core.ProcessingRecordMUS.Size(*record))
	core.ProcessingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalProcessingRecord deserializes a ProcessingRecord from bytes.
func UnmarshalProcessingRecord(data []byte) (*core.ProcessingRecord, error) {
	record, _, err := core.ProcessingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalSummary serializes a Summary to bytes.
func MarshalSummary(summary *core.Summary) []byte {
	buf := make([]byte, core.SummaryMUS.Size(*summary))
	core.SummaryMUS.Marshal(*summary, buf)
	return buf
}

// UnmarshalSummary deserializes a Summary from bytes.
func UnmarshalSummary(data []byte) (*core.Summary, error) {
	summary, _, err := core.SummaryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(embedding *core.Embedding) []byte {
	buf := make([]byte, core.EmbeddingMUS.Size(*embedding))
	core.EmbeddingMUS.Marshal(*embedding, buf)
	return buf
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	embedding, _, err := core.EmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

// MarshalJob serializes a Job to bytes.
func MarshalJob(job *core.Job) []byte {
	buf := make([]byte, core.JobMUS.Size(*job))
	core.JobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalJob deserializes a Job from bytes.
func UnmarshalJob(data []byte) (*core.Job, error) {
	job, _, err := core.JobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
