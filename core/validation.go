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


package core

import "fmt"

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//   - Title must not be empty
//
// NOT validated (populated by the pipeline):
//   - FullContent and ExtractionMethod (empty until extraction runs)
//   - ID (0 is valid; storage derives it from the URL)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyURL)
	}

	if item.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyTitle)
	}

	return nil
}

// ValidateRecord validates a ProcessingRecord according to domain rules.
//
// This is the single validation point for status values: the storage layer
// calls it on every write, so handler code never has to re-check.
func ValidateRecord(record *ProcessingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ItemId == 0 {
		return fmt.Errorf("%w: item id is zero", ErrInvalidRecord)
	}

	if !record.Status.Valid() {
		return fmt.Errorf("%w: %w: value %d", ErrInvalidRecord, ErrInvalidStatus, record.Status)
	}

	// CurrentStage 0 means "not yet attempted" and is allowed.
	if record.CurrentStage != 0 && !record.CurrentStage.Valid() {
		return fmt.Errorf("%w: %w: value %d", ErrInvalidRecord, ErrInvalidStage, record.CurrentStage)
	}

	if record.RetryCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNegativeRetryCount)
	}

	return nil
}
