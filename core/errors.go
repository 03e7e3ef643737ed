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

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidRecord indicates a ProcessingRecord failed validation.
	ErrInvalidRecord = errors.New("invalid processing record")

	// ErrInvalidStatus indicates a Status value outside the enum.
	ErrInvalidStatus = errors.New("invalid processing status")

	// ErrInvalidStage indicates a Stage value outside the enum.
	ErrInvalidStage = errors.New("invalid pipeline stage")

	// ErrEmptyURL indicates the item URL field is empty.
	ErrEmptyURL = errors.New("item URL cannot be empty")

	// ErrEmptyTitle indicates the item Title field is empty.
	ErrEmptyTitle = errors.New("item title cannot be empty")

	// ErrNegativeRetryCount indicates a retry count below zero.
	ErrNegativeRetryCount = errors.New("retry count cannot be negative")

	// ErrCorruptListLength indicates a decoded list length that cannot
	// fit in the remaining input.
	ErrCorruptListLength = errors.New("corrupt list length")
)
