// Copyright 2025 Google LLC
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

package evaluation

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("evaluation: not found")

	// ErrAlreadyExists indicates a record with the same id already exists.
	ErrAlreadyExists = errors.New("evaluation: already exists")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.New("evaluation: invalid input")
)

// Storage defines persistence for evaluation records.
//
// Records are self-contained documents; implementations need no
// multi-document transactional guarantees. Insert and Update are only ever
// called by the evaluation manager (single-writer invariant); the Find
// methods are safe for concurrent readers.
type Storage interface {
	// Insert stores a new record. It fails with ErrAlreadyExists if a
	// record with the same ID is present.
	Insert(ctx context.Context, rec *Record) error

	// Update replaces the stored record with the same ID. It fails with
	// ErrNotFound if no such record exists.
	Update(ctx context.Context, rec *Record) error

	// FindByID retrieves a record by evaluation id.
	FindByID(ctx context.Context, id string) (*Record, error)

	// FindBySession returns records for a session, newest first. A
	// non-positive limit returns all of them.
	FindBySession(ctx context.Context, sessionID string, limit int) ([]Record, error)

	// FindByUser returns all records for a user across sessions.
	FindByUser(ctx context.Context, userID string) ([]Record, error)
}
