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

// Package storage provides result store implementations behind the
// evaluation.Storage interface: an in-memory store for tests and
// development, and a SQLite-backed store for durable results.
package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/loanwise/agenteval/evaluation"
)

// MemoryStorage provides in-memory storage for evaluation records.
// This implementation is suitable for testing and development.
type MemoryStorage struct {
	mu sync.RWMutex

	// records maps evaluation ID -> Record
	records map[string]*evaluation.Record

	// bySession maps sessionID -> []evaluation ID, insertion order
	bySession map[string][]string

	// byUser maps userID -> []evaluation ID, insertion order
	byUser map[string][]string
}

// NewMemoryStorage creates a new in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:   make(map[string]*evaluation.Record),
		bySession: make(map[string][]string),
		byUser:    make(map[string][]string),
	}
}

var _ evaluation.Storage = (*MemoryStorage)(nil)

// Insert stores a new evaluation record.
func (m *MemoryStorage) Insert(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ID == "" {
		return evaluation.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; exists {
		return evaluation.ErrAlreadyExists
	}

	m.records[rec.ID] = copyRecord(rec)
	m.bySession[rec.SessionID] = append(m.bySession[rec.SessionID], rec.ID)
	if rec.UserID != "" {
		m.byUser[rec.UserID] = append(m.byUser[rec.UserID], rec.ID)
	}
	return nil
}

// Update replaces an existing record.
func (m *MemoryStorage) Update(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ID == "" {
		return evaluation.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; !exists {
		return evaluation.ErrNotFound
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

// FindByID retrieves a record by its evaluation ID.
func (m *MemoryStorage) FindByID(ctx context.Context, id string) (*evaluation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[id]
	if !exists {
		return nil, evaluation.ErrNotFound
	}
	return copyRecord(rec), nil
}

// FindBySession returns the session's records, newest first. A limit of
// zero or less returns all of them.
func (m *MemoryStorage) FindBySession(ctx context.Context, sessionID string, limit int) ([]evaluation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.bySession[sessionID]
	out := make([]evaluation.Record, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *copyRecord(m.records[ids[i]]))
	}
	return out, nil
}

// FindByUser returns every record for a user, newest first.
func (m *MemoryStorage) FindByUser(ctx context.Context, userID string) ([]evaluation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byUser[userID]
	out := make([]evaluation.Record, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, *copyRecord(m.records[ids[i]]))
	}
	return out, nil
}

// copyRecord deep copies a record so callers cannot mutate stored state.
func copyRecord(rec *evaluation.Record) *evaluation.Record {
	copied := *rec
	copied.ToolCalls = slices.Clone(rec.ToolCalls)
	copied.Context = slices.Clone(rec.Context)
	copied.Scores = slices.Clone(rec.Scores)
	copied.CriticalIssues = slices.Clone(rec.CriticalIssues)
	if rec.Metadata != nil {
		copied.Metadata = make(map[string]any, len(rec.Metadata))
		for k, v := range rec.Metadata {
			copied.Metadata[k] = v
		}
	}
	if rec.StartedAt != nil {
		t := *rec.StartedAt
		copied.StartedAt = &t
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}
