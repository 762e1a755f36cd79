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

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loanwise/agenteval/evaluation"
)

// evaluationRow is the relational shape of an evaluation record. Nested
// structures (tool calls, context, scores, metadata) live in JSON columns
// so queries stay on the indexed scalar fields.
type evaluationRow struct {
	ID           string `gorm:"primaryKey"`
	SessionID    string `gorm:"index"`
	UserID       string `gorm:"index"`
	InvocationID string

	UserInput   string
	AgentOutput string
	ToolCalls   toolCallsColumn
	Context     stringsColumn
	Metadata    metadataColumn

	Status         string `gorm:"index"`
	Scores         scoresColumn
	OverallPassed  bool
	CriticalIssues stringsColumn

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       string
}

func (evaluationRow) TableName() string { return "evaluations" }

// DatabaseStorage persists evaluation records in SQLite via GORM.
type DatabaseStorage struct {
	db *gorm.DB
}

var _ evaluation.Storage = (*DatabaseStorage)(nil)

// NewDatabaseStorage opens (or creates) the SQLite database at path and
// migrates the evaluations table. Use ":memory:" for an ephemeral store.
func NewDatabaseStorage(path string) (*DatabaseStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: opening database %q: %w", path, err)
	}
	if err := db.AutoMigrate(&evaluationRow{}); err != nil {
		return nil, fmt.Errorf("storage: migrating schema: %w", err)
	}
	return &DatabaseStorage{db: db}, nil
}

// Insert stores a new evaluation record.
func (s *DatabaseStorage) Insert(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ID == "" {
		return evaluation.ErrInvalidInput
	}

	err := s.db.WithContext(ctx).Create(toRow(rec)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return evaluation.ErrAlreadyExists
		}
		return fmt.Errorf("storage: inserting record %q: %w", rec.ID, err)
	}
	return nil
}

// Update replaces an existing record.
func (s *DatabaseStorage) Update(ctx context.Context, rec *evaluation.Record) error {
	if rec == nil || rec.ID == "" {
		return evaluation.ErrInvalidInput
	}

	res := s.db.WithContext(ctx).Model(&evaluationRow{}).
		Where("id = ?", rec.ID).
		Select("*").
		Updates(toRow(rec))
	if res.Error != nil {
		return fmt.Errorf("storage: updating record %q: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return evaluation.ErrNotFound
	}
	return nil
}

// FindByID retrieves a record by its evaluation ID.
func (s *DatabaseStorage) FindByID(ctx context.Context, id string) (*evaluation.Record, error) {
	var row evaluationRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, evaluation.ErrNotFound
		}
		return nil, fmt.Errorf("storage: finding record %q: %w", id, err)
	}
	return fromRow(&row), nil
}

// FindBySession returns the session's records, newest first. A limit of
// zero or less returns all of them.
func (s *DatabaseStorage) FindBySession(ctx context.Context, sessionID string, limit int) ([]evaluation.Record, error) {
	q := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []evaluationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storage: listing session %q: %w", sessionID, err)
	}
	return fromRows(rows), nil
}

// FindByUser returns every record for a user, newest first.
func (s *DatabaseStorage) FindByUser(ctx context.Context, userID string) ([]evaluation.Record, error) {
	var rows []evaluationRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: listing user %q: %w", userID, err)
	}
	return fromRows(rows), nil
}

// Close releases the underlying database handle.
func (s *DatabaseStorage) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func toRow(rec *evaluation.Record) *evaluationRow {
	return &evaluationRow{
		ID:             rec.ID,
		SessionID:      rec.SessionID,
		UserID:         rec.UserID,
		InvocationID:   rec.InvocationID,
		UserInput:      rec.UserInput,
		AgentOutput:    rec.AgentOutput,
		ToolCalls:      toolCallsColumn{Val: rec.ToolCalls},
		Context:        stringsColumn{Val: rec.Context},
		Metadata:       metadataColumn{Val: rec.Metadata},
		Status:         string(rec.Status),
		Scores:         scoresColumn{Val: rec.Scores},
		OverallPassed:  rec.OverallPassed,
		CriticalIssues: stringsColumn{Val: rec.CriticalIssues},
		CreatedAt:      rec.CreatedAt,
		StartedAt:      rec.StartedAt,
		CompletedAt:    rec.CompletedAt,
		Error:          rec.Error,
	}
}

func fromRow(row *evaluationRow) *evaluation.Record {
	return &evaluation.Record{
		ID:             row.ID,
		SessionID:      row.SessionID,
		UserID:         row.UserID,
		InvocationID:   row.InvocationID,
		UserInput:      row.UserInput,
		AgentOutput:    row.AgentOutput,
		ToolCalls:      row.ToolCalls.Val,
		Context:        row.Context.Val,
		Metadata:       row.Metadata.Val,
		Status:         evaluation.Status(row.Status),
		Scores:         row.Scores.Val,
		OverallPassed:  row.OverallPassed,
		CriticalIssues: row.CriticalIssues.Val,
		CreatedAt:      row.CreatedAt,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
		Error:          row.Error,
	}
}

func fromRows(rows []evaluationRow) []evaluation.Record {
	out := make([]evaluation.Record, 0, len(rows))
	for i := range rows {
		out = append(out, *fromRow(&rows[i]))
	}
	return out
}

// isUniqueViolation matches the SQLite unique-constraint error text, which
// the driver does not surface as a typed error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
