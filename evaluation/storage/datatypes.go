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
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/loanwise/agenteval/evaluation"
)

// jsonColumn stores an arbitrary value as a JSON text column, handling
// dialect-specific column types.
type jsonColumn[T any] struct {
	Val T
}

func (jsonColumn[T]) GormDataType() string {
	return "text"
}

func (jsonColumn[T]) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "LONGTEXT"
	default:
		return ""
	}
}

// Value implements driver.Valuer.
func (c jsonColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.Val)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *jsonColumn[T]) Scan(value any) error {
	if value == nil {
		var zero T
		c.Val = zero
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSON value: %T", value)
	}

	if len(bytes) == 0 {
		var zero T
		c.Val = zero
		return nil
	}
	return json.Unmarshal(bytes, &c.Val)
}

type (
	toolCallsColumn = jsonColumn[[]evaluation.ToolCall]
	stringsColumn   = jsonColumn[[]string]
	metadataColumn  = jsonColumn[map[string]any]
	scoresColumn    = jsonColumn[[]evaluation.ScoreResult]
)
