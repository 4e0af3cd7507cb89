// Copyright 2025 Kadir Pekel
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

package task

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Result is the persisted document for one task run.
type Result struct {
	Task     string         `json:"task"`
	Output   any            `json:"output"`
	Metadata map[string]any `json:"metadata"`
}

// Store writes task results as JSON files under a directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. It creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the result file path for a task name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+"_result.json")
}

// Save writes <dir>/<name>_result.json, replacing any previous file, and
// returns its path.
func (s *Store) Save(name string, out *Output) (string, error) {
	if out == nil {
		out = &Output{}
	}
	metadata := out.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	data, err := json.MarshalIndent(Result{
		Task:     name,
		Output:   out.Output,
		Metadata: metadata,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result for task %s: %w", name, err)
	}

	path := s.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result %s: %w", path, err)
	}

	slog.Info("Saved task result", "task", name, "path", path)
	return path, nil
}

// Load reads a previously saved result.
func (s *Store) Load(name string) (*Result, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result for task %s: %w", name, err)
	}
	return &r, nil
}
