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

package instruction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kadirpekel/docagent/pkg/task"
)

// Reserved names resolved from the task itself rather than its parameters.
const (
	KeyTaskName        = "task_name"
	KeyTaskDescription = "task_description"
)

// placeholderRegex matches one or more opening braces, content without
// braces, one or more closing braces.
var placeholderRegex = regexp.MustCompile(`{+[^{}]*}+`)

// State resolves placeholder values.
type State interface {
	Lookup(name string) (any, bool)
}

// MapState is a State backed by a map.
type MapState map[string]any

// Lookup implements State.
func (m MapState) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// TaskState exposes t's parameters plus task_name and task_description.
func TaskState(t *task.Task) State {
	state := MapState{}
	if t == nil {
		return state
	}
	for k, v := range t.Parameters {
		state[k] = v
	}
	state[KeyTaskName] = t.Name
	state[KeyTaskDescription] = t.Description
	return state
}

// Template is an instruction with placeholders.
type Template struct {
	raw string
}

// New creates a Template.
func New(template string) *Template {
	return &Template{raw: template}
}

// Raw returns the unrendered template.
func (t *Template) Raw() string {
	return t.raw
}

// Render resolves every placeholder from state.
func (t *Template) Render(state State) (string, error) {
	return Inject(state, t.raw)
}

// Inject resolves the placeholders of template from state. A missing
// required value is an error.
func Inject(state State, template string) (string, error) {
	if template == "" {
		return "", nil
	}

	var result strings.Builder
	lastIndex := 0
	for _, m := range placeholderRegex.FindAllStringIndex(template, -1) {
		start, end := m[0], m[1]
		result.WriteString(template[lastIndex:start])

		replacement, err := replaceMatch(state, template[start:end])
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)
		lastIndex = end
	}
	result.WriteString(template[lastIndex:])
	return result.String(), nil
}

func replaceMatch(state State, match string) (string, error) {
	name := strings.TrimSpace(strings.Trim(match, "{}"))

	optional := false
	if strings.HasSuffix(name, "?") {
		optional = true
		name = strings.TrimSuffix(name, "?")
	}

	if !isIdentifier(name) {
		return match, nil
	}

	var (
		value any
		ok    bool
	)
	if state != nil {
		value, ok = state.Lookup(name)
	}
	if !ok {
		if optional {
			return "", nil
		}
		return "", fmt.Errorf("instruction placeholder %q has no value", name)
	}
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}

// isIdentifier reports whether s starts with a letter or underscore,
// followed by letters, digits or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
		} else if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// HasPlaceholders reports whether template contains any placeholder.
func HasPlaceholders(template string) bool {
	for _, m := range placeholderRegex.FindAllString(template, -1) {
		name := strings.TrimSuffix(strings.TrimSpace(strings.Trim(m, "{}")), "?")
		if isIdentifier(name) {
			return true
		}
	}
	return false
}

// ListPlaceholders returns the distinct placeholder names in template.
func ListPlaceholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRegex.FindAllString(template, -1) {
		name := strings.TrimSuffix(strings.TrimSpace(strings.Trim(m, "{}")), "?")
		if !isIdentifier(name) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
