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

package llmagent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/docagent/pkg/task"
)

// buildPrompt renders the task as the opening user message.
func (a *Agent) buildPrompt(t *task.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Task: %s\n", t.Name)
	if t.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", t.Description)
	}

	params, err := json.MarshalIndent(t.Parameters, "", "  ")
	if err != nil {
		params = []byte(fmt.Sprintf("%v", t.Parameters))
	}
	fmt.Fprintf(&sb, "\nParameters:\n%s\n", params)

	if tmpl, ok := a.findTemplate(t.Name); ok && len(tmpl.Parameters) > 0 {
		names := make([]string, 0, len(tmpl.Parameters))
		for name := range tmpl.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)

		sb.WriteString("\nExpected parameter types:\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "- %s: %s\n", name, tmpl.Parameters[name])
		}
	}

	if len(t.Context) > 0 {
		sb.WriteString("\nBackground documentation:\n")
		for i, rec := range t.Context {
			fmt.Fprintf(&sb, "\n[%d] %s", i+1, rec.Type)
			if rec.Source != "" {
				fmt.Fprintf(&sb, " (source: %s)", rec.Source)
			}
			sb.WriteString("\n")
			sb.WriteString(strings.TrimSpace(rec.Content))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
