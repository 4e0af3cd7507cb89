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

// Package instruction renders system instruction templates.
//
// Placeholders use curly braces:
//
//	{name}   - required, rendering fails when the value is missing
//	{name?}  - optional, empty string when missing
//
// Names are identifiers. Anything else in braces, such as a JSON snippet,
// is left as-is. Values come from a State; TaskState exposes a task's
// name, description and parameters:
//
//	tmpl := instruction.New("Answer questions about {aws_service?}.")
//	text, err := tmpl.Render(instruction.TaskState(t))
package instruction
