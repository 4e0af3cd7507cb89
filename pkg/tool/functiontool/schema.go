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

package functiontool

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects T into a flat object schema. Required fields come
// from `jsonschema:"required"` tags; nested structs are inlined.
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	// Expansion looks the root up by type name, which unnamed types lack.
	if t := reflect.TypeFor[T](); t.Name() != "" || (t.Kind() == reflect.Pointer && t.Elem().Name() != "") {
		reflector.ExpandedStruct = true
	}

	var full map[string]any
	if err := roundTrip(reflector.Reflect(new(T)), &full); err != nil {
		return nil, fmt.Errorf("failed to convert schema: %w", err)
	}

	if full["type"] != "object" {
		delete(full, "$schema")
		delete(full, "$id")
		return full, nil
	}

	out := map[string]any{"type": "object"}
	for _, key := range []string{"properties", "required", "additionalProperties"} {
		if v, ok := full[key]; ok && v != nil {
			out[key] = v
		}
	}
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out, nil
}

// decodeArgs converts model-produced arguments into the typed struct.
func decodeArgs(args map[string]any, target any) error {
	if len(args) == 0 {
		return nil
	}
	return roundTrip(args, target)
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
