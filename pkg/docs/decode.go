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

package docs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

var timeNow = time.Now

// decodeDocuments extracts a list of records. structuredContent wins over
// text; a {"result": ...} wrapper is removed. Text content is either one
// JSON array or one JSON object per content item.
func decodeDocuments(res *mcp.CallToolResult) ([]Document, error) {
	if res.StructuredContent != nil {
		return documentsFrom(unwrapResult(res.StructuredContent))
	}

	texts := textItems(res)
	switch len(texts) {
	case 0:
		return []Document{}, nil
	case 1:
		var v any
		if err := json.Unmarshal([]byte(texts[0]), &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		return documentsFrom(unwrapResult(v))
	}

	docs := make([]Document, 0, len(texts))
	for _, t := range texts {
		var d Document
		if err := json.Unmarshal([]byte(t), &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func documentsFrom(v any) ([]Document, error) {
	switch val := v.(type) {
	case nil:
		return []Document{}, nil
	case []any:
		docs := make([]Document, 0, len(val))
		for i, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T", ErrUnexpectedPayload, i, item)
			}
			docs = append(docs, Document(m))
		}
		return docs, nil
	case map[string]any:
		return []Document{Document(val)}, nil
	case string, bool, float64, json.Number:
		return nil, fmt.Errorf("%w: got %T", ErrUnexpectedPayload, v)
	default:
		// Typed Go values from in-process servers.
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
		}
		switch generic.(type) {
		case []any, map[string]any, nil:
			return documentsFrom(generic)
		}
		return nil, fmt.Errorf("%w: got %T", ErrUnexpectedPayload, v)
	}
}

// decodeText extracts page content. Text items are concatenated; a string
// in structuredContent is used when there is no text.
func decodeText(res *mcp.CallToolResult) (string, error) {
	if texts := textItems(res); len(texts) > 0 {
		return strings.Join(texts, ""), nil
	}
	switch v := unwrapResult(res.StructuredContent).(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: got %T", ErrUnexpectedPayload, v)
	}
}

func unwrapResult(v any) any {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		if inner, ok := m["result"]; ok {
			return inner
		}
	}
	return v
}

func textItems(res *mcp.CallToolResult) []string {
	var out []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			out = append(out, tc.Text)
		}
	}
	return out
}

func joinText(res *mcp.CallToolResult) string {
	return strings.Join(textItems(res), "\n")
}
