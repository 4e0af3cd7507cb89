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

package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/docagent/pkg/docs"
	"github.com/kadirpekel/docagent/pkg/task"
)

// ServiceParam names the task parameter that triggers enrichment.
const ServiceParam = "aws_service"

// EnrichmentSearchLimit is the result limit of the enrichment search.
const EnrichmentSearchLimit = 5

// enrich attaches the getting-started page of the task's AWS service.
// It adds at most one record and never fails: a failed search skips
// enrichment, a failed read still attaches the read placeholder.
func (a *Agent) enrich(ctx context.Context, t *task.Task) {
	v, ok := t.Parameters[ServiceParam]
	if !ok {
		return
	}
	svc := serviceName(v)

	phrase := svc + " getting started"
	results, err := a.docs.SearchDocumentation(ctx, phrase, EnrichmentSearchLimit)
	if err != nil || len(results) == 0 {
		slog.Debug("No documentation found for enrichment", "service", svc, "error", err)
		return
	}

	url := results[0].URL()
	if url == "" {
		slog.Debug("First search result has no url", "service", svc)
		return
	}

	content, _ := a.docs.ReadDocumentation(ctx, url, docs.DefaultMaxLength, docs.DefaultStartIndex)
	t.AddContext(task.ContextRecord{
		Type:    task.ContextTypeAWSDocumentation,
		Content: content,
		Source:  url,
	})
	slog.Info("Added AWS documentation context", "service", svc, "source", url)
}

// serviceName renders a parameter value the way it appeared in the JSON.
func serviceName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
