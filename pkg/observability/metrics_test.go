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

package observability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/docagent/pkg/model"
)

func TestObserveCall(t *testing.T) {
	m := NewMetrics()
	m.ObserveCall("search_documentation", nil, 0.2)
	m.ObserveCall("search_documentation", errors.New("down"), 0.1)
	m.ObserveCall("read_documentation", nil, 0.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("search_documentation", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("search_documentation", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("read_documentation", StatusSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.toolCallDuration))
}

func TestObserveUsageAndTask(t *testing.T) {
	m := NewMetrics()
	m.ObserveUsage(model.Usage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14})
	m.ObserveUsage(model.Usage{PromptTokens: 5})
	m.ObserveTask(nil)
	m.ObserveTask(errors.New("boom"))

	assert.Equal(t, 15.0, testutil.ToFloat64(m.llmTokensTotal.WithLabelValues("prompt")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.llmTokensTotal.WithLabelValues("completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues(StatusError)))
}

func TestWriteToTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveTask(nil)

	path := filepath.Join(t.TempDir(), "docagent.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docagent_tasks_total{status="success"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCall("x", nil, 1)
		m.ObserveUsage(model.Usage{PromptTokens: 1})
		m.ObserveTask(nil)
	})
	assert.NoError(t, m.WriteToTextfile("/nonexistent/file"))
	assert.Nil(t, m.Registry())
}
