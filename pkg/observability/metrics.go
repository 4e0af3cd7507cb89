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

// Package observability collects Prometheus metrics for a task run.
//
// Metrics live on a private registry so that a one-shot CLI run can dump
// them to a node-exporter textfile at exit. A nil *Metrics is valid and
// records nothing.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kadirpekel/docagent/pkg/model"
)

const namespace = "docagent"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	tasksTotal       *prometheus.CounterVec
	llmTokensTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total documentation server calls by tool and status.",
			},
			[]string{"tool", "status"},
		),
		toolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Documentation server call duration in seconds by tool.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Total processed tasks by status.",
			},
			[]string{"status"},
		),
		llmTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Total LLM tokens by kind (prompt, completion).",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(
		m.toolCallsTotal,
		m.toolCallDuration,
		m.tasksTotal,
		m.llmTokensTotal,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCall records one documentation server call.
func (m *Metrics) ObserveCall(op string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(op, statusOf(err)).Inc()
	m.toolCallDuration.WithLabelValues(op).Observe(seconds)
}

// ObserveUsage records the token usage of one model turn.
func (m *Metrics) ObserveUsage(usage model.Usage) {
	if m == nil {
		return
	}
	if usage.PromptTokens > 0 {
		m.llmTokensTotal.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		m.llmTokensTotal.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
	}
}

// ObserveTask records the outcome of one processed task.
func (m *Metrics) ObserveTask(err error) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(statusOf(err)).Inc()
}

// WriteToTextfile writes the registry in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
