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

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit_SimpleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := Init(slog.LevelInfo, &buf, "simple")

	l.Info("Saved result", "path", "output/x_result.json")
	l.Debug("hidden")

	out := buf.String()
	assert.Equal(t, "INFO Saved result path=output/x_result.json\n", out)
}

func TestInit_VerboseFormatHasTimestamp(t *testing.T) {
	var buf bytes.Buffer
	l := Init(slog.LevelDebug, &buf, "verbose")

	l.With("task", "t1").Warn("slow")

	line := buf.String()
	assert.Contains(t, line, "WARN slow task=t1")
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} `, line)
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := Init(slog.LevelError, &buf, "simple")

	l.Info("dropped")
	l.Error("kept")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "ERROR kept")
}

func TestInit_KeepsModuleRecordsAtEveryLevel(t *testing.T) {
	for _, level := range []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		t.Run(level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := Init(level, &buf, "simple")

			l.Error("method call")
			slog.Error("package call")

			assert.Contains(t, buf.String(), "ERROR method call")
			assert.Contains(t, buf.String(), "ERROR package call")
		})
	}
}

func TestInit_DropsThirdPartyRecordsAboveDebug(t *testing.T) {
	foreignPC := reflect.ValueOf(strings.ToUpper).Pointer() + 1
	record := slog.NewRecord(time.Now(), slog.LevelError, "from a dependency", foreignPC)

	var buf bytes.Buffer
	l := Init(slog.LevelInfo, &buf, "simple")
	require.NoError(t, l.Handler().Handle(context.Background(), record))
	assert.Empty(t, buf.String())

	buf.Reset()
	l = Init(slog.LevelDebug, &buf, "simple")
	require.NoError(t, l.Handler().Handle(context.Background(), record))
	assert.Contains(t, buf.String(), "from a dependency")
}

func TestFromModule(t *testing.T) {
	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	assert.True(t, fromModule(pcs[0]))
	assert.True(t, fromModule(0))
	assert.False(t, fromModule(reflect.ValueOf(strings.ToUpper).Pointer()+1))
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docagent.log")

	f, cleanup, err := OpenLogFile(path)
	require.NoError(t, err)
	defer cleanup()

	l := Init(slog.LevelInfo, f, "simple")
	l.Info("to file")

	assert.False(t, isTerminal(f))
}
