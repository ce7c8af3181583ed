/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a report file, a last autosave and a clean exit.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "cinepitch/internal/log"
	"cinepitch/internal/telemetry"
	"cinepitch/internal/version"
)

// exitFn is swapped in tests so Recover does not terminate the test binary.
var exitFn = os.Exit

// flushTimeout bounds the last-chance autosave.
const flushTimeout = 3 * time.Second

// Flusher persists pending work. The autosave controller satisfies it.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Guard carries what Recover needs; any field may be zero.
type Guard struct {
	ReportDir string
	Autosave  Flusher
	Telemetry *telemetry.Client
}

// Recover captures a panic, writes a crash report, flushes the autosave and exits with code 2.
//
// Usage: defer g.Recover()
func (g Guard) Recover() {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	report := buildReport(r, stack)
	path, err := writeReport(g.ReportDir, report)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err), slog.String("path", path))
	}
	g.Telemetry.UploadCrash(report)

	if g.Autosave != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := g.Autosave.Flush(ctx); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written")
		}
		cancel()
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", path)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func buildReport(panicVal any, stack []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "CinePitch Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)
	return buf.Bytes()
}

// writeReport stores the report under dir, falling back to the OS temp dir.
func writeReport(dir string, report []byte) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer f.Close()
	if _, err := f.Write(report); err != nil {
		return path, err
	}
	return path, f.Sync()
}
