/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a report file and a last-chance save of
// the sheet being edited.
package crash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"tailormark/internal/domain"
	applog "tailormark/internal/log"
	"tailormark/internal/storage"
	"tailormark/internal/telemetry"
	"tailormark/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Target names what to save when a panic hits. Both fields may be nil.
type Target struct {
	Workspace *storage.Workspace
	// Sheet returns the in-memory sheet, typically Store.Get.
	Sheet func() domain.Sheet
}

// Recover captures a panic, logs it with a stacktrace, writes a report file
// and saves the current sheet next to the backups.
//
// Usage: defer crash.Recover(&crash.Target{Workspace: ws, Sheet: store.Get})
func Recover(t *Target) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(t, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if t != nil && t.Workspace != nil && t.Sheet != nil {
		if path, err := autosave(t.Workspace, t.Sheet()); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written", slog.String("path", path))
		}
	}
	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// autosave writes the sheet as a plain JSON file into backups and, when
// the index opens, as a crash snapshot too. The file does not depend on
// SQLite so it survives a broken index.
func autosave(ws *storage.Workspace, s domain.Sheet) (string, error) {
	if s.ID == "" {
		return "", fmt.Errorf("sheet has no id")
	}
	dir := filepath.Join(ws.Root, storage.BackupsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(s.ID), time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := storage.SaveSnapshot(ctx, ws, s, storage.ReasonCrash, time.Now()); err != nil {
		applog.WithComponent("crash").Warn("crash snapshot not indexed", slog.Any("err", err))
	}
	return path, nil
}

func writeReport(t *Target, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if t != nil && t.Workspace != nil && t.Workspace.Root != "" {
		dir = filepath.Join(t.Workspace.Root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Tailormark Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil && t.Workspace != nil {
		_, _ = fmt.Fprintf(&buf, "Workspace: %s\n", t.Workspace.Root)
	}
	if t != nil && t.Sheet != nil {
		_, _ = fmt.Fprintf(&buf, "Sheet: %s\n", t.Sheet().ID)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	telemetry.UploadCrash(buf.Bytes())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
