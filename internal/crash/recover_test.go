/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tailormark/internal/domain"
	"tailormark/internal/storage"
)

// Recover handles a panic, writes a report and an autosave, and calls the
// injected exit function instead of terminating the test.
func TestRecoverWritesReportAndAutosave(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	ws, err := storage.InitWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sheet := domain.Sheet{SchemaVersion: 1, ID: "ada", Unit: "cm", Values: map[string]string{"chest": "98"}}

	func() {
		defer Recover(&Target{Workspace: ws, Sheet: func() domain.Sheet { return sheet }})
		panic("boom")
	}()

	bdir := filepath.Join(ws.Root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	var report, save string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.HasPrefix(f.Name(), "ada.crash-"):
			save = filepath.Join(bdir, f.Name())
		}
	}
	if report == "" || save == "" {
		t.Fatalf("report=%q autosave=%q", report, save)
	}
	b, _ := os.ReadFile(report)
	if !bytes.Contains(b, []byte("Panic: boom")) || !bytes.Contains(b, []byte("Sheet: ada")) {
		t.Fatalf("report content: %s", b)
	}
	if s, err := storage.ReadSheetFile(save); err != nil || s.Values["chest"] != "98" {
		t.Fatalf("autosave unreadable: %v", err)
	}
	snap, ok, err := storage.LatestSnapshot(context.Background(), ws, "ada")
	if err != nil || !ok || snap.Reason != storage.ReasonCrash {
		t.Fatalf("crash snapshot = %+v %v %v", snap, ok, err)
	}
	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatal("exit called without panic")
	}
}
