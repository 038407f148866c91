/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxPerKey: 10})
	t0 := time.Now()
	m.Push(Snapshot{Key: "s", Blob: []byte("v0"), TS: t0})
	m.Push(Snapshot{Key: "s", Blob: []byte("v1"), TS: t0.Add(time.Second)})
	// current state is v2
	s, ok := m.Undo("s", []byte("v2"))
	if !ok || string(s.Blob) != "v1" {
		t.Fatalf("undo = %q, %v; want v1", s.Blob, ok)
	}
	s, ok = m.Undo("s", []byte("v1"))
	if !ok || string(s.Blob) != "v0" {
		t.Fatalf("undo = %q, %v; want v0", s.Blob, ok)
	}
	if _, ok := m.Undo("s", []byte("v0")); ok {
		t.Fatalf("undo past the start should fail")
	}
	s, ok = m.Redo("s", []byte("v0"))
	if !ok || string(s.Blob) != "v1" {
		t.Fatalf("redo = %q, %v; want v1", s.Blob, ok)
	}
	s, ok = m.Redo("s", []byte("v1"))
	if !ok || string(s.Blob) != "v2" {
		t.Fatalf("redo = %q, %v; want v2", s.Blob, ok)
	}
	if m.CanRedo("s") || !m.CanUndo("s") {
		t.Fatalf("CanUndo/CanRedo mismatch")
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{})
	m.Push(Snapshot{Key: "s", Blob: []byte("a"), TS: time.Now()})
	m.Undo("s", []byte("b"))
	if !m.CanRedo("s") {
		t.Fatalf("expected redo after undo")
	}
	m.Push(Snapshot{Key: "s", Blob: []byte("a"), TS: time.Now()})
	if m.CanRedo("s") {
		t.Fatalf("new change must clear redo")
	}
}

func TestCoalesceKeepsFirst(t *testing.T) {
	m := NewManager(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	if !m.Push(Snapshot{Key: "s", Blob: []byte("1"), TS: t0}) {
		t.Fatalf("first push must be kept")
	}
	if m.Push(Snapshot{Key: "s", Blob: []byte("2"), TS: t0.Add(10 * time.Millisecond)}) {
		t.Fatalf("burst push should coalesce")
	}
	if _, _, n := m.Stats(); n != 1 {
		t.Fatalf("entries = %d, want 1", n)
	}
	s, _ := m.Undo("s", []byte("3"))
	if string(s.Blob) != "1" {
		t.Fatalf("coalesced undo restored %q, want state before the burst", s.Blob)
	}
}

func TestCapsPerKeyAndGlobal(t *testing.T) {
	m := NewManager(Config{MaxPerKey: 2})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Push(Snapshot{Key: "a", Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	if b, _, n := m.Stats(); n != 2 || b != 10 {
		t.Fatalf("per-key cap: entries=%d bytes=%d", n, b)
	}

	g := NewManager(Config{MaxBytes: 12})
	g.Push(Snapshot{Key: "old", Blob: []byte("xxxxx"), TS: t0})
	g.Push(Snapshot{Key: "new", Blob: []byte("xxxxx"), TS: t0.Add(time.Second)})
	g.Push(Snapshot{Key: "new", Blob: []byte("xxxxx"), TS: t0.Add(2 * time.Second)})
	if g.CanUndo("old") {
		t.Fatalf("oldest entry across sheets should be pruned first")
	}
	if b, keys, _ := g.Stats(); b != 10 || keys != 1 {
		t.Fatalf("after prune bytes=%d keys=%d", b, keys)
	}
}

func TestClear(t *testing.T) {
	m := NewManager(Config{})
	m.Push(Snapshot{Key: "s", Blob: []byte("abc"), TS: time.Now()})
	m.Clear("s")
	if b, keys, n := m.Stats(); b != 0 || keys != 0 || n != 0 {
		t.Fatalf("stats after clear: %d %d %d", b, keys, n)
	}
}
