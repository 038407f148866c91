/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps in-memory undo/redo history per sheet. History entries
// are opaque state blobs captured before each committed change.
package undo

import (
	"sync"
	"time"
)

// Snapshot is a reversible state blob for one sheet.
type Snapshot struct {
	Key  string // sheet id
	Blob []byte
	TS   time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; the oldest entries across all sheets are pruned when exceeded.
	MaxBytes int
	// MaxPerKey limits the undo depth per sheet (0 means unlimited).
	MaxPerKey int
	// MinInterval coalesces pushes for the same sheet: a push within the
	// interval of the previous one is dropped so a burst of keystrokes
	// undoes in one step back to the state before the burst.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex

	undo map[string][]Snapshot
	redo map[string][]Snapshot

	undoBytes int
	lastPush  map[string]time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{
		cfg:      cfg,
		undo:     make(map[string][]Snapshot),
		redo:     make(map[string][]Snapshot),
		lastPush: make(map[string]time.Time),
	}
}

// Push records the state a sheet had before a change and clears its redo
// history. It reports whether an entry was added (false when coalesced).
func (m *Manager) Push(s Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Key] = nil
	last, seen := m.lastPush[s.Key]
	m.lastPush[s.Key] = s.TS
	if seen && m.cfg.MinInterval > 0 && s.TS.Sub(last) < m.cfg.MinInterval && len(m.undo[s.Key]) > 0 {
		return false
	}
	m.undo[s.Key] = append(m.undo[s.Key], s)
	m.undoBytes += len(s.Blob)
	m.enforceCapsLocked(s.Key)
	return true
}

// Undo returns the state to restore for key and moves current onto the redo stack.
func (m *Manager) Undo(key string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[key] = stack[:len(stack)-1]
	m.undoBytes -= len(s.Blob)
	m.redo[key] = append(m.redo[key], Snapshot{Key: key, Blob: current, TS: time.Now()})
	delete(m.lastPush, key)
	return s, true
}

// Redo returns the state to re-apply for key and moves current back onto the undo stack.
func (m *Manager) Redo(key string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[key]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[key] = r[:len(r)-1]
	m.undo[key] = append(m.undo[key], Snapshot{Key: key, Blob: current, TS: time.Now()})
	m.undoBytes += len(current)
	delete(m.lastPush, key)
	m.enforceCapsLocked(key)
	return s, true
}

// CanUndo and CanRedo report whether history exists for key.
func (m *Manager) CanUndo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[key]) > 0
}

func (m *Manager) CanRedo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[key]) > 0
}

// Clear drops all history for key.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[key] {
		m.undoBytes -= len(s.Blob)
	}
	delete(m.undo, key)
	delete(m.redo, key)
	delete(m.lastPush, key)
	if m.undoBytes < 0 {
		m.undoBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (undoBytes int, keys int, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		entries += len(v)
	}
	return m.undoBytes, len(m.undo), entries
}

func (m *Manager) enforceCapsLocked(key string) {
	if m.cfg.MaxPerKey > 0 {
		stack := m.undo[key]
		if extra := len(stack) - m.cfg.MaxPerKey; extra > 0 {
			for _, s := range stack[:extra] {
				m.undoBytes -= len(s.Blob)
			}
			m.undo[key] = append([]Snapshot(nil), stack[extra:]...)
		}
	}
	for m.undoBytes > m.cfg.MaxBytes {
		oldestKey := ""
		var oldestTS time.Time
		for k, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestKey == "" || stack[0].TS.Before(oldestTS) {
				oldestKey, oldestTS = k, stack[0].TS
			}
		}
		if oldestKey == "" {
			break
		}
		stack := m.undo[oldestKey]
		m.undoBytes -= len(stack[0].Blob)
		if len(stack) == 1 {
			delete(m.undo, oldestKey)
		} else {
			m.undo[oldestKey] = stack[1:]
		}
	}
}
