/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"encoding/json"
	"sync"
	"time"

	"tailormark/internal/domain"
	"tailormark/internal/undo"
)

// Updater derives the next sheet from the latest committed one. It receives
// a private deep copy and reports whether anything changed.
type Updater func(prev domain.Sheet) (next domain.Sheet, changed bool)

// Store serializes all sheet mutations. Every Update runs against the latest
// committed state, so two changes issued back to back can never overwrite
// each other. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	sheet   domain.Sheet
	history *undo.Manager
	now     func() time.Time

	gesture      bool
	gestureSaved bool

	subMu  sync.Mutex
	subs   map[int]func(domain.Sheet)
	nextID int
}

// NewStore creates a store holding sheet. history may be nil.
func NewStore(sheet domain.Sheet, history *undo.Manager) *Store {
	return &Store{sheet: sheet.Clone(), history: history, now: time.Now, subs: map[int]func(domain.Sheet){}}
}

// Get returns a copy of the current sheet.
func (s *Store) Get() domain.Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.Clone()
}

// Update applies fn to the latest sheet and commits the result when fn
// reports a change. It returns the committed sheet and whether it changed.
func (s *Store) Update(fn Updater) (domain.Sheet, bool) {
	s.mu.Lock()
	prev := s.sheet
	next, changed := fn(prev.Clone())
	if !changed {
		s.mu.Unlock()
		return prev.Clone(), false
	}
	s.recordLocked(prev)
	s.sheet = next
	out := next.Clone()
	s.mu.Unlock()
	s.notify(out)
	return out, true
}

// Replace swaps in an externally supplied sheet without recording history.
// Controlled callers use it after persisting a change themselves.
func (s *Store) Replace(sheet domain.Sheet) {
	s.mu.Lock()
	if s.history != nil && sheet.ID != s.sheet.ID {
		s.history.Clear(s.sheet.ID)
	}
	s.sheet = sheet.Clone()
	out := s.sheet.Clone()
	s.mu.Unlock()
	s.notify(out)
}

// BeginGesture groups the following updates into one undo step until
// EndGesture. Drags use it so a whole drag undoes at once.
func (s *Store) BeginGesture() {
	s.mu.Lock()
	s.gesture, s.gestureSaved = true, false
	s.mu.Unlock()
}

func (s *Store) EndGesture() {
	s.mu.Lock()
	s.gesture, s.gestureSaved = false, false
	s.mu.Unlock()
}

func (s *Store) recordLocked(prev domain.Sheet) {
	if s.history == nil || (s.gesture && s.gestureSaved) {
		return
	}
	blob, err := json.Marshal(prev)
	if err != nil {
		return
	}
	s.history.Push(undo.Snapshot{Key: prev.ID, Blob: blob, TS: s.now()})
	if s.gesture {
		s.gestureSaved = true
	}
}

// Undo restores the state before the last committed change.
func (s *Store) Undo() (domain.Sheet, bool) { return s.step(true) }

// Redo re-applies the last undone change.
func (s *Store) Redo() (domain.Sheet, bool) { return s.step(false) }

func (s *Store) step(back bool) (domain.Sheet, bool) {
	s.mu.Lock()
	if s.history == nil {
		s.mu.Unlock()
		return domain.Sheet{}, false
	}
	cur, err := json.Marshal(s.sheet)
	if err != nil {
		s.mu.Unlock()
		return domain.Sheet{}, false
	}
	var snap undo.Snapshot
	var ok bool
	if back {
		snap, ok = s.history.Undo(s.sheet.ID, cur)
	} else {
		snap, ok = s.history.Redo(s.sheet.ID, cur)
	}
	if !ok {
		s.mu.Unlock()
		return domain.Sheet{}, false
	}
	var restored domain.Sheet
	if err := json.Unmarshal(snap.Blob, &restored); err != nil {
		s.mu.Unlock()
		return domain.Sheet{}, false
	}
	s.sheet = restored
	out := restored.Clone()
	s.mu.Unlock()
	s.notify(out)
	return out, true
}

// Subscribe registers fn to receive every committed sheet. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(domain.Sheet)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(sheet domain.Sheet) {
	s.subMu.Lock()
	fns := make([]func(domain.Sheet), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(sheet)
	}
}
