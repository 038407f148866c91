/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"testing"
	"time"
)

func TestSnapshotsCRUD(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()
	s := sampleSheet("snap")
	s.SchemaVersion = 1
	if _, ok, err := LatestSnapshot(ctx, w, "snap"); err != nil || ok {
		t.Fatalf("empty LatestSnapshot ok=%v err=%v", ok, err)
	}
	base := time.Now()
	for i := 0; i < 6; i++ {
		s.Title = string(rune('a' + i))
		if err := SaveSnapshot(ctx, w, s, ReasonAutosave, base.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	snap, ok, err := LatestSnapshot(ctx, w, "snap")
	if err != nil || !ok || snap.Reason != ReasonAutosave {
		t.Fatalf("LatestSnapshot = %+v %v %v", snap, ok, err)
	}
	got, err := snap.Sheet()
	if err != nil || got.Title != "f" {
		t.Fatalf("latest snapshot sheet %q, %v", got.Title, err)
	}
	list, err := ListSnapshots(ctx, w, "snap", 10)
	if err != nil || len(list) != 6 {
		t.Fatalf("ListSnapshots got %d err %v", len(list), err)
	}
	n, err := PruneOldSnapshots(ctx, w, "snap", 3)
	if err != nil || n != 3 {
		t.Fatalf("PruneOldSnapshots = %d, %v", n, err)
	}
	list, _ = ListSnapshots(ctx, w, "snap", 10)
	if len(list) != 3 {
		t.Fatalf("after prune %d snapshots", len(list))
	}
	if other, _ := ListSnapshots(ctx, w, "other", 10); len(other) != 0 {
		t.Fatalf("snapshots leak across sheets")
	}
}
