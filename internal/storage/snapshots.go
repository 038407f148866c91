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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tailormark/internal/domain"
)

// Snapshot reasons.
const (
	ReasonAutosave = "autosave"
	ReasonManual   = "manual"
	ReasonCrash    = "crash"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(sheet_id, ts, blob, reason) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, blob, reason FROM snapshots WHERE sheet_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, blob, reason FROM snapshots WHERE sheet_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE sheet_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE sheet_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Snapshot is a stored copy of a whole sheet.
type Snapshot struct {
	TS     time.Time
	Reason string
	Blob   []byte
}

// Sheet decodes the snapshot.
func (s Snapshot) Sheet() (domain.Sheet, error) { return ParseSheet(s.Blob) }

// SaveSnapshot stores the sheet as it is now.
func SaveSnapshot(ctx context.Context, w *Workspace, s domain.Sheet, reason string, ts time.Time) error {
	if w == nil {
		return errors.New("nil Workspace")
	}
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, s.ID, ts.UTC().Format(time.RFC3339Nano), blob, reason)
	return err
}

// LatestSnapshot returns the newest snapshot of a sheet; ok is false when
// there is none.
func LatestSnapshot(ctx context.Context, w *Workspace, sheetID string) (Snapshot, bool, error) {
	if w == nil {
		return Snapshot{}, false, errors.New("nil Workspace")
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var snap Snapshot
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, sheetID).Scan(&tsStr, &snap.Blob, &snap.Reason)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	snap.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	return snap, true, nil
}

// ListSnapshots returns up to limit snapshots of a sheet, newest first.
func ListSnapshots(ctx context.Context, w *Workspace, sheetID string, limit int) ([]Snapshot, error) {
	if w == nil {
		return nil, errors.New("nil Workspace")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, sheetID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var tsStr string
		var s Snapshot
		if err := rows.Scan(&tsStr, &s.Blob, &s.Reason); err != nil {
			return nil, err
		}
		s.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots for the sheet.
func PruneOldSnapshots(ctx context.Context, w *Workspace, sheetID string, keepLast int) (int64, error) {
	if w == nil {
		return 0, errors.New("nil Workspace")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, sheetID, sheetID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
