/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements sheet persistence for a workspace directory.
// Each sheet is a JSON file under sheets/ written transactionally, checked
// against an embedded JSON schema and backed up to backups/ before every
// overwrite.
// A per-workspace SQLite index at <workspace>/.tmk/index.sqlite holds sheet
// summaries, full-text search and snapshots. It is derived from the sheet
// files and can be rebuilt at any time.
package storage
