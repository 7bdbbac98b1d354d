// Copyright 2025 Chitragupta Authors
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

package kartavya

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLiteStore adapts a database/sql connection, via the cgo-free
// modernc.org/sqlite driver, to the Store shape Persist/Restore need.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite database at
// path for kartavya persistence. Use ":memory:" for an ephemeral
// store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Exec runs a one-off statement (DDL, mostly) with no result rows.
func (s *SQLiteStore) Exec(query string, args ...any) error {
	_, err := s.db.ExecContext(context.Background(), query, args...)
	return err
}

// Prepare compiles query into a reusable Stmt.
func (s *SQLiteStore) Prepare(query string) (Stmt, error) {
	stmt, err := s.db.PrepareContext(context.Background(), query)
	if err != nil {
		return nil, err
	}
	return &sqliteStmt{stmt: stmt}, nil
}

type sqliteStmt struct {
	stmt *sql.Stmt
}

func (s *sqliteStmt) Run(args ...any) error {
	_, err := s.stmt.ExecContext(context.Background(), args...)
	return err
}

func (s *sqliteStmt) Get(args ...any) (map[string]any, bool, error) {
	rows, err := s.All(args...)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (s *sqliteStmt) All(args ...any) ([]map[string]any, error) {
	rows, err := s.stmt.QueryContext(context.Background(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		values := make([]any, len(cols))
		for i := range scanTargets {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
