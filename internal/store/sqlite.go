// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/gpthelper/internal/model"
)

// =============================================================================
// SQLITE PERSISTENCE
// =============================================================================

// sqliteDB persists the store as two tables of (id, serialized record).
// Snapshot uses full-table replace semantics: both tables are emptied and
// rewritten in one transaction.
type sqliteDB struct {
	db *sql.DB
}

// openDB opens the database and ensures the schema exists.
func openDB(path string) (*sqliteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// The snapshot writer is single-threaded by construction; one connection
	// keeps sqlite's locking out of the picture.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS gpt_users (id TEXT PRIMARY KEY, object TEXT)`,
		`CREATE TABLE IF NOT EXISTS requests (id TEXT PRIMARY KEY, object TEXT)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &sqliteDB{db: db}, nil
}

// Close closes the database handle.
func (s *sqliteDB) Close() error {
	return s.db.Close()
}

// Snapshot rewrites both tables from the in-memory state in one transaction.
func (s *sqliteDB) Snapshot(users map[string]model.User, requests map[string][]model.Request) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gpt_users`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM requests`); err != nil {
		return err
	}

	for id, u := range users {
		obj, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal user %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO gpt_users (id, object) VALUES (?, ?)`, id, string(obj)); err != nil {
			return err
		}
	}

	for id, reqs := range requests {
		obj, err := json.Marshal(reqs)
		if err != nil {
			return fmt.Errorf("marshal requests %s: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO requests (id, object) VALUES (?, ?)`, id, string(obj)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load reads both tables back into memory.
func (s *sqliteDB) Load() (map[string]model.User, map[string][]model.Request, error) {
	users := make(map[string]model.User)
	requests := make(map[string][]model.Request)

	rows, err := s.db.Query(`SELECT id, object FROM gpt_users`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, obj string
		if err := rows.Scan(&id, &obj); err != nil {
			return nil, nil, err
		}
		var u model.User
		if err := json.Unmarshal([]byte(obj), &u); err != nil {
			return nil, nil, fmt.Errorf("unmarshal user %s: %w", id, err)
		}
		users[id] = u
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	reqRows, err := s.db.Query(`SELECT id, object FROM requests`)
	if err != nil {
		return nil, nil, err
	}
	defer reqRows.Close()
	for reqRows.Next() {
		var id, obj string
		if err := reqRows.Scan(&id, &obj); err != nil {
			return nil, nil, err
		}
		var reqs []model.Request
		if err := json.Unmarshal([]byte(obj), &reqs); err != nil {
			return nil, nil, fmt.Errorf("unmarshal requests %s: %w", id, err)
		}
		requests[id] = reqs
	}
	if err := reqRows.Err(); err != nil {
		return nil, nil, err
	}

	return users, requests, nil
}
