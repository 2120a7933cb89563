package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/internalerr"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the
// schema if it does not exist yet. Any failure to open or prepare the
// database wraps internalerr.ErrStoreUnavailable.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS scopes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS authors (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE COLLATE NOCASE,
	enabled INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS acronyms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	artist_name TEXT,
	album_name TEXT,
	track_name TEXT,
	year_released TEXT,
	scope_id TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_acronyms_name ON acronyms(name);
CREATE INDEX IF NOT EXISTS idx_acronyms_scope ON acronyms(scope_id);

-- One enabled acronym per name and scope; disabled rows free the name.
CREATE UNIQUE INDEX IF NOT EXISTS idx_acronyms_name_scope
	ON acronyms(name, scope_id) WHERE enabled = 1;
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// InsertAcronym admits an acronym unless an enabled one with the same
// name already holds the scope; the earliest insert wins.
func (s *sqliteStore) InsertAcronym(ctx context.Context, a store.Acronym) error {
	if a.ID == "" || a.Name == "" {
		return internalerr.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int64
	err = tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM acronyms WHERE name = ? AND scope_id = ? AND enabled = 1;
`, a.Name, a.ScopeID).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return internalerr.ErrDuplicate
	}

	enabled := 0
	if a.Enabled {
		enabled = 1
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO acronyms (id, name, kind, artist_name, album_name, track_name, year_released, scope_id, enabled)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`, a.ID, a.Name, a.Kind.String(), a.ArtistName, a.AlbumName, a.TrackName, a.YearReleased, a.ScopeID, enabled)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetAcronym retrieves the enabled acronym with the given name in the scope
func (s *sqliteStore) GetAcronym(ctx context.Context, name, scopeID string) (store.Acronym, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, kind, artist_name, album_name, track_name, year_released, scope_id, enabled
FROM acronyms
WHERE name = ? AND scope_id = ? AND enabled = 1;
`, name, scopeID)

	a, err := scanAcronym(row)
	if err == sql.ErrNoRows {
		return store.Acronym{}, false, nil
	}
	if err != nil {
		return store.Acronym{}, false, err
	}
	return a, true, nil
}

// GetAcronymsByName retrieves every enabled acronym with the name across all scopes
func (s *sqliteStore) GetAcronymsByName(ctx context.Context, name string) ([]store.Acronym, error) {
	return s.queryAcronyms(ctx, `
SELECT id, name, kind, artist_name, album_name, track_name, year_released, scope_id, enabled
FROM acronyms
WHERE name = ? AND enabled = 1
ORDER BY id;
`, name)
}

// GetAcronymsByScope retrieves the enabled acronyms of one scope
func (s *sqliteStore) GetAcronymsByScope(ctx context.Context, scopeID string) ([]store.Acronym, error) {
	return s.queryAcronyms(ctx, `
SELECT id, name, kind, artist_name, album_name, track_name, year_released, scope_id, enabled
FROM acronyms
WHERE scope_id = ? AND enabled = 1
ORDER BY id;
`, scopeID)
}

// GetGlobalAcronyms retrieves the enabled acronyms of the global scope
func (s *sqliteStore) GetGlobalAcronyms(ctx context.Context) ([]store.Acronym, error) {
	return s.GetAcronymsByScope(ctx, store.GlobalScopeID)
}

// DisableAcronym soft-deletes an acronym by id
func (s *sqliteStore) DisableAcronym(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE acronyms SET enabled = 0 WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internalerr.ErrNotFound
	}
	return nil
}

// UpsertScope inserts or updates a scope
func (s *sqliteStore) UpsertScope(ctx context.Context, sc store.Scope) error {
	if sc.ID == "" {
		return internalerr.ErrInvalidInput
	}
	enabled := 0
	if sc.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scopes (id, name, enabled) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name=excluded.name, enabled=excluded.enabled;
`, sc.ID, sc.Name, enabled)
	return err
}

// GetScope retrieves a scope by id
func (s *sqliteStore) GetScope(ctx context.Context, id string) (store.Scope, bool, error) {
	var (
		sc      store.Scope
		enabled int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, enabled FROM scopes WHERE id = ?;`, id).
		Scan(&sc.ID, &sc.Name, &enabled)
	if err == sql.ErrNoRows {
		return store.Scope{}, false, nil
	}
	if err != nil {
		return store.Scope{}, false, err
	}
	sc.Enabled = enabled == 1
	return sc, true, nil
}

// GetScopeByName retrieves a scope by its community name, case-insensitively
func (s *sqliteStore) GetScopeByName(ctx context.Context, name string) (store.Scope, bool, error) {
	var (
		sc      store.Scope
		enabled int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, enabled FROM scopes WHERE LOWER(name) = LOWER(?);`, name).
		Scan(&sc.ID, &sc.Name, &enabled)
	if err == sql.ErrNoRows {
		return store.Scope{}, false, nil
	}
	if err != nil {
		return store.Scope{}, false, err
	}
	sc.Enabled = enabled == 1
	return sc, true, nil
}

// GetEnabledScopes retrieves every enabled scope
func (s *sqliteStore) GetEnabledScopes(ctx context.Context) ([]store.Scope, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, enabled FROM scopes WHERE enabled = 1 ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []store.Scope
	for rows.Next() {
		var (
			sc      store.Scope
			enabled int
		)
		if err := rows.Scan(&sc.ID, &sc.Name, &enabled); err != nil {
			return nil, err
		}
		sc.Enabled = enabled == 1
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

// UpsertAuthor inserts or updates an author, keyed by username
func (s *sqliteStore) UpsertAuthor(ctx context.Context, a store.Author) error {
	if a.Username == "" {
		return internalerr.ErrInvalidInput
	}
	enabled := 0
	if a.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO authors (id, username, enabled) VALUES (?, ?, ?)
ON CONFLICT(username) DO UPDATE SET id=excluded.id, enabled=excluded.enabled;
`, a.ID, a.Username, enabled)
	return err
}

// GetAuthorByName retrieves an author by username, case-insensitively
func (s *sqliteStore) GetAuthorByName(ctx context.Context, username string) (store.Author, bool, error) {
	var (
		a       store.Author
		enabled int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, username, enabled FROM authors WHERE username = ?;`, username).
		Scan(&a.ID, &a.Username, &enabled)
	if err == sql.ErrNoRows {
		return store.Author{}, false, nil
	}
	if err != nil {
		return store.Author{}, false, err
	}
	a.Enabled = enabled == 1
	return a, true, nil
}

// GetDisabledAuthors retrieves every author who opted out
func (s *sqliteStore) GetDisabledAuthors(ctx context.Context) ([]store.Author, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, enabled FROM authors WHERE enabled = 0 ORDER BY username;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authors []store.Author
	for rows.Next() {
		var (
			a       store.Author
			enabled int
		)
		if err := rows.Scan(&a.ID, &a.Username, &enabled); err != nil {
			return nil, err
		}
		a.Enabled = enabled == 1
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAcronym(row rowScanner) (store.Acronym, error) {
	var (
		a       store.Acronym
		kind    string
		enabled int
	)
	err := row.Scan(&a.ID, &a.Name, &kind, &a.ArtistName, &a.AlbumName, &a.TrackName, &a.YearReleased, &a.ScopeID, &enabled)
	if err != nil {
		return store.Acronym{}, err
	}
	a.Kind = store.KindFromString(kind)
	a.Enabled = enabled == 1
	return a, nil
}

func (s *sqliteStore) queryAcronyms(ctx context.Context, query string, args ...interface{}) ([]store.Acronym, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var acronyms []store.Acronym
	for rows.Next() {
		a, err := scanAcronym(rows)
		if err != nil {
			return nil, err
		}
		acronyms = append(acronyms, a)
	}
	return acronyms, rows.Err()
}
