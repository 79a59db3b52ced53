package manifest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/frogsort/internal/model"
)

// SQLiteStore keeps one row per image in a SQLite database. The JSON document
// is re-exported on every write so consumers of manifest.json see the same
// layout as with FileStore.
type SQLiteStore struct {
	db         *sql.DB
	exportPath string
}

// NewSQLite opens (creating if needed) the database at dsn and migrates it.
// exportPath may be empty to skip writing the JSON document.
func NewSQLite(dsn, exportPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: open sqlite")
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "manifest: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db, exportPath: exportPath}
	ctx := context.Background()
	if err := s.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	if err := s.seed(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS manifest (
	filename   TEXT PRIMARY KEY,
	folder     TEXT NOT NULL,
	record     TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_manifest_folder ON manifest(folder);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "manifest: migrate")
}

// seed merges records from an existing JSON document that the database does
// not hold yet, so runs made with the JSON driver in between still resume.
func (s *SQLiteStore) seed(ctx context.Context) error {
	if s.exportPath == "" {
		return nil
	}
	m, err := ReadFile(s.exportPath)
	if err != nil || len(m) == 0 {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "manifest: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO manifest (filename, folder, record) VALUES (?, ?, ?)
		 ON CONFLICT(filename) DO NOTHING`)
	if err != nil {
		return eris.Wrap(err, "manifest: prepare seed")
	}
	defer stmt.Close() //nolint:errcheck

	var added int64
	for name, rec := range m {
		raw, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "manifest: marshal record")
		}
		res, err := stmt.ExecContext(ctx, name, rec.Folder, string(raw))
		if err != nil {
			return eris.Wrapf(err, "manifest: seed %s", name)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return eris.Wrap(err, "manifest: seed rows affected")
		}
		added += n
	}
	if added == 0 {
		return nil
	}
	return s.commitWithExport(ctx, tx)
}

func (s *SQLiteStore) Path() string { return s.exportPath }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) Load(ctx context.Context) (model.Manifest, error) {
	return loadRecords(ctx, s.db)
}

func loadRecords(ctx context.Context, q queryer) (model.Manifest, error) {
	rows, err := q.QueryContext(ctx, `SELECT filename, record FROM manifest`)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: query records")
	}
	defer rows.Close() //nolint:errcheck

	m := model.Manifest{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, eris.Wrap(err, "manifest: scan record")
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, eris.Wrapf(err, "manifest: decode record %s", name)
		}
		m[name] = rec
	}
	return m, eris.Wrap(rows.Err(), "manifest: iterate records")
}

// Put upserts one record. The row only commits once the JSON document has
// been rewritten, so a failed export leaves the item unrecorded.
func (s *SQLiteStore) Put(ctx context.Context, name string, rec model.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "manifest: marshal record")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "manifest: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO manifest (filename, folder, record, updated_at) VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(filename) DO UPDATE SET folder = excluded.folder, record = excluded.record, updated_at = excluded.updated_at`,
		name, rec.Folder, string(raw),
	)
	if err != nil {
		return eris.Wrapf(err, "manifest: upsert %s", name)
	}
	return s.commitWithExport(ctx, tx)
}

func (s *SQLiteStore) Save(ctx context.Context, m model.Manifest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "manifest: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM manifest`); err != nil {
		return eris.Wrap(err, "manifest: clear records")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO manifest (filename, folder, record) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "manifest: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for name, rec := range m {
		raw, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "manifest: marshal record")
		}
		if _, err := stmt.ExecContext(ctx, name, rec.Folder, string(raw)); err != nil {
			return eris.Wrapf(err, "manifest: insert %s", name)
		}
	}
	return s.commitWithExport(ctx, tx)
}

// commitWithExport writes the JSON document from inside tx and commits only
// if that succeeds. The caller's deferred Rollback undoes tx otherwise.
func (s *SQLiteStore) commitWithExport(ctx context.Context, tx *sql.Tx) error {
	if s.exportPath != "" {
		m, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		if err := WriteFile(s.exportPath, m); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "manifest: commit")
}
