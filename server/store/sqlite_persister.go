package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const documentRowName = "main"

// SQLitePersister stores the document as one row of a SQLite table.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at the given path and runs migrations.
func OpenSQLite(path string) (*SQLitePersister, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	normalized := filepath.ToSlash(path)
	dsn := "file:" + normalized + "?cache=shared" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	p := &SQLitePersister{db: db}
	if err := p.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

func (p *SQLitePersister) migrate() error {
	stmt := `CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		revision INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := p.db.Exec(stmt); err != nil {
		return errors.Wrap(err, "migrate documents table")
	}
	return nil
}

func (p *SQLitePersister) Load(ctx context.Context) (*Document, error) {
	var body string
	err := p.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?;`, documentRowName).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, errors.Wrap(err, "select document")
	}
	return decodeDocument([]byte(body))
}

func (p *SQLitePersister) Save(ctx context.Context, doc *Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (name, body, revision, updated_at)
		VALUES (?, ?, 1, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			body = excluded.body,
			revision = documents.revision + 1,
			updated_at = excluded.updated_at;`,
		documentRowName, string(data))
	if err != nil {
		return errors.Wrap(err, "upsert document")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit document")
	}
	return nil
}

// Revision reports how many times the document has been saved.
func (p *SQLitePersister) Revision(ctx context.Context) (int, error) {
	var revision int
	err := p.db.QueryRowContext(ctx, `SELECT revision FROM documents WHERE name = ?;`, documentRowName).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return revision, errors.Wrap(err, "select revision")
}
