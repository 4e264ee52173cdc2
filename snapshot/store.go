package snapshot

import (
	"fmt"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"silk/atom"
)

const schema = `
CREATE TABLE IF NOT EXISTS atoms (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	key   TEXT NOT NULL UNIQUE,
	id    TEXT NOT NULL,
	rule  TEXT NOT NULL,
	usage INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS atoms_id ON atoms(id);
`

// Store keeps atoms in SQLite database, preserving order of first insertion.
// It is not safe for concurrent use.
type Store struct {
	conn *sqlite.Conn
	path string
	log  *zap.Logger
}

// OpenStore opens or creates database.
func OpenStore(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("unable to open atom store: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare atom store: %w", err)
	}
	return &Store{conn: conn, path: path, log: log.Named("store")}, nil
}

// Put adds entries in a single transaction. Usage of already stored keys is
// summed, their identifiers and rules are kept.
func (s *Store) Put(entries []atom.Entry) (err error) {
	endTransaction, err := sqlitex.ImmediateTransaction(s.conn)
	if err != nil {
		return fmt.Errorf("atom store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, e := range entries {
		err = sqlitex.Execute(s.conn,
			`INSERT INTO atoms (key, id, rule, usage) VALUES (?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET usage = usage + excluded.usage`,
			&sqlitex.ExecOptions{Args: []any{string(e.Key), string(e.ID), e.Rule, max(e.Usage, 1)}})
		if err != nil {
			return fmt.Errorf("atom store: put %s: %w", e.ID, err)
		}
	}
	s.log.Debug("Atoms stored", zap.String("path", s.path), zap.Int("entries", len(entries)))
	return nil
}

// All returns stored atoms in order of first insertion.
func (s *Store) All() ([]atom.Entry, error) {
	var entries []atom.Entry
	err := sqlitex.Execute(s.conn, `SELECT key, id, rule, usage FROM atoms ORDER BY seq`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			entries = append(entries, atom.Entry{
				Key:   atom.Key(stmt.ColumnText(0)),
				ID:    atom.Identifier(stmt.ColumnText(1)),
				Rule:  stmt.ColumnText(2),
				Usage: stmt.ColumnInt(3),
			})
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("atom store: query: %w", err)
	}
	return entries, nil
}

// Len returns number of stored atoms.
func (s *Store) Len() (int, error) {
	var n int
	err := sqlitex.Execute(s.conn, `SELECT count(*) FROM atoms`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		}})
	if err != nil {
		return 0, fmt.Errorf("atom store: count: %w", err)
	}
	return n, nil
}

// Close closes database.
func (s *Store) Close() error {
	return s.conn.Close()
}
