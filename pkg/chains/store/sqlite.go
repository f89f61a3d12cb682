package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumen-oss/chainflow/pkg/chains"
	"github.com/lumen-oss/chainflow/pkg/errors"
)

// SQLiteRepository implements ChainRepository with chains serialized as JSON
// documents in a SQLite table.
type SQLiteRepository struct {
	db   *sql.DB
	path string

	initialized sync.Once
}

// NewSQLiteRepository opens a SQLite-backed chain store. The path parameter
// specifies the database file location; ":memory:" creates an in-memory
// database.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to open SQLite database"),
			errors.Fields{"path": path},
		)
	}

	repo := &SQLiteRepository{
		db:   db,
		path: path,
	}
	if err := repo.ensureInitialized(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) ensureInitialized() error {
	var initErr error
	r.initialized.Do(func() {
		// Enable WAL mode for better concurrency
		if _, err := r.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS chain_store (
            id TEXT PRIMARY KEY,
            document TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );

        CREATE INDEX IF NOT EXISTS idx_chain_store_created_at
        ON chain_store(created_at);
        `

		if _, err := r.db.Exec(query); err != nil {
			initErr = errors.Wrap(err, errors.Unknown, "failed to initialize database")
			return
		}
	})
	return initErr
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*chains.Chain, error) {
	var document string
	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM chain_store WHERE id = ?", id).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, errors.WithFields(chains.ErrChainNotFound, errors.Fields{"chain_id": id})
	}
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to read chain"),
			errors.Fields{"chain_id": id},
		)
	}

	chain := &chains.Chain{}
	if err := json.Unmarshal([]byte(document), chain); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to decode stored chain"),
			errors.Fields{"chain_id": id},
		)
	}
	return chain, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, chain *chains.Chain) error {
	if chain == nil || chain.ID == "" {
		return errors.New(errors.InvalidInput, "chain with a non-empty id is required")
	}

	document, err := json.Marshal(chain)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to encode chain"),
			errors.Fields{"chain_id": chain.ID},
		)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO chain_store (id, document, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(id) DO UPDATE SET
            document = excluded.document,
            updated_at = CURRENT_TIMESTAMP
        `, chain.ID, string(document))
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to store chain"),
			errors.Fields{"chain_id": chain.ID},
		)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chain_store WHERE id = ?", id)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to delete chain"),
			errors.Fields{"chain_id": id},
		)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to inspect delete result")
	}
	if affected == 0 {
		return errors.WithFields(chains.ErrChainNotFound, errors.Fields{"chain_id": id})
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*chains.Chain, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT document FROM chain_store ORDER BY created_at, id")
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to list chains")
	}
	defer rows.Close()

	var out []*chains.Chain
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to scan chain row")
		}
		chain := &chains.Chain{}
		if err := json.Unmarshal([]byte(document), chain); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to decode stored chain")
		}
		out = append(out, chain)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to iterate chain rows")
	}
	return out, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
