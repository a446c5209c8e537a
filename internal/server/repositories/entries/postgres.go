package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/dbx"
	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// PostgresRepository implements entry storage over PostgreSQL. Create relies
// on the address primary key for its first-writer-wins guarantee; Mutate
// takes a row lock so the read-transform-write sequence is one atomic unit.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, addr keydir.Address) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM entries WHERE address = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, addr[:]).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func scanEntry(row *sql.Row) (*keydir.Entry, error) {
	var username string
	var owner, key []byte

	if err := row.Scan(&username, &owner, &key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	entry := &keydir.Entry{Username: username}
	if len(owner) != keydir.OwnerSize || len(key) != keydir.KeySize {
		return nil, fmt.Errorf("db error: malformed entry row for %q", username)
	}
	copy(entry.Owner[:], owner)
	copy(entry.EncryptionKey[:], key)

	return entry, nil
}

func (r *PostgresRepository) Get(ctx context.Context, addr keydir.Address) (*keydir.Entry, error) {
	query := `SELECT username, owner, encryption_key FROM entries WHERE address = $1`
	return scanEntry(r.db.QueryRowContext(ctx, query, addr[:]))
}

// Create inserts the entry and reports ErrorAlreadyExists when the address
// is occupied. ON CONFLICT DO NOTHING plus the rows-affected count keeps the
// occupancy check and the insert in one statement, so of two concurrent
// creates exactly one wins.
func (r *PostgresRepository) Create(ctx context.Context, addr keydir.Address, entry *keydir.Entry) error {
	query := `
		INSERT INTO entries (address, username, owner, encryption_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		addr[:], entry.Username, entry.Owner[:], entry.EncryptionKey[:])
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}

	return nil
}

// Mutate runs inside a transaction: the row is locked with FOR UPDATE, f is
// applied to the current entry and the result written back. A concurrent
// Mutate on the same address blocks on the row lock and then observes the
// committed result, never a stale snapshot. If f fails the transaction rolls
// back and the stored entry is untouched.
func (r *PostgresRepository) Mutate(ctx context.Context, addr keydir.Address, f func(*keydir.Entry) error) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `SELECT username, owner, encryption_key FROM entries WHERE address = $1 FOR UPDATE`

		entry, err := scanEntry(tx.QueryRowContext(ctx, query, addr[:]))
		if err != nil {
			return err
		}

		if err := f(entry); err != nil {
			return err
		}

		update := `UPDATE entries SET encryption_key = $2 WHERE address = $1`
		if _, err := tx.ExecContext(ctx, update, addr[:], entry.EncryptionKey[:]); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return nil
	})
}

func (r *PostgresRepository) List(ctx context.Context) ([]*keydir.Entry, error) {
	query := `SELECT username, owner, encryption_key FROM entries ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*keydir.Entry
	for rows.Next() {
		var username string
		var owner, key []byte
		if err := rows.Scan(&username, &owner, &key); err != nil {
			return nil, err
		}
		entry := &keydir.Entry{Username: username}
		copy(entry.Owner[:], owner)
		copy(entry.EncryptionKey[:], key)
		result = append(result, entry)
	}

	return result, rows.Err()
}
