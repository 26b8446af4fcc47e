package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

const upsertVector = `
	INSERT INTO vectors (id, vector, text, metadata)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		vector = excluded.vector,
		text = excluded.text,
		metadata = excluded.metadata
`

// ReplaceAll swaps the table contents for entries in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, entries []domain.IndexedVector) error {
	if err := domain.ValidateVectors(entries); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return unavailable("clearing vectors", err)
	}
	if err := insertAll(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing transaction", err)
	}
	return nil
}

// Upsert inserts or overwrites entries by id. Existing rows keep their
// position; new rows are appended.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexedVector) error {
	if err := domain.ValidateVectors(entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var width sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT length(vector) FROM vectors LIMIT 1").Scan(&width); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return unavailable("reading dimensions", err)
	}
	if width.Valid && int(width.Int64) != len(entries[0].Vector)*4 {
		return fmt.Errorf("%w: upsert has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(entries[0].Vector), width.Int64/4)
	}

	if err := insertAll(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing transaction", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, entries []domain.IndexedVector) error {
	stmt, err := tx.PrepareContext(ctx, upsertVector)
	if err != nil {
		return unavailable("preparing statement", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		metadata, err := encodeMetadata(e.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.ID, encodeVector(e.Vector), e.Text, metadata); err != nil {
			return unavailable("saving vector "+e.ID, err)
		}
	}
	return nil
}

// Query returns up to k rows nearest to vector. Filter pairs are matched in
// SQL against the JSON metadata before ranking.
func (s *Store) Query(ctx context.Context, vector []float32, k int, filter domain.MetadataFilter) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	query, args := selectVectors(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("querying vectors", err)
	}
	defer rows.Close()

	var entries []domain.IndexedVector
	for rows.Next() {
		var (
			e        domain.IndexedVector
			blob     []byte
			metadata string
		)
		if err := rows.Scan(&e.ID, &blob, &e.Text, &metadata); err != nil {
			return nil, unavailable("scanning vector", err)
		}
		if e.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, err
		}
		e.Vector = decodeVector(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating vectors", err)
	}

	return domain.NearestNeighbours(entries, vector, k, filter)
}

// selectVectors builds the scan query. Keys are bound as JSON paths so no
// caller text is spliced into SQL.
func selectVectors(filter domain.MetadataFilter) (string, []any) {
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		where []string
		args  []any
	)
	for _, key := range keys {
		where = append(where, "json_extract(metadata, ?) = ?")
		args = append(args, `$."`+strings.ReplaceAll(key, `"`, `\"`)+`"`, filter[key])
	}

	query := "SELECT id, vector, text, metadata FROM vectors"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY seq", args
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&n); err != nil {
		return 0, unavailable("counting vectors", err)
	}
	return n, nil
}

// Sample returns up to limit rows in insertion order, without vectors.
func (s *Store) Sample(ctx context.Context, limit int) ([]domain.QueryResult, error) {
	out := []domain.QueryResult{}
	if limit <= 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, text, metadata FROM vectors ORDER BY seq LIMIT ?", limit)
	if err != nil {
		return nil, unavailable("sampling vectors", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        domain.QueryResult
			metadata string
		)
		if err := rows.Scan(&r.ID, &r.Text, &metadata); err != nil {
			return nil, unavailable("scanning vector", err)
		}
		if r.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating vectors", err)
	}
	return out, nil
}
