package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.klb.dev/clipkeep/internal/history"
)

var _ history.Persistence = (*DB)(nil)

// ErrSealed is returned when stored items are encrypted but no secret was
// configured.
var ErrSealed = errors.New("sqlite: history is encrypted; a secret is required")

// SaveHistory makes the items table mirror items, in order. Content columns
// are immutable, so existing rows only have position and pinned updated.
func (db *DB) SaveHistory(ctx context.Context, items []history.Item) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := itemIDs(ctx, tx)
	if err != nil {
		return err
	}

	for pos, it := range items {
		if _, ok := existing[it.ID]; ok {
			delete(existing, it.ID)
			if _, err := tx.ExecContext(ctx,
				`UPDATE items SET position = ?, pinned = ? WHERE id = ?`,
				pos, it.Pinned, it.ID,
			); err != nil {
				return fmt.Errorf("sqlite: updating item %s: %w", it.ID, err)
			}
			continue
		}
		if err := db.insertItem(ctx, tx, pos, it); err != nil {
			return err
		}
	}

	for id := range existing {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting item %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// LoadHistory returns every stored item in saved order.
func (db *DB) LoadHistory(ctx context.Context) ([]history.Item, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, kind, primary_text, payload, source_path, rich_text, pinned, sealed, created_at
		FROM items ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying items: %w", err)
	}
	defer rows.Close()

	var items []history.Item
	for rows.Next() {
		var (
			it                            history.Item
			kind                          string
			primary, payload, source, rtf []byte
			sealed                        bool
			created                       int64
		)
		if err := rows.Scan(&it.ID, &kind, &primary, &payload, &source, &rtf, &it.Pinned, &sealed, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item: %w", err)
		}
		if it.Kind, err = history.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("sqlite: item %s: %w", it.ID, err)
		}
		if sealed {
			if !db.box.Enabled() {
				return nil, ErrSealed
			}
			if primary, payload, source, rtf, err = db.openAll(primary, payload, source, rtf); err != nil {
				return nil, fmt.Errorf("sqlite: item %s: %w", it.ID, err)
			}
		}
		it.PrimaryText = string(primary)
		it.Payload = nonEmpty(payload)
		it.SourcePath = string(source)
		it.RichText = nonEmpty(rtf)
		it.CreatedAt = time.Unix(0, created).UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}
	return items, nil
}

func (db *DB) insertItem(ctx context.Context, tx *sql.Tx, pos int, it history.Item) error {
	primary, payload := []byte(it.PrimaryText), it.Payload
	source, rtf := []byte(it.SourcePath), it.RichText
	sealed := db.box.Enabled()
	if sealed {
		var err error
		if primary, payload, source, rtf, err = db.sealAll(primary, payload, source, rtf); err != nil {
			return fmt.Errorf("sqlite: sealing item %s: %w", it.ID, err)
		}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO items (id, position, kind, primary_text, payload, source_path, rich_text, pinned, sealed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, pos, string(it.Kind),
		nullable(primary), nullable(payload), nullable(source), nullable(rtf),
		it.Pinned, sealed, it.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting item %s: %w", it.ID, err)
	}
	return nil
}

func (db *DB) sealAll(fields ...[]byte) (a, b, c, d []byte, err error) {
	out := make([][]byte, len(fields))
	for i, f := range fields {
		if len(f) == 0 {
			continue
		}
		if out[i], err = db.box.Seal(f); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return out[0], out[1], out[2], out[3], nil
}

func (db *DB) openAll(fields ...[]byte) (a, b, c, d []byte, err error) {
	out := make([][]byte, len(fields))
	for i, f := range fields {
		if len(f) == 0 {
			continue
		}
		if out[i], err = db.box.Open(f); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return out[0], out[1], out[2], out[3], nil
}

func itemIDs(ctx context.Context, tx *sql.Tx) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM items`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing item ids: %w", err)
	}
	defer rows.Close()
	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// nullable maps absent optional values to SQL NULL.
func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
