package documents

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document and returns its assigned id.
func (r *PGRepo) Create(ctx context.Context, doc Document) (int64, error) {
	const query = `
INSERT INTO documents (name, category, mime_type, size_bytes, storage_key, expiry_date, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}
	var expiry sql.NullString
	if doc.ExpiryDate != "" {
		expiry = sql.NullString{String: doc.ExpiryDate, Valid: true}
	}

	var id int64
	err := r.DB.QueryRowContext(
		ctx,
		query,
		doc.Name,
		doc.Category,
		doc.MimeType,
		doc.SizeBytes,
		storageKey,
		expiry,
		doc.UploadedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns a document by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Document, error) {
	const query = `
SELECT id, name, category, mime_type, size_bytes, storage_key, to_char(expiry_date, 'YYYY-MM-DD'), uploaded_at
FROM documents
WHERE id = $1 AND deleted_at IS NULL`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// List returns documents newest first with optional search and category filters.
func (r *PGRepo) List(ctx context.Context, search, category string) ([]Document, error) {
	query := `
SELECT id, name, category, mime_type, size_bytes, storage_key, to_char(expiry_date, 'YYYY-MM-DD'), uploaded_at
FROM documents
WHERE deleted_at IS NULL`
	args := []any{}

	if category != "" && category != "all" {
		args = append(args, category)
		query += ` AND category = $1`
	}
	if needle := strings.TrimSpace(search); needle != "" {
		args = append(args, "%"+strings.ToLower(needle)+"%")
		if len(args) == 1 {
			query += ` AND lower(name) LIKE $1`
		} else {
			query += ` AND lower(name) LIKE $2`
		}
	}
	query += ` ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete soft-deletes a document by id.
func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	const query = `UPDATE documents SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var storageKey sql.NullString
	var expiry sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Category,
		&doc.MimeType,
		&doc.SizeBytes,
		&storageKey,
		&expiry,
		&doc.UploadedAt,
	); err != nil {
		return Document{}, err
	}
	doc.StorageKey = storageKey.String
	doc.ExpiryDate = expiry.String
	return doc, nil
}
