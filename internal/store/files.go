package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carshowcase/showcase/internal/model"
)

// CreateFile records an uploaded file. ID and UploadedAt are populated on
// success. A reused filename yields ErrDuplicate.
func (s *Store) CreateFile(ctx context.Context, f *model.File) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate file id: %w", err)
	}
	f.ID = id.String()
	f.UploadedAt = time.Now().UTC()

	const q = `INSERT INTO files
		(id, owner_id, original_name, filename, mime_type, size, uploaded_at)
		VALUES
		(:id, :owner_id, :original_name, :filename, :mime_type, :size, :uploaded_at)`

	if _, err := s.db.NamedExecContext(ctx, q, f); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// GetFileByFilename returns the record for a stored filename.
func (s *Store) GetFileByFilename(ctx context.Context, filename string) (*model.File, error) {
	var f model.File
	if err := s.db.GetContext(ctx, &f, s.q("SELECT * FROM files WHERE filename = ?"), filename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}

// ListFiles returns file records newest first. An empty ownerID lists every
// file.
func (s *Store) ListFiles(ctx context.Context, ownerID string) ([]model.File, error) {
	files := []model.File{}
	var err error
	if ownerID == "" {
		err = s.db.SelectContext(ctx, &files, "SELECT * FROM files ORDER BY uploaded_at DESC, id DESC")
	} else {
		err = s.db.SelectContext(ctx, &files,
			s.q("SELECT * FROM files WHERE owner_id = ? ORDER BY uploaded_at DESC, id DESC"), ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// DeleteFile removes a file record by ID.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM files WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete file rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
