package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/storage"
	"github.com/carshowcase/showcase/internal/store"
)

const (
	msgFilesUploaded = "Files uploaded successfully"
	msgNoFiles       = "No files uploaded"
	msgFileDeleted   = "File deleted successfully"
)

// Upload is one file part of an upload request.
type Upload struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

// FileService stores uploaded files. Each file is owned by its uploader.
type FileService struct {
	store    *store.Store
	blobs    storage.Backend
	maxFiles int
}

func NewFileService(st *store.Store, blobs storage.Backend, maxFiles int) *FileService {
	return &FileService{store: st, blobs: blobs, maxFiles: maxFiles}
}

// Upload stores every part or none of them.
func (s *FileService) Upload(ctx context.Context, actor *model.Identity, uploads []Upload) (*model.UploadResponse, error) {
	if err := Authorize(actor, AccessOwner, ""); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return &model.UploadResponse{Message: msgNoFiles, Files: []model.File{}}, nil
	}
	if s.maxFiles > 0 && len(uploads) > s.maxFiles {
		verr := &ValidationError{}
		verr.add("files", fmt.Sprintf("at most %d files per upload", s.maxFiles))
		return nil, verr
	}

	stored := make([]model.File, 0, len(uploads))
	for _, up := range uploads {
		f, err := s.storeOne(ctx, actor.ID, up)
		if err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		stored = append(stored, *f)
	}
	return &model.UploadResponse{Message: msgFilesUploaded, Files: stored}, nil
}

func (s *FileService) storeOne(ctx context.Context, ownerID string, up Upload) (*model.File, error) {
	mt, err := mimetype.DetectReader(up.Content)
	if err != nil {
		return nil, fmt.Errorf("detect content type of %q: %w", up.Name, err)
	}
	if _, err := up.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %q: %w", up.Name, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate filename: %w", err)
	}
	f := &model.File{
		OwnerID:      ownerID,
		OriginalName: filepath.Base(up.Name),
		Filename:     id.String() + storedExtension(up.Name, mt),
		MimeType:     mt.String(),
		Size:         up.Size,
	}

	if err := s.blobs.Put(ctx, f.Filename, up.Content, f.Size, f.MimeType); err != nil {
		return nil, fmt.Errorf("store %q: %w", up.Name, err)
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		s.blobs.Delete(ctx, f.Filename)
		return nil, fmt.Errorf("record %q: %w", up.Name, err)
	}
	return f, nil
}

func (s *FileService) rollback(ctx context.Context, files []model.File) {
	for _, f := range files {
		if err := s.blobs.Delete(ctx, f.Filename); err != nil && !errors.Is(err, storage.ErrNotExist) {
			slog.WarnContext(ctx, "upload rollback: blob not removed", "filename", f.Filename, "error", err)
		}
		if err := s.store.DeleteFile(ctx, f.ID); err != nil {
			slog.WarnContext(ctx, "upload rollback: record not removed", "filename", f.Filename, "error", err)
		}
	}
}

// storedExtension keeps the client's extension when it is short and plain,
// falling back to the detected type's extension.
func storedExtension(name string, mt *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) >= 2 && len(ext) <= 10 && strings.IndexFunc(ext[1:], func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	}) < 0 {
		return ext
	}
	return mt.Extension()
}

// List returns actor's files, or every file for an admin.
func (s *FileService) List(ctx context.Context, actor *model.Identity) ([]model.File, error) {
	if err := Authorize(actor, AccessOwner, ""); err != nil {
		return nil, err
	}
	owner := actor.ID
	if actor.IsAdmin {
		owner = ""
	}
	return s.store.ListFiles(ctx, owner)
}

// Open returns a file record and its contents. Public.
func (s *FileService) Open(ctx context.Context, filename string) (*model.File, io.ReadCloser, error) {
	f, err := s.store.GetFileByFilename(ctx, filename)
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	rc, err := s.blobs.Open(ctx, f.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, rc, nil
}

// Delete removes a file actor may modify. A blob already gone from storage
// does not block removing the record.
func (s *FileService) Delete(ctx context.Context, actor *model.Identity, filename string) (*model.MessageResponse, error) {
	if err := Authorize(actor, AccessOwner, ""); err != nil {
		return nil, err
	}
	f, err := s.store.GetFileByFilename(ctx, filename)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := Authorize(actor, AccessOwner, f.OwnerID); err != nil {
		return nil, err
	}

	if err := s.blobs.Delete(ctx, f.Filename); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}
	if err := s.store.DeleteFile(ctx, f.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return &model.MessageResponse{Message: msgFileDeleted}, nil
}
