package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/storage"
)

const msgUserDeleted = "User deleted successfully"

// UserService applies access rules to account management. A user record is
// owned by the user it describes.
type UserService struct {
	creds *CredentialStore
	blobs storage.Backend
}

// NewUserService returns a UserService. blobs holds uploaded file contents,
// which are deleted with their owner; nil leaves them in place.
func NewUserService(creds *CredentialStore, blobs storage.Backend) *UserService {
	return &UserService{creds: creds, blobs: blobs}
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context, actor *model.Identity) ([]model.UserSummary, error) {
	if err := Authorize(actor, AccessAdmin, ""); err != nil {
		return nil, err
	}
	users, err := s.creds.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// Create adds an account, optionally with the admin flag. Admin only.
func (s *UserService) Create(ctx context.Context, actor *model.Identity, nu model.NewUser) (*model.UserSummary, error) {
	if err := Authorize(actor, AccessAdmin, ""); err != nil {
		return nil, err
	}
	if err := ValidateNewUser(&nu); err != nil {
		return nil, err
	}
	u, err := s.creds.Create(ctx, nu)
	if err != nil {
		return nil, err
	}
	sum := u.Summary()
	return &sum, nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, actor *model.Identity, id string) (*model.UserSummary, error) {
	if err := Authorize(actor, AccessOwner, id); err != nil {
		return nil, err
	}
	u, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := u.Summary()
	return &sum, nil
}

// Update changes the user with the given ID. Only admins may change the
// admin flag; for anyone else it is ignored.
func (s *UserService) Update(ctx context.Context, actor *model.Identity, id string, upd model.UserUpdate) (*model.UserSummary, error) {
	if err := Authorize(actor, AccessOwner, id); err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		upd.IsAdmin = nil
	}
	if err := ValidateUserUpdate(&upd); err != nil {
		return nil, err
	}
	u, err := s.creds.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	sum := u.Summary()
	return &sum, nil
}

// Remove deletes the user with the given ID, their vehicles and their files.
// Records go in one transaction; a blob that cannot be deleted afterwards is
// logged and left behind.
func (s *UserService) Remove(ctx context.Context, actor *model.Identity, id string) (*model.MessageResponse, error) {
	if err := Authorize(actor, AccessOwner, id); err != nil {
		return nil, err
	}
	files, err := s.creds.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.blobs != nil {
		for _, f := range files {
			if err := s.blobs.Delete(ctx, f.Filename); err != nil && !errors.Is(err, storage.ErrNotExist) {
				slog.WarnContext(ctx, "user removed: blob not deleted", "filename", f.Filename, "error", err)
			}
		}
	}
	return &model.MessageResponse{Message: msgUserDeleted}, nil
}
