package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/store"
)

// CredentialStore manages user records and owns the password hashing
// boundary: plaintext goes in, only hashes are persisted, and users handed
// back to callers never carry the hash.
type CredentialStore struct {
	store  *store.Store
	hasher PasswordHasher
}

func NewCredentialStore(st *store.Store, hasher PasswordHasher) *CredentialStore {
	return &CredentialStore{store: st, hasher: hasher}
}

// FindByEmail returns the user with the given email, compared
// case-insensitively.
func (c *CredentialStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := c.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return redact(u), nil
}

// FindByID returns the user with the given ID.
func (c *CredentialStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := c.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return redact(u), nil
}

// List returns every user.
func (c *CredentialStore) List(ctx context.Context) ([]model.User, error) {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Create hashes the candidate's password and inserts the user. A taken email
// yields ErrConflict and leaves the existing record untouched.
func (c *CredentialStore) Create(ctx context.Context, nu model.NewUser) (*model.User, error) {
	hash, err := c.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:        nu.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(nu.FirstName),
		LastName:     strings.TrimSpace(nu.LastName),
		IsAdmin:      nu.IsAdmin,
	}
	if err := c.store.CreateUser(ctx, u); err != nil {
		return nil, mapStoreError(err)
	}
	return redact(u), nil
}

// Update applies the non-nil fields of upd. A new password is re-hashed; a
// new email that belongs to another user yields ErrConflict.
func (c *CredentialStore) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	u, err := c.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if upd.Email != nil {
		email := store.NormalizeEmail(*upd.Email)
		if email != u.Email {
			other, err := c.store.GetUserByEmail(ctx, email)
			switch {
			case err == nil && other.ID != u.ID:
				return nil, ErrConflict
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			u.Email = email
		}
	}
	if upd.Password != nil {
		hash, err := c.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if upd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}

	if err := c.store.UpdateUser(ctx, u); err != nil {
		return nil, mapStoreError(err)
	}
	return redact(u), nil
}

// Remove deletes the user with the given ID along with their vehicles and
// file records. It returns the removed file records; their blobs are the
// caller's to delete.
func (c *CredentialStore) Remove(ctx context.Context, id string) ([]model.File, error) {
	files, err := c.store.DeleteUser(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return files, nil
}

// lookupByEmail returns the full record, hash included. It stays unexported
// so only credential checks in this package ever see a hash.
func (c *CredentialStore) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := c.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return u, nil
}

func redact(u *model.User) *model.User {
	u.PasswordHash = ""
	return u
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrConflict
	default:
		return fmt.Errorf("credential store: %w", err)
	}
}

// ValidateNewUser checks a candidate account: names, email syntax and the
// password policy.
func ValidateNewUser(nu *model.NewUser) error {
	nu.FirstName = strings.TrimSpace(nu.FirstName)
	nu.LastName = strings.TrimSpace(nu.LastName)
	nu.Email = strings.TrimSpace(nu.Email)

	verr := &ValidationError{}
	validateStruct(nu, verr)
	if nu.Password != "" {
		checkPassword(nu.Password, verr)
	}
	return verr.orNil()
}

// ValidateUserUpdate checks the fields present in upd.
func ValidateUserUpdate(upd *model.UserUpdate) error {
	for _, f := range []*string{upd.FirstName, upd.LastName, upd.Email} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}

	verr := &ValidationError{}
	validateStruct(upd, verr)
	if upd.Password != nil {
		checkPassword(*upd.Password, verr)
	}
	return verr.orNil()
}
