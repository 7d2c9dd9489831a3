package service

import (
	"errors"
	"testing"

	"github.com/carshowcase/showcase/internal/model"
)

func TestAuthorize(t *testing.T) {
	alice := &model.Identity{ID: "alice", Email: "alice@x.com"}
	admin := &model.Identity{ID: "root", Email: "root@x.com", IsAdmin: true}

	tests := []struct {
		name    string
		id      *model.Identity
		access  Access
		owner   string
		wantErr error
	}{
		{"public anonymous", nil, AccessPublic, "", nil},
		{"public with owner", nil, AccessPublic, "alice", nil},
		{"owner anonymous", nil, AccessOwner, "", ErrUnauthorized},
		{"admin anonymous", nil, AccessAdmin, "", ErrUnauthorized},
		{"empty identity", &model.Identity{}, AccessOwner, "", ErrUnauthorized},
		{"owner route level", alice, AccessOwner, "", nil},
		{"owner own record", alice, AccessOwner, "alice", nil},
		{"owner foreign record", alice, AccessOwner, "bob", ErrForbidden},
		{"admin route as user", alice, AccessAdmin, "", ErrForbidden},
		{"admin route as admin", admin, AccessAdmin, "", nil},
		{"admin foreign record", admin, AccessOwner, "bob", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.access, tt.owner)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccessString(t *testing.T) {
	if AccessPublic.String() != "public" || AccessOwner.String() != "owner" || AccessAdmin.String() != "admin" {
		t.Error("unexpected Access names")
	}
}
