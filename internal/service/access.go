package service

import "github.com/carshowcase/showcase/internal/model"

// Access is the visibility class a route declares.
type Access int

const (
	// AccessPublic routes run without resolving an identity.
	AccessPublic Access = iota
	// AccessOwner routes need an authenticated caller who owns the target
	// record, or an admin.
	AccessOwner
	// AccessAdmin routes need an authenticated admin.
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessOwner:
		return "owner"
	case AccessAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Authorize decides whether id may proceed under access. ownerID is the
// owner of the target record; the guard passes "" before any record is
// loaded, which for AccessOwner only requires authentication.
//
// It returns nil, ErrUnauthorized or ErrForbidden.
func Authorize(id *model.Identity, access Access, ownerID string) error {
	if access == AccessPublic {
		return nil
	}
	if id == nil || id.ID == "" {
		return ErrUnauthorized
	}
	if id.IsAdmin {
		return nil
	}
	if access == AccessOwner && (ownerID == "" || ownerID == id.ID) {
		return nil
	}
	return ErrForbidden
}
