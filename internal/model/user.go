package model

import "time"

// User is an account that can sign in to the catalogue. Passwords are stored
// as bcrypt hashes.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// Identity returns the identity attached to requests made with this user's token.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}

// UserSummary is the public-safe view of a User.
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser is a candidate account. Password is plaintext and is hashed before
// anything is persisted.
type NewUser struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,min=2,max=100"`
	LastName  string `json:"lastName" validate:"required,min=2,max=100"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Registration is the self-service sign-up payload.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UserUpdate is a partial change to a user. Nil fields are left untouched.
type UserUpdate struct {
	Email     *string `json:"email,omitempty" validate:"omitnil,email,max=255"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"firstName,omitempty" validate:"omitnil,min=2,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitnil,min=2,max=100"`
	IsAdmin   *bool   `json:"isAdmin,omitempty"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
