package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carshowcase/showcase/internal/model"
)

const (
	msgRegistered = "Registration successful"
	msgLoggedOut  = "Logged out successfully"
)

type AuthService struct {
	creds  *CredentialStore
	tokens *TokenIssuer
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewAuthService(creds *CredentialStore, tokens *TokenIssuer) (*AuthService, error) {
	dummy, err := creds.hasher.Hash("no-such-user-placeholder")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{creds: creds, tokens: tokens, dummyHash: dummy}, nil
}

// Register validates and creates a regular (non-admin) account.
func (s *AuthService) Register(ctx context.Context, reg model.Registration) (*model.RegisterResponse, error) {
	nu := model.NewUser{
		Email:     reg.Email,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
	}
	if err := ValidateNewUser(&nu); err != nil {
		return nil, err
	}

	u, err := s.creds.Create(ctx, nu)
	if err != nil {
		return nil, err
	}
	return &model.RegisterResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Message:   msgRegistered,
	}, nil
}

// ValidateCredentials returns the user for email if password matches. An
// unknown email and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.creds.lookupByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.creds.hasher.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.creds.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return redact(u), nil
}

// Login issues an access token for an already validated user.
func (s *AuthService) Login(ctx context.Context, u *model.User) (*model.LoginResponse, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{
		User: model.LoginUser{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			IsAdmin:   u.IsAdmin,
		},
		AccessToken: token,
	}, nil
}

// Logout acknowledges a logout. Tokens are stateless, so the client
// discarding its token is the whole effect.
func (s *AuthService) Logout(ctx context.Context, id *model.Identity) *model.MessageResponse {
	return &model.MessageResponse{Message: msgLoggedOut}
}

// Authenticate verifies a bearer token and resolves the current state of the
// user it names. Tokens for deleted users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.creds.FindByID(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	id := u.Identity()
	return &id, nil
}
