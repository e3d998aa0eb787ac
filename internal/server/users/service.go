package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/server/auth"
)

const minPasswordLength = 8

// SessionRevoker ends every refresh session of a user. Wired to the
// refresh-token store; used when an account is closed.
type SessionRevoker interface {
	InvalidateAllForUser(ctx context.Context, userID int64) (int64, error)
}

// Service owns account lifecycle and credential checks. Passwords are
// stored as bcrypt hashes and never leave this package in clear form.
type Service struct {
	repo     Repository
	sessions SessionRevoker
}

func NewService(repo Repository, sessions SessionRevoker) *Service {
	return &Service{repo: repo, sessions: sessions}
}

func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {

	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, common.ErrorValidation
	}
	if len(password) < minPasswordLength {
		return nil, common.ErrorValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         auth.RoleUser,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}

// Authenticate checks the presented password against the stored hash.
// Unknown accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {

	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateEmail(ctx context.Context, id int64, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return common.ErrorValidation
	}
	return s.repo.UpdateEmail(ctx, id, email)
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	return s.repo.UpdateProfile(ctx, id, strings.TrimSpace(name), strings.TrimSpace(phone))
}

func (s *Service) UpdateRole(ctx context.Context, id int64, role string) error {
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return common.ErrorValidation
	}
	return s.repo.UpdateRole(ctx, id, string(parsed))
}

// ChangePassword requires the current password so a stolen access token
// alone cannot rotate the credential.
func (s *Service) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {

	if len(newPassword) < minPasswordLength {
		return common.ErrorValidation
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return common.ErrorUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	return s.repo.UpdatePasswordHash(ctx, id, string(hash))
}

// Delete soft-deletes the account and revokes all of its refresh sessions,
// so closed accounts cannot renew existing tokens. Deleting an already
// deleted or unknown account reports ErrorNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.MarkDeleted(ctx, id)
	if err != nil {
		return common.ErrorInternal
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	if _, err := s.sessions.InvalidateAllForUser(ctx, id); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// IdentityByID resolves a live account into token claims. Deleted accounts
// resolve to nothing, which stops token renewal for them.
func (s *Service) IdentityByID(ctx context.Context, userID int64) (auth.Identity, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return auth.Identity{}, err
	}
	return user.Identity(), nil
}
