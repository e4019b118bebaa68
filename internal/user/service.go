package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	Register(ctx context.Context, u *User, password string) (*User, error)
	Login(ctx context.Context, username, password string) (*User, string, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateUser(ctx context.Context, u *User, newPassword string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tokens *TokenIssuer
}

func NewService(repo Repository, tokens *TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, u *User, password string) (*User, error) {
	if u.Username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("internal error hashing password: %w", err)
	}
	u.PasswordHash = string(hash)

	createdID, err := s.repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
			return nil, err
		}
		log.Error().Err(err).Str("username", u.Username).Msg("service: failed to create user")
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	u.ID = createdID
	log.Info().Stringer("user_id", u.ID).Str("username", u.Username).Msg("service: user registered")
	return u, nil
}

// Login verifies credentials and mints a session token. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, username, password string) (*User, string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("service: failed to issue token")
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Str("username", username).Msg("service: user logged in")
	return u, token, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id '%s': %w", id, err)
	}
	return u, nil
}

func (s *service) UpdateUser(ctx context.Context, u *User, newPassword string) error {
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	err := s.repo.Update(ctx, u)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
			return err
		}
		return fmt.Errorf("failed to update user by id '%s': %w", u.ID, err)
	}
	return nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user by id '%s': %w", id, err)
	}
	return nil
}
