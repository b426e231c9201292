package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// TokenIssuer signs access tokens. *auth.TokenManager satisfies it.
type TokenIssuer interface {
	Issue(id domain.Identity) (string, time.Time, error)
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Session is a signed-in account and its access token.
type Session struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService registers accounts and signs users in.
type UserService struct {
	users  repo.UserStore
	tokens TokenIssuer
}

// NewUserService constructs a UserService.
func NewUserService(users repo.UserStore, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates an account and signs it in.
// Returns domain.ErrConflict if the email is already registered.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil || addr.Address != strings.TrimSpace(in.Email) {
		return Session{}, fmt.Errorf("service.UserService.Register: %w: email is not a valid address", domain.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return Session{}, fmt.Errorf("service.UserService.Register: %w: password must be at least %d characters",
			domain.ErrValidation, MinPasswordLength)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	user, err := s.users.Create(ctx, domain.User{
		UID:          uuid.NewString(),
		Email:        addr.Address,
		DisplayName:  cleanText(in.DisplayName),
		PasswordHash: hash,
		CreatedAt:    now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return Session{}, fmt.Errorf("service.UserService.Register: %w", err)
		}
		return Session{}, storeError("UserService.Register", err)
	}
	return s.session(user)
}

// Login checks the password for email and issues a token.
// Unknown emails and wrong passwords both return domain.ErrAuthenticationRequired.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, fmt.Errorf("service.UserService.Login: %w: invalid email or password", domain.ErrAuthenticationRequired)
	}
	if err != nil {
		return Session{}, storeError("UserService.Login", err)
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return Session{}, fmt.Errorf("service.UserService.Login: %w", err)
	}
	if !ok {
		return Session{}, fmt.Errorf("service.UserService.Login: %w: invalid email or password", domain.ErrAuthenticationRequired)
	}
	return s.session(user)
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context) (domain.User, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Me: %w", err)
	}
	user, err := s.users.GetByID(ctx, caller.UID)
	if err != nil {
		return domain.User{}, storeError("UserService.Me", err)
	}
	return user, nil
}

func (s *UserService) session(user domain.User) (Session, error) {
	token, exp, err := s.tokens.Issue(domain.Identity{UID: user.UID, Email: user.Email})
	if err != nil {
		return Session{}, fmt.Errorf("service.UserService: issue token: %w", err)
	}
	return Session{User: user, Token: token, ExpiresAt: exp}, nil
}
