package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"spot_rental/internal/domain"
)

type SessionService struct {
	users domain.UserRepository
	cost  int
}

// NewSessionService hashes passwords with the given bcrypt cost; 0 means bcrypt.DefaultCost.
func NewSessionService(users domain.UserRepository, cost int) *SessionService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &SessionService{users: users, cost: cost}
}

func (s *SessionService) Signup(ctx context.Context, p SignupPayload) (domain.User, error) {
	p.Email = strings.TrimSpace(p.Email)
	p.Username = strings.TrimSpace(p.Username)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if err := validateStruct(p, signupMessages); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.users.CreateUser(ctx, domain.User{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Username:       p.Username,
		HashedPassword: hash,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.User{}, domain.Forbidden("User already exists")
	}
	if err != nil {
		return domain.User{}, err
	}
	log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user signed up")
	return u, nil
}

func (s *SessionService) Login(ctx context.Context, p LoginPayload) (domain.User, error) {
	p.Credential = strings.TrimSpace(p.Credential)
	if err := validateStruct(p, loginMessages); err != nil {
		return domain.User{}, err
	}
	u, err := s.users.GetUserByCredential(ctx, p.Credential)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, errInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword(u.HashedPassword, []byte(p.Password)) != nil {
		return domain.User{}, errInvalidCredentials
	}
	return u, nil
}

// CurrentUser resolves a session's user id; ErrNotFound when the account is gone.
func (s *SessionService) CurrentUser(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

var errInvalidCredentials = &domain.Error{Kind: domain.ErrInvalidCredentials, Message: "Invalid credentials"}
