// Package auth signs owners up and in, and issues the session tokens that
// carry their id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/registry"
	"finance-tracker-go/internal/store"
)

var (
	ErrDuplicateUser  = errors.New("auth: email already registered")
	ErrAuthentication = errors.New("auth: invalid email or password")
	ErrTokenInvalid   = errors.New("auth: invalid or expired token")
)

const minPasswordLen = 6

type Service struct {
	store    store.Store
	registry *registry.Registry
	log      zerolog.Logger
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

type Options struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

func New(s store.Store, reg *registry.Registry, log zerolog.Logger, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:    s,
		registry: reg,
		log:      log,
		secret:   []byte(opts.Secret),
		ttl:      opts.TTL,
		cost:     opts.BcryptCost,
		now:      time.Now,
	}
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Session is what a successful sign-up or login returns.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in SignUpInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.Invalid("name", "required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.Invalid("email", "must be a valid address")
	}
	if len(in.Password) < minPasswordLen {
		return models.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	return nil
}

// SignUp registers a user, seeds the default categories and opens a
// session for them. The user and the categories are written together, so a
// failed seed leaves the email free to sign up again.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := emailFree(ctx, s.store.Users(), in.Email); err != nil {
		return nil, fmt.Errorf("SignUp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("SignUp: hashing password: %w", err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if err := emailFree(ctx, tx.Users(), in.Email); err != nil {
			return err
		}
		if err := tx.Users().Insert(ctx, &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateUser
			}
			return err
		}
		_, err := s.registry.WithStore(tx).SeedDefaults(identity.WithOwner(ctx, user.ID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("SignUp: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user signed up")
	return s.issue(&user)
}

func emailFree(ctx context.Context, users store.Users, email string) error {
	_, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrDuplicateUser
	case errors.Is(err, store.ErrNoUser):
		return nil
	}
	return fmt.Errorf("looking up email: %w", err)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNoUser) {
		return nil, ErrAuthentication
	}
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthentication
	}
	return s.issue(user)
}

func (s *Service) issue(user *models.User) (*Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: signing token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// Parse validates a token and returns the user id it was issued for.
func (s *Service) Parse(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

// Authenticate resolves token into a context carrying its owner. Tokens
// for users that no longer exist are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (context.Context, error) {
	id, err := s.Parse(token)
	if err != nil {
		return ctx, err
	}
	l, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return ctx, fmt.Errorf("Authenticate: %w", err)
	}
	if !l.IsFound() {
		return ctx, ErrTokenInvalid
	}
	return identity.WithOwner(ctx, id), nil
}
