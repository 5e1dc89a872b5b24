package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tilt_cover/internal/repository"
)

const (
	defaultTokenTTL = time.Hour
	minPasswordLen  = 8
	tokenIssuer     = "tilt-cover"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters: letters, digits, '.', '_' or '-'")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrUserExists         = errors.New("username is already taken")
	ErrSignUpClosed       = errors.New("sign-up requires an authenticated operator")
	ErrInvalidToken       = errors.New("invalid token")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)

// AuthConfig is read from the auth section of config.yml.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// AuthService manages the operators allowed to drive the cover. Anyone may
// register the first operator; after that only an authenticated operator
// can add more.
type AuthService struct {
	users repository.Authorization
	key   []byte
	ttl   time.Duration
	now   func() time.Time
}

func NewAuthService(users repository.Authorization, cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{users: users, key: []byte(cfg.SigningKey), ttl: ttl, now: time.Now}
}

type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// SignUp registers an operator. byOperator reports whether the request
// carried a valid token.
func (s *AuthService) SignUp(ctx context.Context, username, password string, byOperator bool) (int, error) {
	username = normalizeUsername(username)
	if !usernamePattern.MatchString(username) {
		return 0, ErrInvalidUsername
	}
	if len(password) < minPasswordLen || strings.TrimSpace(password) == "" {
		return 0, ErrWeakPassword
	}

	if !byOperator {
		n, err := s.users.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("sign up: %w", err)
		}
		if n > 0 {
			return 0, ErrSignUpClosed
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.Create(ctx, username, string(hash))
	if errors.Is(err, repository.ErrUserExists) {
		return 0, ErrUserExists
	}
	if err != nil {
		return 0, fmt.Errorf("sign up: %w", err)
	}
	return id, nil
}

// GenerateToken checks the credentials and returns a signed HS256 token. An
// unknown user and a wrong password are indistinguishable to the caller.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(u.ID)
}

// ParseToken verifies a token issued by this service and returns its user ID.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(accessToken, &claims,
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.UserID, nil
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.key)
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
