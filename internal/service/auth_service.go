package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"aquadash/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthMisconfigured  = errors.New("admin credentials not configured")
)

// AuthService validates the configured admin pair (or a stored operator
// account) and issues/parses the JWTs that guard the mutating routes.
type AuthService struct {
	users      repository.Authorization
	adminUser  string
	adminPass  string
	adminHash  string
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(users repository.Authorization, cfg Config) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		users:      users,
		adminUser:  cfg.AdminUser,
		adminPass:  cfg.AdminPass,
		adminHash:  cfg.AdminPassHash,
		signingKey: []byte(cfg.SigningKey),
		tokenTTL:   ttl,
	}
}

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Login checks credentials and returns a signed token on success. The admin
// pair from config is checked first; stored operator accounts are a fallback.
// Unset admin secrets are a server misconfiguration, not a bad login.
func (s *AuthService) Login(username, password string) (string, error) {
	if s.adminUser == "" || (s.adminPass == "" && s.adminHash == "") {
		return "", ErrAuthMisconfigured
	}
	if len(s.signingKey) == 0 {
		return "", fmt.Errorf("%w: signing key unset", ErrAuthMisconfigured)
	}

	if s.matchAdmin(username, password) {
		return s.issueToken(username)
	}

	if s.users != nil {
		u, err := s.users.GetByUsername(username)
		if err != nil {
			return "", err
		}
		if u != nil && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return s.issueToken(u.Username)
		}
	}
	return "", ErrInvalidCredentials
}

func (s *AuthService) matchAdmin(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUser)) != 1 {
		return false
	}
	if s.adminHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPass)) == 1
}

// SignUp hashes the password and stores a new operator account.
func (s *AuthService) SignUp(username, password string) (int, error) {
	if strings.TrimSpace(username) == "" {
		return 0, errors.New("username is empty")
	}
	if strings.TrimSpace(password) == "" {
		return 0, errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(username, string(hash))
}

// ParseToken validates a JWT and returns the username it was issued to.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}

func (s *AuthService) issueToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: username,
	})
	return token.SignedString(s.signingKey)
}
