package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/duty-roster-go/pkg/database"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidKey       = errors.New("invalid api key")
	ErrWrongCredentials = errors.New("invalid credentials")
)

var jwtAlgorithm = jwt.SigningMethodHS256

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Auth signs coordinator tokens and API keys with the configured secrets
type Auth struct {
	jwtSecret    []byte
	masterSecret []byte
	ttl          time.Duration
	cost         int
}

// New creates an Auth. A zero ttl means 24 hours.
func New(jwtSecret, masterSecret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
		ttl:          ttl,
		cost:         bcrypt.DefaultCost,
	}
}

// WithCost returns a copy of a using the given bcrypt cost
func (a *Auth) WithCost(cost int) *Auth {
	cp := *a
	cp.cost = cost
	return &cp
}

// HashPassword hashes a password using bcrypt
func (a *Auth) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a coordinator
func (a *Auth) CreateToken(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Auth) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Login checks a coordinator's password and returns a fresh token
func (a *Auth) Login(ctx context.Context, repo *database.Repository, username, password string) (string, error) {
	c, err := repo.GetCoordinator(ctx, username)
	if errors.Is(err, database.ErrCoordinatorNotFound) {
		return "", ErrWrongCredentials
	}
	if err != nil {
		return "", err
	}
	if !CheckPasswordHash(password, c.PasswordHash) {
		return "", ErrWrongCredentials
	}
	return a.CreateToken(c.Username)
}

// EnsureCoordinator creates the first admin account when none exists.
// It reports whether an account was created.
func (a *Auth) EnsureCoordinator(ctx context.Context, repo *database.Repository, username, password string) (bool, error) {
	count, err := repo.CountCoordinators(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := a.HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := repo.CreateCoordinator(ctx, &database.Coordinator{Username: username, PasswordHash: hash}); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Auth) sign(userID string) string {
	h := hmac.New(sha256.New, a.masterSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (a *Auth) GenerateHMACKey(userID string) string {
	return userID + "." + a.sign(userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user id
func (a *Auth) VerifyHMACKey(key string) (string, error) {
	userID, provided, ok := strings.Cut(key, ".")
	if !ok || userID == "" || strings.Contains(provided, ".") {
		return "", fmt.Errorf("%w: bad format", ErrInvalidKey)
	}

	if !hmac.Equal([]byte(provided), []byte(a.sign(userID))) {
		return "", fmt.Errorf("%w: bad signature", ErrInvalidKey)
	}
	return userID, nil
}
