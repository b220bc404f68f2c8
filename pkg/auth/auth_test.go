package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arnavshah/duty-roster-go/pkg/database"
)

func newAuth() *Auth {
	return New("jwt-secret", "master-secret", time.Hour).WithCost(bcrypt.MinCost)
}

func TestToken_RoundTrip(t *testing.T) {
	a := newAuth()
	token, err := a.CreateToken("ana")
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_Rejected(t *testing.T) {
	a := newAuth()
	token, err := a.CreateToken("ana")
	require.NoError(t, err)

	other := New("another-secret", "master-secret", time.Hour)
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &Claims{
		Username: "ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	_, err = a.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACKey(t *testing.T) {
	a := newAuth()
	key := a.GenerateHMACKey("client-1")

	id, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "client-1", id)

	for _, bad := range []string{"client-1", "client-1.deadbeef", ".abc", key + ".x"} {
		_, err := a.VerifyHMACKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}

	_, err = New("jwt-secret", "other-master", time.Hour).VerifyHMACKey(key)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestPasswordHash(t *testing.T) {
	a := newAuth()
	hash, err := a.HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestEnsureCoordinatorAndLogin(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	repo := database.NewRepository(db)
	ctx := context.Background()
	a := newAuth()

	created, err := a.EnsureCoordinator(ctx, repo, "admin", "pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = a.EnsureCoordinator(ctx, repo, "someone", "else")
	require.NoError(t, err)
	assert.False(t, created)

	token, err := a.Login(ctx, repo, "admin", "pw")
	require.NoError(t, err)
	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = a.Login(ctx, repo, "admin", "nope")
	assert.ErrorIs(t, err, ErrWrongCredentials)
	_, err = a.Login(ctx, repo, "someone", "else")
	assert.ErrorIs(t, err, ErrWrongCredentials)
}
