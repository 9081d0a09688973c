package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

var riya = &entity.User{UserID: 7, EmployeeEmail: "riya@corp.test", UserRole: entity.RoleEmployee}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer, err := NewJWTIssuer("s3cret", "travel-approval", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(riya)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "riya@corp.test", claims.Email)
	assert.Equal(t, entity.RoleEmployee, claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestJWTIssuer_Rejects(t *testing.T) {
	issuer, err := NewJWTIssuer("s3cret", "travel-approval", time.Hour)
	require.NoError(t, err)

	other, err := NewJWTIssuer("different", "travel-approval", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(riya)
	require.NoError(t, err)

	expired, err := NewJWTIssuer("s3cret", "travel-approval", time.Minute)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := expired.Issue(riya)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", stale},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewJWTIssuer_RequiresSecret(t *testing.T) {
	_, err := NewJWTIssuer("", "", 0)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("pa55word")
	require.NoError(t, err)
	assert.NotEqual(t, "pa55word", hash)

	assert.NoError(t, hasher.Compare(hash, "pa55word"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong"), ErrPasswordMismatch)
	assert.Error(t, hasher.Compare("not-a-hash", "pa55word"))
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}
