package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndVerify(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	token, err := IssueToken(testSecret, 42, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	id, err = v.VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestVerifyRejects(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	expired, err := IssueToken(testSecret, 42, -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := IssueToken("other-secret", 42, time.Hour)
	require.NoError(t, err)
	noClaim, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	zeroID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 0}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": 42}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Expired", expired},
		{"WrongSecret", wrongSecret},
		{"MissingClaim", noClaim},
		{"ZeroID", zeroID},
		{"Unsigned", unsigned},
		{"Garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized), "got %v", err)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.want, got, tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
	}

	v, err := NewVerifier(testSecret)
	require.NoError(t, err)
	_, err = v.VerifyHeader("")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestSecretRequired(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
	_, err = IssueToken("", 1, time.Hour)
	assert.Error(t, err)
}
