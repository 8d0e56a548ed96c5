package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

const (
	claimStudentID = "userId"
	bearerPrefix   = "Bearer "
)

// ErrMissingToken is returned when a request carries no bearer token
var ErrMissingToken = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)

// Verifier checks HS256 tokens issued by the platform's session service
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses the token and returns the student it was issued to.  Every failure wraps domain.ErrUnauthorized.
func (v *Verifier) Verify(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: invalid token payload", domain.ErrUnauthorized)
	}
	// JSON numbers decode as float64
	id, ok := claims[claimStudentID].(float64)
	if !ok || id < 1 || id != float64(uint(id)) {
		return 0, fmt.Errorf("%w: invalid %s claim", domain.ErrUnauthorized, claimStudentID)
	}
	return uint(id), nil
}

// VerifyHeader verifies the token in an Authorization header value
func (v *Verifier) VerifyHeader(header string) (uint, error) {
	token, ok := BearerToken(header)
	if !ok {
		return 0, ErrMissingToken
	}
	return v.Verify(token)
}

// IssueToken signs a token for the student.  Sessions are normally issued elsewhere; this serves tests and local
// development.
func IssueToken(secret string, studentID uint, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		claimStudentID: studentID,
		"iat":          now.Unix(),
		"exp":          now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
