// Package identity resolves who is making a request. The rest of the application only
// ever sees an opaque external id.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken means credentials were presented but could not be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// Viewer is the authenticated caller.
type Viewer struct {
	ExternalID string
}

// Provider returns the current viewer, or nil when the request is anonymous.
type Provider interface {
	CurrentViewer(c *fiber.Ctx) (*Viewer, error)
}

// JWTProvider verifies HS256 bearer tokens and reads the subject claim.
type JWTProvider struct {
	secret   []byte
	issuer   string
	audience string
}

func NewJWTProvider(secret, issuer, audience string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (p *JWTProvider) CurrentViewer(c *fiber.Ctx) (*Viewer, error) {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return nil, nil
	}
	return p.Verify(token)
}

// Verify checks signature, expiry, issuer and audience.
func (p *JWTProvider) Verify(tokenString string) (*Viewer, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Viewer{ExternalID: claims.Subject}, nil
}

// Issue mints a token for externalID. Used by the operator CLI and tests.
func (p *JWTProvider) Issue(externalID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   externalID,
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if p.audience != "" {
		claims.Audience = jwt.ClaimStrings{p.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
