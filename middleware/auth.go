package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"food-delivery-api/authz"
	"food-delivery-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	identityKey  = "identity"
	bearerPrefix = "Bearer "
)

type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, expiry: expiry, now: time.Now}
}

func (t *TokenIssuer) Expiry() time.Duration {
	return t.expiry
}

// Generate creates a signed JWT for user.
func (t *TokenIssuer) Generate(user *models.User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies tokenStr and returns the identity it carries.
func (t *TokenIssuer) Parse(tokenStr string) (*authz.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("parse token: invalid token")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, errors.New("parse token: missing subject or role")
	}
	return &authz.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// Authenticate resolves a bearer token into an Identity on the context. It
// never rejects a request: a missing or invalid token leaves the caller
// anonymous and Authorize decides.
func Authenticate(tokens *TokenIssuer, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, bearerPrefix) {
			id, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
			if err != nil {
				log.WithError(err).WithField("ip", c.ClientIP()).Debug("ignoring invalid bearer token")
			} else {
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

// IdentityFrom returns the caller's identity, if one was authenticated.
func IdentityFrom(c *gin.Context) (*authz.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*authz.Identity)
	return id, ok && id != nil
}

// CurrentIdentity returns the caller's identity or the zero value. Handlers
// behind a role rule can rely on it being set.
func CurrentIdentity(c *gin.Context) authz.Identity {
	if id, ok := IdentityFrom(c); ok {
		return *id
	}
	return authz.Identity{}
}
