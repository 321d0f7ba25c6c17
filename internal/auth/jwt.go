package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/retreat-admin/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// SessionAudience marks dashboard session tokens. Tokens minted for any other audience are rejected.
const SessionAudience = "dashboard-session"

// ContextClaims is the gin context key holding the verified *Claims of a request.
const ContextClaims = "session_claims"

// Claims is the signed session of a staff account.
type Claims struct {
	AccountID   uuid.UUID         `json:"account_id"`
	Identifier  string            `json:"identifier"`
	DisplayName string            `json:"display_name,omitempty"`
	Role        models.Role       `json:"role"`
	Permissions []string          `json:"permissions"`
	AuthMethod  models.AuthMethod `json:"auth_method"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the session may open module.
func (c *Claims) HasPermission(module string) bool {
	return models.HasPermission(c.Role, c.Permissions, module)
}

// Session is what a successful sign-in returns to the client.
type Session struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
	Account   *models.StaffAccount `json:"account"`
}

// JWTService handles session token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
	now         func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	if expireHours <= 0 {
		expireHours = 12
	}
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
		now:         time.Now,
	}
}

// Issue signs a session for the account.
func (s *JWTService) Issue(account *models.StaffAccount) (*Session, error) {
	now := s.now()
	expires := now.Add(time.Duration(s.expireHours) * time.Hour)
	perms := account.Permissions
	if perms == nil {
		perms = []string{}
	}
	claims := Claims{
		AccountID:   account.ID,
		Identifier:  account.Identifier(),
		DisplayName: account.DisplayName,
		Role:        account.Role,
		Permissions: perms,
		AuthMethod:  account.AuthMethod,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Audience:  jwt.ClaimStrings{SessionAudience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, Account: account}, nil
}

// Validate parses and validates a session token, returning claims or ErrInvalidToken.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired(), jwt.WithAudience(SessionAudience))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	if _, ok := models.ParseRole(string(claims.Role)); !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
