package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/user"
)

// Claims carries the identity the rest of the system authorizes against.
type Claims struct {
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the token claims to the caller identity.
func (c *Claims) Actor() access.Actor {
	return access.Actor{Email: c.Email, Name: c.Name, Role: c.Role}
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (ti *TokenIssuer) NewAccessToken(u *user.User) (string, error) {
	now := ti.now()
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

func (ti *TokenIssuer) ParseToken(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		options = append(options, jwt.WithIssuer(ti.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, options...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Email == "" || !claims.Role.Valid() {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, errors.New("token lacks identity"))
	}
	return claims, nil
}
