package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService wraps JWT creation and validation. Access and refresh tokens
// share the signing key and differ only in TTL and the "kind" claim.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// CreateAccess creates a short-lived access token for the given user ID.
func (t *TokenService) CreateAccess(userID int64) (string, error) {
	return t.create(userID, "access", t.accessTTL)
}

// CreateRefresh creates a long-lived refresh token for the given user ID.
func (t *TokenService) CreateRefresh(userID int64) (string, error) {
	return t.create(userID, "refresh", t.refreshTTL)
}

func (t *TokenService) create(userID int64, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"kind": kind,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseAccess validates an access token and returns the user ID it was
// issued for.
func (t *TokenService) ParseAccess(tokenStr string) (int64, error) {
	return t.parse(tokenStr, "access")
}

// ParseRefresh validates a refresh token and returns the user ID.
func (t *TokenService) ParseRefresh(tokenStr string) (int64, error) {
	return t.parse(tokenStr, "refresh")
}

func (t *TokenService) parse(tokenStr, kind string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, jwt.ErrSignatureInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, jwt.ErrTokenMalformed
	}
	if k, _ := claims["kind"].(string); k != kind {
		return 0, fmt.Errorf("%w: wrong token kind", jwt.ErrTokenInvalidClaims)
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, jwt.ErrTokenInvalidSubject
	}
	return id, nil
}
