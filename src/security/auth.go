package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC secret the report API accepts.
const MinSecretLength = 32

var (
	ErrWeakSecret   = errors.New("JWT secret must be at least 32 bytes")
	ErrInvalidToken = errors.New("invalid token")
)

// AuthService issues and validates the bearer tokens of the report API.
type AuthService struct {
	JWTSecret string
	Expiry    time.Duration
	now       func() time.Time
}

func NewAuthService(secret string, expiry time.Duration) (*AuthService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &AuthService{JWTSecret: secret, Expiry: expiry, now: time.Now}, nil
}

// GenerateToken signs an HS256 token for subject.
func (a *AuthService) GenerateToken(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"jti": uuid.NewString(),
		"exp": now.Add(a.Expiry).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

// ValidateToken checks signature and expiry and returns the subject.
func (a *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(a.JWTSecret), nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", fmt.Errorf("%w: 'sub' claim missing or not a string", ErrInvalidToken)
		}
		return sub, nil
	}
	return "", ErrInvalidToken
}
