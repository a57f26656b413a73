package jwt

import (
	"errors"
	"time"

	"careplan-service/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMissingSource = errors.New("token has no intake source")

// Claims identify an intake partner. Source is the registry id the partner
// is allowed to submit as.
type Claims struct {
	Source string `json:"source"`
	jwt.RegisteredClaims
}

type JWTService struct {
	config config.JWTConfig
	now    func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{config: cfg, now: time.Now}
}

// Enabled reports whether partner authentication is configured.
func (s *JWTService) Enabled() bool {
	return s.config.Secret != ""
}

// GeneratePartnerToken mints a token for an intake source and returns it
// together with its token id.
func (s *JWTService) GeneratePartnerToken(source string) (string, string, error) {
	if source == "" {
		return "", "", ErrMissingSource
	}

	now := s.now()
	tokenID := uuid.New().String()
	claims := Claims{
		Source: source,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   source,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", "", err
	}

	return signedToken, tokenID, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Source == "" {
		return nil, ErrMissingSource
	}

	return claims, nil
}
