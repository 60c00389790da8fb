package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims são as claims do access token emitido pelo provedor de identidade.
// O ID do usuário vem em "sub" (RegisteredClaims.Subject).
type CustomClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID retorna o identificador do usuário (sub).
func (c *CustomClaims) UserID() string {
	return c.Subject
}

// Service valida (e, para desenvolvimento, emite) tokens HS256.
type Service struct {
	secretKey []byte
	audience  string
	expiry    time.Duration
}

// NewService cria uma nova instância do serviço Token.
// audience vazio desliga a verificação de "aud".
func NewService(secretKey, audience string, expiry time.Duration) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		audience:  audience,
		expiry:    expiry,
	}
}

// GenerateToken emite um token no mesmo formato do provedor de identidade.
// Usado pelo cmd/devtoken e pelos testes.
func (s *Service) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "estoquemkt-dev",
			Subject:   userID,
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken valida o token string e retorna as claims se for válido.
func (s *Service) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token não é válido")
	}
	if claims.Subject == "" {
		return nil, errors.New("token sem subject (sub)")
	}

	return claims, nil
}
