package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

// Время жизни сессионного токена с момента выпуска.
const tokenTTL = 24 * time.Hour

// Ошибки проверки токена. Каждая причина отказа различима для вызывающего.
var (
	// ErrTokenExpired возвращается, если срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed возвращается, если строка токена не декодируется.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid возвращается при неверной подписи или неподдерживаемом алгоритме.
	ErrTokenInvalid = errors.New("token invalid")
)

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет сессионные токены. Токен самодостаточен:
// проверка не обращается к хранилищу, соответствие субъекта живому
// пользователю подтверждает отдельный слой (middleware).
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт TokenManager с указанным секретом подписи.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    tokenTTL,
	}
}

// Issue выпускает подписанный токен для субъекта с указанной ролью.
// Срок действия отсчитывается от момента выпуска.
func (m *TokenManager) Issue(subjectID string, role model.Role) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify проверяет подпись и срок действия токена и возвращает идентификатор
// субъекта и роль. Причины отказа: ErrTokenExpired, ErrTokenMalformed,
// ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (string, model.Role, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", "", ErrTokenMalformed
		default:
			return "", "", ErrTokenInvalid
		}
	}

	if !token.Valid || claims.Subject == "" {
		return "", "", ErrTokenInvalid
	}

	return claims.Subject, model.Role(claims.Role), nil
}
