// Package auth содержит хеширование паролей и выпуск/проверку сессионных токенов.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword возвращает bcrypt-хеш пароля. Хеш самоописываемый:
// соль и стоимость закодированы внутри дайджеста.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword проверяет пароль по сохранённому хешу. Некорректный или
// чужой по формату дайджест трактуется как несовпадение, без паники.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
