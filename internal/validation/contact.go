// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

// IsValidEmail проверяет базовую корректность адреса электронной почты:
// непустые локальная часть и домен, ровно один символ @, точка в домене.
func IsValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return false
	}

	domain := email[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}

	for _, ch := range email {
		if unicode.IsSpace(ch) {
			return false
		}
	}

	return true
}

// IsValidMobile проверяет корректность мобильного номера: от 10 до 15 цифр,
// допускается ведущий знак «+».
func IsValidMobile(number string) bool {
	if strings.HasPrefix(number, "+") {
		number = number[1:]
	}

	if len(number) < 10 || len(number) > 15 {
		return false
	}

	for _, ch := range number {
		if !unicode.IsDigit(ch) {
			return false
		}
	}

	return true
}
