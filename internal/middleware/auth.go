// Package middleware содержит HTTP middleware сервиса книжного магазина.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mmeshcher/bookstore-system/internal/auth"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

type contextKey string

const userKey contextKey = "user"

// UserResolver описывает поиск пользователя по идентификатору субъекта токена.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Auth выполняет аутентификацию запросов по bearer-токену: проверяет подпись
// и срок действия токена, затем подтверждает, что субъект всё ещё существует.
// Токен может пережить удаление аккаунта, поэтому второй шаг обязателен.
type Auth struct {
	tokens *auth.TokenManager
	users  UserResolver
}

// NewAuth создаёт middleware аутентификации с указанными проверкой токенов и
// источником пользователей.
func NewAuth(tokens *auth.TokenManager, users UserResolver) *Auth {
	return &Auth{
		tokens: tokens,
		users:  users,
	}
}

// Middleware проверяет заголовок Authorization и добавляет найденного
// пользователя в контекст запроса.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		subjectID, _, err := a.tokens.Verify(tokenString)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		user, err := a.users.GetUserByID(r.Context(), subjectID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin пропускает только администраторов. Ставится после Middleware.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if user.Role != model.RoleAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserFromContext извлекает пользователя из контекста запроса.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}
