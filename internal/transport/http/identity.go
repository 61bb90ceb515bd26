package http

import (
	"errors"
	"net/http"
	"strings"
)

// UserIDHeader - заголовок, через который шлюз аутентификации передает пользователя.
const UserIDHeader = "X-User-ID"

// ErrUnauthenticated возвращается, если запрос не несет идентификатор пользователя.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityProvider извлекает идентификатор аутентифицированного пользователя из запроса.
type IdentityProvider interface {
	UserID(r *http.Request) (string, error)
}

// HeaderIdentity доверяет заголовку X-User-ID, выставленному шлюзом перед сервисом.
type HeaderIdentity struct{}

func (HeaderIdentity) UserID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}
