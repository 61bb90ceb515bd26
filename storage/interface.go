package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidUser возвращается для пустого идентификатора пользователя.
var ErrInvalidUser = errors.New("invalid user id")

// Storage определяет общий интерфейс хранилища пользовательских данных:
// предпочтений и множеств прочитанных и избранных статей.
// Неизвестный пользователь читается как пустые списки.
type Storage interface {
	GetPreferences(ctx context.Context, userID string) ([]string, error)
	GetReadArticleIDs(ctx context.Context, userID string) ([]string, error)
	GetFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error)

	// UpdatePreferences заменяет список предпочтений, сохраняя порядок.
	UpdatePreferences(ctx context.Context, userID string, preferences []string) error
	// MarkRead и MarkFavorite добавляют статью в множество, повтор не меняет его.
	MarkRead(ctx context.Context, userID, articleID string) error
	MarkFavorite(ctx context.Context, userID, articleID string) error

	Close()
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	return nil
}

// normalize убирает пробелы по краям и пустые предпочтения.
func normalize(preferences []string) []string {
	out := make([]string, 0, len(preferences))
	for _, p := range preferences {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
