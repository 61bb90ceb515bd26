package usecase

import (
	"context"

	"newshub/internal/domain"
)

// PreferenceStore определяет интерфейс чтения пользовательских данных.
// Для неизвестного пользователя методы возвращают пустые списки без ошибки.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) ([]string, error)
	GetReadArticleIDs(ctx context.Context, userID string) ([]string, error)
	GetFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error)
}

// ArticleSource определяет источник свежих статей для QuerySpec.
// Реализуется Aggregator; ошибок не возвращает.
type ArticleSource interface {
	Aggregate(ctx context.Context, spec domain.QuerySpec) []domain.Article
}

// ResultCache определяет хранилище агрегированных результатов по ключу запроса.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]domain.Article, bool, error)
	Put(ctx context.Context, key string, articles []domain.Article) error
}
