package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"newshub/internal/domain"
	"newshub/internal/filter"
)

// NewsService реализует бизнес-логику выдачи новостей: кэш поверх агрегатора,
// ленты по предпочтениям пользователя и списки прочитанного и избранного.
type NewsService struct {
	source ArticleSource
	cache  ResultCache
	store  PreferenceStore
	group  singleflight.Group
	log    *slog.Logger
}

// NewNewsService создает сервис. cache может быть nil, тогда каждый запрос
// уходит в агрегатор напрямую.
func NewNewsService(source ArticleSource, cache ResultCache, store PreferenceStore, log *slog.Logger) *NewsService {
	return &NewsService{
		source: source,
		cache:  cache,
		store:  store,
		log:    log.With(slog.String("component", "news-service")),
	}
}

// Articles возвращает статьи для spec из кэша, а при промахе агрегирует их
// и сохраняет в кэш. Одновременные промахи по одному ключу агрегируются один раз.
// Сбои кэша не прерывают запрос.
func (s *NewsService) Articles(ctx context.Context, spec domain.QuerySpec) []domain.Article {
	const op = "usecase.NewsService.Articles"
	key := domain.Key(spec)
	log := s.log.With(slog.String("op", op), slog.String("key", key))

	if s.cache != nil {
		articles, found, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("Cache read failed, bypassing cache", slog.Any("error", err))
		case found:
			log.Debug("Cache hit", slog.Int("count", len(articles)))
			return articles
		default:
			log.Debug("Cache miss")
		}
	}

	articles, shared, err := s.aggregate(ctx, key, spec)
	if err != nil {
		log.Warn("Cache write failed", slog.Any("error", err))
	}
	if shared {
		log.Debug("Joined in-flight aggregation")
		return append([]domain.Article(nil), articles...)
	}
	return articles
}

// Refresh агрегирует статьи для spec заново и перезаписывает запись кэша.
// Если по ключу уже идет агрегация, Refresh дожидается ее результата.
func (s *NewsService) Refresh(ctx context.Context, spec domain.QuerySpec) error {
	const op = "usecase.NewsService.Refresh"
	key := domain.Key(spec)
	start := time.Now()
	articles, _, err := s.aggregate(ctx, key, spec)
	if err != nil {
		return fmt.Errorf("%s: failed to store %q: %w", op, key, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("Cache entry refreshed",
		slog.String("op", op),
		slog.String("key", key),
		slog.Int("count", len(articles)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// News возвращает ленту пользователя по его сохраненным предпочтениям.
// Без предпочтений лента состоит из главных новостей.
func (s *NewsService) News(ctx context.Context, userID string) ([]domain.Article, error) {
	const op = "usecase.NewsService.News"
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		s.log.Error("Failed to load preferences",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Articles(ctx, domain.QuerySpec{Preferences: prefs}), nil
}

// Search возвращает статьи по ключевому слову.
func (s *NewsService) Search(ctx context.Context, keyword string) []domain.Article {
	return s.Articles(ctx, domain.QuerySpec{Keyword: keyword})
}

// ReadArticles возвращает прочитанные пользователем статьи из его текущей ленты.
// Статья пропадает из списка, когда выпадает из ленты.
func (s *NewsService) ReadArticles(ctx context.Context, userID string) ([]domain.Article, error) {
	return s.filtered(ctx, "usecase.NewsService.ReadArticles", userID, s.store.GetReadArticleIDs)
}

// FavoriteArticles возвращает избранные статьи пользователя из его текущей ленты.
func (s *NewsService) FavoriteArticles(ctx context.Context, userID string) ([]domain.Article, error) {
	return s.filtered(ctx, "usecase.NewsService.FavoriteArticles", userID, s.store.GetFavoriteArticleIDs)
}

func (s *NewsService) filtered(
	ctx context.Context,
	op string,
	userID string,
	loadIDs func(context.Context, string) ([]string, error),
) ([]domain.Article, error) {
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))
	ids, err := loadIDs(ctx, userID)
	if err != nil {
		log.Error("Failed to load article ids", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	set := filter.NewIDSet(ids...)
	if len(set) == 0 {
		return []domain.Article{}, nil
	}
	pool, err := s.News(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return filter.Filter(pool, set), nil
}

// aggregate выполняет агрегацию по key и запись в кэш не более одного раза
// одновременно. Ошибка означает только сбой записи в кэш, статьи при этом валидны.
func (s *NewsService) aggregate(ctx context.Context, key string, spec domain.QuerySpec) ([]domain.Article, bool, error) {
	v, err, shared := s.group.Do(key, func() (any, error) {
		// Результат разделяется между ожидающими, поэтому отмена одного
		// вызывающего не должна обрывать агрегацию для остальных.
		detached := context.WithoutCancel(ctx)
		articles := s.source.Aggregate(detached, spec)
		if s.cache == nil {
			return articles, nil
		}
		return articles, s.cache.Put(detached, key, articles)
	})
	return v.([]domain.Article), shared, err
}
