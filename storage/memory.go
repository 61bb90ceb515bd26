package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// idList - множество идентификаторов с сохранением порядка добавления.
type idList struct {
	order []string
	index map[string]struct{}
}

func (l *idList) add(id string) bool {
	if l.index == nil {
		l.index = make(map[string]struct{})
	}
	if _, ok := l.index[id]; ok {
		return false
	}
	l.index[id] = struct{}{}
	l.order = append(l.order, id)
	return true
}

func (l *idList) list() []string {
	if l == nil {
		return []string{}
	}
	return append([]string{}, l.order...)
}

// MemoryUserDB хранит пользовательские данные в памяти процесса.
// Используется для разработки и тестов, данные теряются при перезапуске.
type MemoryUserDB struct {
	mu          sync.RWMutex
	preferences map[string][]string
	read        map[string]*idList
	favorites   map[string]*idList
	log         *slog.Logger
}

func NewMemoryUserDB(log *slog.Logger) *MemoryUserDB {
	log = log.With(slog.String("component", "storage"))
	log.Info("Initializing in-memory user storage")
	return &MemoryUserDB{
		preferences: make(map[string][]string),
		read:        make(map[string]*idList),
		favorites:   make(map[string]*idList),
		log:         log,
	}
}

func (db *MemoryUserDB) Close() {}

func (db *MemoryUserDB) GetPreferences(_ context.Context, userID string) ([]string, error) {
	const op = "storage.memory.GetPreferences"
	if err := checkUser(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]string{}, db.preferences[userID]...), nil
}

func (db *MemoryUserDB) GetReadArticleIDs(_ context.Context, userID string) ([]string, error) {
	const op = "storage.memory.GetReadArticleIDs"
	if err := checkUser(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.read[userID].list(), nil
}

func (db *MemoryUserDB) GetFavoriteArticleIDs(_ context.Context, userID string) ([]string, error) {
	const op = "storage.memory.GetFavoriteArticleIDs"
	if err := checkUser(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.favorites[userID].list(), nil
}

func (db *MemoryUserDB) UpdatePreferences(_ context.Context, userID string, preferences []string) error {
	const op = "storage.memory.UpdatePreferences"
	if err := checkUser(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	preferences = normalize(preferences)
	db.mu.Lock()
	db.preferences[userID] = preferences
	db.mu.Unlock()
	db.log.Debug("Preferences updated",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.Int("count", len(preferences)),
	)
	return nil
}

func (db *MemoryUserDB) MarkRead(_ context.Context, userID, articleID string) error {
	return db.mark("storage.memory.MarkRead", db.read, userID, articleID)
}

func (db *MemoryUserDB) MarkFavorite(_ context.Context, userID, articleID string) error {
	return db.mark("storage.memory.MarkFavorite", db.favorites, userID, articleID)
}

func (db *MemoryUserDB) mark(op string, sets map[string]*idList, userID, articleID string) error {
	if err := checkUser(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	db.mu.Lock()
	set, ok := sets[userID]
	if !ok {
		set = &idList{}
		sets[userID] = set
	}
	added := set.add(articleID)
	db.mu.Unlock()
	db.log.Debug("Article marked",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("article_id", articleID),
		slog.Bool("added", added),
	)
	return nil
}
