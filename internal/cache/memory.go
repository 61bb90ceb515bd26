package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"newshub/internal/domain"
)

// Memory - кэш в памяти с TTL и ограничением числа записей (LRU).
type Memory struct {
	policy

	mu     sync.Mutex
	lru    *list.List
	index  map[string]*list.Element
	hits   int64
	misses int64
}

type memoryEntry struct {
	key       string
	articles  []domain.Article
	expiresAt time.Time
}

func NewMemory(opts ...Option) *Memory {
	return &Memory{
		policy: newPolicy(opts),
		lru:    list.New(),
		index:  make(map[string]*list.Element),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]domain.Article, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	elem, ok := m.index[key]
	if !ok {
		m.misses++
		return nil, false, nil
	}
	entry := elem.Value.(*memoryEntry)
	if !m.clock().Before(entry.expiresAt) {
		m.removeElement(elem)
		m.misses++
		return nil, false, nil
	}
	m.lru.MoveToFront(elem)
	m.hits++
	return clone(entry.articles), true, nil
}

func (m *Memory) Put(_ context.Context, key string, articles []domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt := m.clock().Add(m.ttl)
	if elem, ok := m.index[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.articles = clone(articles)
		entry.expiresAt = expiresAt
		m.lru.MoveToFront(elem)
		return nil
	}
	m.index[key] = m.lru.PushFront(&memoryEntry{key: key, articles: clone(articles), expiresAt: expiresAt})
	for m.lru.Len() > m.maxEntries {
		m.removeElement(m.lru.Back())
	}
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Entries: m.lru.Len(), Hits: m.hits, Misses: m.misses}, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Init()
	m.index = make(map[string]*list.Element)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) removeElement(elem *list.Element) {
	entry := m.lru.Remove(elem).(*memoryEntry)
	delete(m.index, entry.key)
}
