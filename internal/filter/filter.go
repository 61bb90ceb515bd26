// Package filter отбирает из готового набора статей те, чьи идентификаторы
// входят в множество прочитанных или избранных.
package filter

import "newshub/internal/domain"

// IDSet - множество идентификаторов статей.
type IDSet map[string]struct{}

// NewIDSet строит множество из списка идентификаторов, повторы схлопываются.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has сообщает, входит ли id в множество. Для nil-множества всегда false.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Filter возвращает статьи, чей ID входит в ids, сохраняя исходный порядок.
// Пустое или nil-множество дает пустой результат, а не ошибку.
func Filter(articles []domain.Article, ids IDSet) []domain.Article {
	out := make([]domain.Article, 0)
	if len(ids) == 0 {
		return out
	}
	for _, a := range articles {
		if ids.Has(a.ID) {
			out = append(out, a)
		}
	}
	return out
}
