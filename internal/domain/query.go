package domain

import "strings"

// QuerySpec описывает намерение вызывающего: ключевое слово поиска
// или список предпочтений пользователя. Ключевое слово имеет приоритет.
type QuerySpec struct {
	Preferences []string `json:"preferences,omitempty"`
	Keyword     string   `json:"keyword,omitempty"`
}

// Mode - режим запроса к провайдеру.
type Mode string

const (
	ModeSearch    Mode = "search"
	ModeHeadlines Mode = "headlines"
)

// HeadlinesKey - ключ кэша для режима главных новостей.
// Пустая строка не может совпасть ни с одним поисковым запросом.
const HeadlinesKey = ""

const orSeparator = " OR "

// Query - эффективный запрос после применения правил приоритета.
type Query struct {
	Mode Mode
	Text string
}

// Resolve применяет правила приоритета к QuerySpec:
// непустое ключевое слово -> поиск по нему; иначе непустые предпочтения ->
// поиск по ним через " OR " в исходном порядке; иначе главные новости.
// Все провайдеры и построитель ключей кэша обязаны использовать только эту функцию.
func Resolve(spec QuerySpec) Query {
	if kw := strings.TrimSpace(spec.Keyword); kw != "" {
		return Query{Mode: ModeSearch, Text: kw}
	}
	if prefs := spec.Terms(); len(prefs) > 0 {
		return Query{Mode: ModeSearch, Text: strings.Join(prefs, orSeparator)}
	}
	return Query{Mode: ModeHeadlines}
}

// Key возвращает канонический ключ кэша для QuerySpec.
// Ключ совпадает с эффективным текстом запроса, поэтому спецификации,
// эквивалентные по правилам приоритета, получают одинаковый ключ.
// Ключевое слово входит в ключ без пробелов по краям, регистр сохраняется.
func Key(spec QuerySpec) string {
	q := Resolve(spec)
	if q.Mode == ModeHeadlines {
		return HeadlinesKey
	}
	return q.Text
}

// Terms возвращает термы эффективного запроса, разделенные " OR ".
// Ключевое слово "a OR b" и предпочтения ["a", "b"] дают одни и те же термы.
// Для главных новостей термов нет.
func (q Query) Terms() []string {
	if q.Mode != ModeSearch || q.Text == "" {
		return nil
	}
	var terms []string
	for _, t := range strings.Split(q.Text, orSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Terms возвращает поисковые термы: ключевое слово целиком,
// либо непустые предпочтения без пробелов по краям.
func (s QuerySpec) Terms() []string {
	if kw := strings.TrimSpace(s.Keyword); kw != "" {
		return []string{kw}
	}
	terms := make([]string, 0, len(s.Preferences))
	for _, p := range s.Preferences {
		if p = strings.TrimSpace(p); p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}
