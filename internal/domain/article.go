package domain

// Article представляет нормализованную новость, полученную от провайдера.
// Все поля - строки; отсутствующие у провайдера данные заменяются пустой строкой.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

// Outcome - результат одного провайдера. Err только помечает сбой
// и никогда не возвращается вызывающему агрегатора.
type Outcome struct {
	Provider string
	Articles []Article
	Err      error
}

// Failed сообщает, завершился ли запрос к провайдеру ошибкой.
func (o Outcome) Failed() bool { return o.Err != nil }
