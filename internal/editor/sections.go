package editor

import "errors"

// Пакет editor содержит чистую модель ручного редактора: упорядоченные
// секции внутри глав. Перетаскивание и определение цели дропа - забота
// клиента; здесь только операция над списком, которую имеет смысл
// тестировать отдельно от представления.

// Section - редактируемый фрагмент текста внутри главы.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Chapter - глава с упорядоченной последовательностью секций.
type Chapter struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Document - состояние редактора: упорядоченный набор глав.
type Document struct {
	Chapters []Chapter `json:"chapters"`
}

var (
	// ErrChapterNotFound возвращается, если глава с указанным ID отсутствует.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrIndexOutOfRange возвращается при выходе индекса за границы списка секций.
	ErrIndexOutOfRange = errors.New("section index out of range")
)

// MoveSection извлекает секцию с позиции from и вставляет ее на позицию to
// внутри той же главы. При from == to ничего не меняется.
func (d *Document) MoveSection(chapterID string, from, to int) error {
	ch := d.chapter(chapterID)
	if ch == nil {
		return ErrChapterNotFound
	}
	n := len(ch.Sections)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}

	section := ch.Sections[from]
	rest := append(ch.Sections[:from:from], ch.Sections[from+1:]...)
	sections := make([]Section, 0, n)
	sections = append(sections, rest[:to]...)
	sections = append(sections, section)
	sections = append(sections, rest[to:]...)
	ch.Sections = sections
	return nil
}

func (d *Document) chapter(id string) *Chapter {
	for i := range d.Chapters {
		if d.Chapters[i].ID == id {
			return &d.Chapters[i]
		}
	}
	return nil
}
