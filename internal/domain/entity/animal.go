package entity

import "strings"

// Animal описывает животное, за трансляцией которого можно следить.
type Animal struct {
	Key          string `yaml:"key"`          // ключ в командах и callback-данных
	Label        string `yaml:"label"`        // метка детектора, ожидаемая на трансляции
	Emoji        string `yaml:"emoji"`        // эмодзи для сообщений
	Title        string `yaml:"title"`        // именительный падеж, мн. ч. ("Пингвины")
	Genitive     string `yaml:"genitive"`     // родительный падеж, мн. ч. ("пингвинов")
	Instrumental string `yaml:"instrumental"` // творительный падеж, мн. ч. ("пингвинами")
	Source       string `yaml:"source"`       // адрес трансляции
}

// Nominative возвращает название с эмодзи: "🐧 Пингвины".
func (a Animal) Nominative() string {
	return strings.TrimSpace(a.Emoji + " " + a.Title)
}

// IsExpected сообщает, ожидается ли метка на трансляции этого животного.
func (a Animal) IsExpected(label string) bool {
	return strings.EqualFold(a.Label, label)
}
