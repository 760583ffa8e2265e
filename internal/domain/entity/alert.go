package entity

import (
	"time"

	"github.com/google/uuid"
)

// Alert хранит запись о неожиданных объектах, найденных на трансляции.
type Alert struct {
	ID        string    `json:"id"`
	AnimalKey string    `json:"animal"`
	Labels    []string  `json:"labels"`
	Chats     int       `json:"chats"` // сколько чатов получили уведомление
	CreatedAt time.Time `json:"created_at"`
}

// NewAlert создаёт запись с новым идентификатором.
func NewAlert(animalKey string, labels []string, chats int) *Alert {
	return &Alert{
		ID:        uuid.NewString(),
		AnimalKey: animalKey,
		Labels:    labels,
		Chats:     chats,
		CreatedAt: time.Now().UTC(),
	}
}
