package model

import "time"

// Message is immutable once created; the only mutation is deletion.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content" validate:"required"`
	ProjectID string    `json:"project"`
	Sender    *User     `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}
