package model

import "time"

type Task struct {
	ID          string    `json:"id"`
	Content     string    `json:"content" validate:"required"`
	ProjectID   string    `json:"project"`
	CreatedBy   *User     `json:"createdBy"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}
