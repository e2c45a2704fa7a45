package model

import "time"

type Link struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"required"`
	URL       string    `json:"url" validate:"required,url"`
	ProjectID string    `json:"project"`
	CreatedBy *User     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
