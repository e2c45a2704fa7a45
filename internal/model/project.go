package model

import "time"

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Owner     *User     `json:"owner"`
	Members   []*User   `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectDetail is the full project view: the project plus everything scoped
// to it.
type ProjectDetail struct {
	Project  *Project   `json:"project"`
	Tasks    []*Task    `json:"tasks"`
	Messages []*Message `json:"messages"`
	Links    []*Link    `json:"links"`
}
