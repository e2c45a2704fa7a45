package model

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	// ProjectIDs is the denormalized membership list kept on the user.
	ProjectIDs []string `json:"projects,omitempty"`
}
