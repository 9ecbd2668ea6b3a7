package transport

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ToggleRequest carries the completion status the client last saw.
type ToggleRequest struct {
	IsComplete *bool `json:"isComplete"`
}
