package users

type MeResponse struct {
	User   UserDTO   `json:"user"`
	Access AccessDTO `json:"access"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Lastname string  `json:"lastname"`
	Tel      *string `json:"tel,omitempty"`
	Role     string  `json:"role"`
	Provider string  `json:"auth_provider"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	// CanEdit decides whether the client draws the edit-mode toggle.
	CanEdit      bool     `json:"can_edit"`
	EditorMode   string   `json:"editor_mode"`
	Capabilities []string `json:"capabilities"`
}
