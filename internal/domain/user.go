package domain

// User is the identity of an authenticated account as reported by the backend.
type User struct {
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

// Credentials are submitted by the login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is submitted by the register form.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
