package dto

import "strings"

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the non-sensitive projection of a user
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SignupResponse is the body of a successful signup
type SignupResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// LoginResponse is the body of a successful login. Fields are flattened
// alongside the message rather than nested under "user".
type LoginResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ValidateEmail performs a minimal structural check on the email field.
func (r *SignupRequest) ValidateEmail() (bool, string) {
	return validEmail(r.Email)
}

// ValidatePassword enforces a minimum password length.
func (r *SignupRequest) ValidatePassword() (bool, string) {
	if len(r.Password) < 8 {
		return false, "password must be at least 8 characters"
	}
	return true, ""
}

func validEmail(email string) (bool, string) {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return false, "invalid email format"
	}
	return true, ""
}
