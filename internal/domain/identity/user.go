// Package identity holds the signed-in user and the persisted session.
package identity

import (
	"regexp"
	"strings"

	"github.com/alfalah/schooladmin/internal/domain/shared"
)

// Error codes
const (
	CodeInvalidEmail     = "INVALID_EMAIL"
	CodeInvalidPassword  = "INVALID_PASSWORD"
	CodeInvalidName      = "INVALID_NAME"
	CodePasswordMismatch = "PASSWORD_MISMATCH"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
)

var (
	ErrPasswordMismatch = shared.NewValidationError(CodePasswordMismatch, "New password and confirm password do not match")
	ErrNotAuthenticated = shared.NewDomainError(CodeNotAuthenticated, "You must be logged in")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is an operator account of the admin application
type User struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
}

// FullName returns "first last"
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Credentials are what the login form submits
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewCredentials normalizes and checks login input
func NewCredentials(email, password string) (Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return Credentials{}, err
	}
	if password == "" {
		return Credentials{}, shared.NewValidationError(CodeInvalidPassword, "Password cannot be empty")
	}
	return Credentials{Email: email, Password: password}, nil
}

// Registration is the sign-up form
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// NewRegistration validates a sign-up form
func NewRegistration(firstName, lastName, email, password string) (Registration, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return Registration{}, shared.NewValidationError(CodeInvalidName, "First and last name are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return Registration{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return Registration{}, err
	}
	return Registration{FirstName: firstName, LastName: lastName, Email: email, Password: password}, nil
}

// PasswordChange is the profile page's update-password form
type PasswordChange struct {
	UserID          string `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// NewPasswordChange checks that the confirmation matches before anything is sent
func NewPasswordChange(userID, current, next, confirm string) (PasswordChange, error) {
	if userID == "" {
		return PasswordChange{}, ErrNotAuthenticated
	}
	if current == "" {
		return PasswordChange{}, shared.NewValidationError(CodeInvalidPassword, "Current password is required")
	}
	if next != confirm {
		return PasswordChange{}, ErrPasswordMismatch
	}
	if err := ValidatePassword(next); err != nil {
		return PasswordChange{}, err
	}
	return PasswordChange{UserID: userID, CurrentPassword: current, NewPassword: next}, nil
}

// ValidateEmail checks the address format
func ValidateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError(CodeInvalidEmail, "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError(CodeInvalidEmail, "Invalid email format")
	}
	return nil
}

// ValidatePassword enforces the minimum password length
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewValidationError(CodeInvalidPassword, "Password must be at least 6 characters")
	}
	if len(password) > 128 {
		return shared.NewValidationError(CodeInvalidPassword, "Password cannot exceed 128 characters")
	}
	return nil
}
