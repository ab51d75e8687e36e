// Package validation holds the account field rules used by the registration and profile forms.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Password length bounds, in characters.
const (
	PasswordMinLength = 12
	PasswordMaxLength = 128
	UsernameMinLength = 3
	UsernameMaxLength = 30
	EmailMaxLength    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
	specialRegex  = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)
)

// Names that would be confusing as /user/<name> or impersonate staff.
var reservedUsernames = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"login":    {},
	"logout":   {},
	"media":    {},
	"profile":  {},
	"register": {},
	"root":     {},
	"search":   {},
	"static":   {},
	"support":  {},
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters long", PasswordMinLength)
	}
	if n > PasswordMaxLength {
		return fmt.Errorf("password must not exceed %d characters", PasswordMaxLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	if !specialRegex.MatchString(password) {
		return errors.New("password must contain at least one special character (!@#$%^&*)")
	}

	return nil
}

// ValidateUsername checks length, charset, edge characters and reserved names.
func ValidateUsername(username string) error {
	if len(username) < UsernameMinLength {
		return fmt.Errorf("username must be at least %d characters long", UsernameMinLength)
	}
	if len(username) > UsernameMaxLength {
		return fmt.Errorf("username must not exceed %d characters", UsernameMaxLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username can only contain letters, numbers, underscores, and hyphens")
	}
	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return errors.New("username cannot start or end with underscore or hyphen")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("this username is reserved")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > EmailMaxLength {
		return fmt.Errorf("email must not exceed %d characters", EmailMaxLength)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}
