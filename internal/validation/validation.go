// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"devhabit/internal/models"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
	maxEmailLength    = 254
)

var (
	emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	urlRegex   = regexp.MustCompile(`^(http|https)://[^ "]+$`)
)

// Result collects field-level failures for one entity.
type Result struct {
	Errors []models.FieldError
}

// Add records a failure for field.
func (r *Result) Add(field, message string) {
	r.Errors = append(r.Errors, models.FieldError{Field: field, Message: message})
}

// Check records err against field when it is non-nil.
func (r *Result) Check(field string, err error) {
	if err != nil {
		r.Add(field, err.Error())
	}
}

// Valid reports whether no failures were recorded.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err converts the result into a validation AppError, or nil when valid.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return models.NewValidationError("Validation failed: "+strings.Join(msgs, "; "), r.Errors...)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength {
		return fmt.Errorf("username must be at least %d characters long", minUsernameLength)
	}
	if n > maxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", maxUsernameLength)
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword checks the plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordLength)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL without spaces or quotes.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	if !urlRegex.MatchString(raw) {
		return fmt.Errorf("invalid url format")
	}
	return nil
}

// ValidateUser checks the stored shape of a user. The password is checked
// separately because only its hash lives on the model.
func ValidateUser(u *models.User) Result {
	var r Result
	r.Check("username", ValidateUsername(u.Username))
	r.Check("email", ValidateEmail(u.Email))
	return r
}

// ValidateRegistration checks a new user together with the supplied plaintext password.
func ValidateRegistration(u *models.User, password string) Result {
	r := ValidateUser(u)
	r.Check("password", ValidatePassword(password))
	return r
}

// ValidateGoal checks a goal after metric filtering has been applied.
func ValidateGoal(g *models.Goal) Result {
	var r Result
	if g.UserID == 0 {
		r.Add("userId", "owner is required")
	}
	if g.Title == "" {
		r.Add("title", "title is required")
	}
	if g.Category == "" {
		r.Add("category", "category is required")
	} else if !g.Category.Valid() {
		r.Add("category", fmt.Sprintf("unknown category %q", string(g.Category)))
	}
	if !g.Priority.Valid() {
		r.Add("priority", "priority must be one of High, Medium, Low")
	}
	if g.CompletionDate != nil && !g.StartDate.IsZero() && g.CompletionDate.Before(g.StartDate) {
		r.Add("completionDate", "completion date must not be before start date")
	}
	for i, m := range g.Metrics {
		if m.Type == "" {
			r.Add(fmt.Sprintf("metrics[%d].type", i), "metric type is required")
		}
	}
	return r
}

// ValidateResource checks a library resource.
func ValidateResource(res *models.Resource) Result {
	var r Result
	if res.Type == "" {
		r.Add("type", "type is required")
	}
	if res.Title == "" {
		r.Add("title", "title is required")
	}
	r.Check("url", ValidateURL(res.URL))
	return r
}
