package model

import (
	"slices"
	"time"
)

// User is a customer, translator or administrator of the booking platform.
type User struct {
	ID         int64     `json:"id" db:"id"`
	ExternalID string    `json:"-" db:"external_id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Phone      string    `json:"phone" db:"phone"`
	UserType   string    `json:"user_type" db:"user_type"`
	Gender     string    `json:"gender" db:"gender"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	// LanguageIDs lists the languages a translator works with.
	LanguageIDs []int64 `json:"language_ids,omitempty" db:"-"`
}

// Roles is the startup-configured set of role identifiers used for
// authorization decisions.
type Roles struct {
	Privileged []string
	Translator string
}

// NewRoles builds the role set from the admin, super-admin and translator identifiers.
func NewRoles(adminID, superAdminID, translatorID string) Roles {
	return Roles{
		Privileged: []string{adminID, superAdminID},
		Translator: translatorID,
	}
}

// IsAdmin reports whether u holds one of the privileged roles.
func (r Roles) IsAdmin(u *User) bool {
	if u == nil || u.UserType == "" {
		return false
	}
	return slices.Contains(r.Privileged, u.UserType)
}

// IsTranslator reports whether u may browse and accept open jobs.
func (r Roles) IsTranslator(u *User) bool {
	return u != nil && r.Translator != "" && u.UserType == r.Translator
}
