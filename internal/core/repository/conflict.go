// Package repository holds helpers shared by the contact store implementations.
package repository

import (
	"strings"

	"github.com/duynhne/contact-service/internal/core/domain"
)

// Names of the unique constraints declared by the SQL schemas.
const (
	PhoneConstraint = "uq_contacts_phone"
	EmailConstraint = "uq_contacts_email"
)

// ConflictFromConstraint maps a violated unique constraint, or the qualified
// column it names (e.g. "contacts.phone"), to the matching domain error.
// It returns nil when the name belongs to neither unique column.
func ConflictFromConstraint(name string) error {
	name = strings.ToLower(strings.Trim(name, "'`\" "))
	switch {
	case strings.HasSuffix(name, string(domain.FieldPhone)):
		return domain.ErrDuplicatePhone
	case strings.HasSuffix(name, string(domain.FieldEmail)):
		return domain.ErrDuplicateEmail
	}
	return nil
}

// UniqueColumn returns the column name for field, rejecting anything that is
// not a unique contact column so it can be safely spliced into SQL.
func UniqueColumn(field domain.ContactField) (string, bool) {
	switch field {
	case domain.FieldPhone, domain.FieldEmail:
		return string(field), true
	}
	return "", false
}
