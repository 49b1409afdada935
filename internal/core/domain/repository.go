package domain

import "context"

// ContactRepository defines the interface for contact data access.
//
// Lookups return (nil, nil) when no row matches. Update and delete report
// false when the id does not exist. Implementations translate their own
// unique-constraint violations into ErrDuplicatePhone or ErrDuplicateEmail.
type ContactRepository interface {
	// FindContactByField returns a contact whose field equals value, ignoring
	// the contact with excludeID. An excludeID of 0 excludes nothing.
	FindContactByField(ctx context.Context, field ContactField, value string, excludeID int64) (*Contact, error)
	GetContact(ctx context.Context, id int64) (*Contact, error)
	ListContacts(ctx context.Context, skip, limit int) ([]Contact, error)
	CreateContact(ctx context.Context, contact *Contact) (int64, error)
	UpdateContact(ctx context.Context, id int64, update ContactUpdate) (bool, error)
	DeleteContact(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
	Close()
}
