// Package memory provides an in-process ContactRepository. It enforces the
// same uniqueness rules as the SQL schemas and is used by tests and by
// DB_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/duynhne/contact-service/internal/core/domain"
)

// ContactRepository implements domain.ContactRepository on a map.
type ContactRepository struct {
	mu       sync.RWMutex
	contacts map[int64]domain.Contact
	nextID   int64
}

// NewContactRepository creates an empty in-memory repository.
func NewContactRepository() *ContactRepository {
	return &ContactRepository{
		contacts: make(map[int64]domain.Contact),
		nextID:   1,
	}
}

// FindContactByField returns the first contact holding value in field.
func (r *ContactRepository) FindContactByField(ctx context.Context, field domain.ContactField, value string, excludeID int64) (*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.sortedIDs() {
		if id == excludeID {
			continue
		}
		c := r.contacts[id]
		if matches(c, field, value) {
			return clone(c), nil
		}
	}
	return nil, nil
}

// GetContact retrieves a contact by ID
func (r *ContactRepository) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[id]
	if !ok {
		return nil, nil
	}
	return clone(c), nil
}

// ListContacts returns contacts in insertion order.
func (r *ContactRepository) ListContacts(ctx context.Context, skip, limit int) ([]domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.sortedIDs()
	if skip >= len(ids) || limit <= 0 {
		return []domain.Contact{}, nil
	}
	ids = ids[skip:]
	if limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]domain.Contact, 0, len(ids))
	for _, id := range ids {
		out = append(out, *clone(r.contacts[id]))
	}
	return out, nil
}

// CreateContact stores a copy of contact under a fresh id.
func (r *ContactRepository) CreateContact(ctx context.Context, contact *domain.Contact) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflict(*contact, 0); err != nil {
		return 0, err
	}
	id := r.nextID
	r.nextID++
	stored := *clone(*contact)
	stored.ID = id
	r.contacts[id] = stored
	return id, nil
}

// UpdateContact merges the present fields of update onto the stored contact.
func (r *ContactRepository) UpdateContact(ctx context.Context, id int64, update domain.ContactUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[id]
	if !ok {
		return false, nil
	}
	merged := *clone(existing)
	update.ApplyTo(&merged)
	if err := r.conflict(merged, id); err != nil {
		return false, err
	}
	r.contacts[id] = merged
	return true, nil
}

// DeleteContact removes a contact.
func (r *ContactRepository) DeleteContact(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[id]; !ok {
		return false, nil
	}
	delete(r.contacts, id)
	return true, nil
}

// Ping always succeeds.
func (r *ContactRepository) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (r *ContactRepository) Close() {}

// conflict mirrors the uq_contacts_phone and uq_contacts_email constraints.
// Caller must hold the lock.
func (r *ContactRepository) conflict(c domain.Contact, excludeID int64) error {
	for id, other := range r.contacts {
		if id != excludeID && other.Phone == c.Phone {
			return domain.ErrDuplicatePhone
		}
	}
	if c.Email == nil {
		return nil
	}
	for id, other := range r.contacts {
		if id != excludeID && other.Email != nil && *other.Email == *c.Email {
			return domain.ErrDuplicateEmail
		}
	}
	return nil
}

// sortedIDs returns ids in ascending (insertion) order. Caller must hold the lock.
func (r *ContactRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.contacts))
	for id := range r.contacts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func matches(c domain.Contact, field domain.ContactField, value string) bool {
	switch field {
	case domain.FieldPhone:
		return c.Phone == value
	case domain.FieldEmail:
		return c.Email != nil && *c.Email == value
	}
	return false
}

func clone(c domain.Contact) *domain.Contact {
	out := c
	if c.Email != nil {
		email := *c.Email
		out.Email = &email
	}
	if c.Address != nil {
		address := *c.Address
		out.Address = &address
	}
	return &out
}
