package v1

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/duynhne/contact-service/middleware"
)

// ContactService holds the contact rules: field validation and phone/email
// uniqueness are checked here before the store is touched.
type ContactService struct {
	repo domain.ContactRepository
}

// NewContactService creates a new contact service on top of repo
func NewContactService(repo domain.ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

// CreateContact inserts a new contact after checking phone, then email, are free
func (s *ContactService) CreateContact(ctx context.Context, req domain.ContactCreate) (contact *domain.Contact, err error) {
	ctx, span := middleware.StartSpan(ctx, "contact.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()
	defer func() { record("create", err) }()

	if err := s.ensureUnique(ctx, domain.FieldPhone, &req.Phone, 0); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	if err := s.ensureUnique(ctx, domain.FieldEmail, req.Email, 0); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	c := req.ToContact()
	id, err := s.repo.CreateContact(ctx, &c)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create contact: %w", err)
	}
	c.ID = id

	span.SetAttributes(attribute.Int64("contact.id", id))
	span.AddEvent("contact.created")
	return &c, nil
}

// ListContacts returns up to limit contacts in id order after skipping skip
func (s *ContactService) ListContacts(ctx context.Context, skip, limit int) (contacts []domain.Contact, err error) {
	ctx, span := middleware.StartSpan(ctx, "contact.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("skip", skip),
		attribute.Int("limit", limit),
	))
	defer span.End()
	defer func() { record("list", err) }()

	if skip < 0 || limit < 0 {
		return nil, fmt.Errorf("list contacts (skip=%d, limit=%d): %w", skip, limit, domain.ErrValidation)
	}

	contacts, err = s.repo.ListContacts(ctx, skip, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	span.SetAttributes(attribute.Int("contacts.count", len(contacts)))
	return contacts, nil
}

// GetContact retrieves a contact by ID
func (s *ContactService) GetContact(ctx context.Context, id int64) (contact *domain.Contact, err error) {
	ctx, span := middleware.StartSpan(ctx, "contact.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("contact.id", id),
	))
	defer span.End()
	defer func() { record("get", err) }()

	contact, err = s.find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contact %d: %w", id, err)
	}
	return contact, nil
}

// UpdateContact applies the present fields of req to contact id.
// The contact itself is excluded from the uniqueness checks, so re-sending
// its own phone or email is not a conflict. A null email never conflicts.
func (s *ContactService) UpdateContact(ctx context.Context, id int64, req domain.ContactUpdate) (contact *domain.Contact, err error) {
	ctx, span := middleware.StartSpan(ctx, "contact.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("contact.id", id),
	))
	defer span.End()
	defer func() { record("update", err) }()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("update contact %d: %w", id, err)
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update contact %d: %w", id, err)
	}
	if req.IsEmpty() {
		return current, nil
	}

	if req.Phone.Set {
		if err := s.ensureUnique(ctx, domain.FieldPhone, req.Phone.Value, id); err != nil {
			return nil, fmt.Errorf("update contact %d: %w", id, err)
		}
	}
	if req.Email.Set {
		if err := s.ensureUnique(ctx, domain.FieldEmail, req.Email.Value, id); err != nil {
			return nil, fmt.Errorf("update contact %d: %w", id, err)
		}
	}

	updated, err := s.repo.UpdateContact(ctx, id, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update contact %d: %w", id, err)
	}
	if !updated {
		return nil, fmt.Errorf("update contact %d: %w", id, domain.ErrContactNotFound)
	}

	contact, err = s.find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload contact %d: %w", id, err)
	}
	span.AddEvent("contact.updated")
	return contact, nil
}

// DeleteContact removes a contact by ID
func (s *ContactService) DeleteContact(ctx context.Context, id int64) (err error) {
	ctx, span := middleware.StartSpan(ctx, "contact.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("contact.id", id),
	))
	defer span.End()
	defer func() { record("delete", err) }()

	deleted, err := s.repo.DeleteContact(ctx, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("delete contact %d: %w", id, domain.ErrContactNotFound)
	}
	span.AddEvent("contact.deleted")
	return nil
}

// Ping reports whether the contact store is reachable
func (s *ContactService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *ContactService) find(ctx context.Context, id int64) (*domain.Contact, error) {
	contact, err := s.repo.GetContact(ctx, id)
	if err != nil {
		middleware.RecordError(ctx, err)
		return nil, err
	}
	if contact == nil {
		middleware.AddSpanAttributes(ctx, attribute.Bool("contact.found", false))
		return nil, domain.ErrContactNotFound
	}
	return contact, nil
}

// ensureUnique fails when a contact other than excludeID holds value.
// A nil value is never checked.
func (s *ContactService) ensureUnique(ctx context.Context, field domain.ContactField, value *string, excludeID int64) error {
	if value == nil {
		return nil
	}
	holder, err := s.repo.FindContactByField(ctx, field, *value, excludeID)
	if err != nil {
		middleware.RecordError(ctx, err)
		return err
	}
	if holder != nil {
		middleware.AddSpanEvent(ctx, "contact.conflict",
			attribute.String("contact.field", string(field)),
			attribute.Int64("contact.holder_id", holder.ID),
		)
		return domain.DuplicateError(field)
	}
	return nil
}

// record counts the outcome of one operation, including conflicts caught by the store.
func record(operation string, err error) {
	switch {
	case err == nil:
		middleware.RecordContactOperation(operation, middleware.ResultSuccess)
	case errors.Is(err, domain.ErrContactNotFound):
		middleware.RecordContactOperation(operation, middleware.ResultNotFound)
	case errors.Is(err, domain.ErrDuplicatePhone):
		middleware.RecordContactOperation(operation, middleware.ResultConflict)
		middleware.RecordContactConflict(string(domain.FieldPhone))
	case errors.Is(err, domain.ErrDuplicateEmail):
		middleware.RecordContactOperation(operation, middleware.ResultConflict)
		middleware.RecordContactConflict(string(domain.FieldEmail))
	case errors.Is(err, domain.ErrValidation):
		middleware.RecordContactOperation(operation, middleware.ResultInvalid)
	default:
		middleware.RecordContactOperation(operation, middleware.ResultError)
	}
}
