package database

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/duynhne/contact-service/middleware"
)

// TracedRepository wraps a contact store with one span per call.
type TracedRepository struct {
	next domain.ContactRepository
}

// NewTracedRepository wraps next with store-layer spans.
func NewTracedRepository(next domain.ContactRepository) *TracedRepository {
	return &TracedRepository{next: next}
}

func (r *TracedRepository) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("layer", "store"))
	return middleware.StartSpan(ctx, "store."+name, trace.WithAttributes(attrs...))
}

func (r *TracedRepository) FindContactByField(ctx context.Context, field domain.ContactField, value string, excludeID int64) (*domain.Contact, error) {
	ctx, span := r.start(ctx, "find_contact_by_field",
		attribute.String("contact.field", string(field)),
		attribute.Int64("contact.exclude_id", excludeID),
	)
	defer span.End()

	contact, err := r.next.FindContactByField(ctx, field, value, excludeID)
	if err != nil {
		middleware.RecordError(ctx, err)
	}
	return contact, err
}

func (r *TracedRepository) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	ctx, span := r.start(ctx, "get_contact", attribute.Int64("contact.id", id))
	defer span.End()

	contact, err := r.next.GetContact(ctx, id)
	if err != nil {
		middleware.RecordError(ctx, err)
	}
	return contact, err
}

func (r *TracedRepository) ListContacts(ctx context.Context, skip, limit int) ([]domain.Contact, error) {
	ctx, span := r.start(ctx, "list_contacts", attribute.Int("skip", skip), attribute.Int("limit", limit))
	defer span.End()

	contacts, err := r.next.ListContacts(ctx, skip, limit)
	if err != nil {
		middleware.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("contacts.count", len(contacts)))
	return contacts, nil
}

func (r *TracedRepository) CreateContact(ctx context.Context, contact *domain.Contact) (int64, error) {
	ctx, span := r.start(ctx, "create_contact")
	defer span.End()

	id, err := r.next.CreateContact(ctx, contact)
	if err != nil {
		middleware.RecordError(ctx, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("contact.id", id))
	return id, nil
}

func (r *TracedRepository) UpdateContact(ctx context.Context, id int64, update domain.ContactUpdate) (bool, error) {
	ctx, span := r.start(ctx, "update_contact", attribute.Int64("contact.id", id))
	defer span.End()

	ok, err := r.next.UpdateContact(ctx, id, update)
	if err != nil {
		middleware.RecordError(ctx, err)
	}
	return ok, err
}

func (r *TracedRepository) DeleteContact(ctx context.Context, id int64) (bool, error) {
	ctx, span := r.start(ctx, "delete_contact", attribute.Int64("contact.id", id))
	defer span.End()

	ok, err := r.next.DeleteContact(ctx, id)
	if err != nil {
		middleware.RecordError(ctx, err)
	}
	return ok, err
}

// Ping is not traced, like the /ready route it serves.
func (r *TracedRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *TracedRepository) Close() {
	r.next.Close()
}
