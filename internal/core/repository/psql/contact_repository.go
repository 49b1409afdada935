package psql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/duynhne/contact-service/internal/core/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const contactColumns = `id, first_name, last_name, phone, email, address`

// Schema creates the contacts table if it is missing.
const Schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id         BIGSERIAL PRIMARY KEY,
	first_name VARCHAR(100) NOT NULL,
	last_name  VARCHAR(100) NOT NULL,
	phone      VARCHAR(20)  NOT NULL,
	email      VARCHAR(320),
	address    TEXT,
	CONSTRAINT uq_contacts_phone UNIQUE (phone),
	CONSTRAINT uq_contacts_email UNIQUE (email)
)`

// ContactRepository implements domain.ContactRepository using PostgreSQL
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new PostgreSQL contact repository
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// EnsureSchema creates the contacts table and its unique constraints.
func (r *ContactRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}
	return nil
}

// FindContactByField looks up a contact by a unique column
func (r *ContactRepository) FindContactByField(ctx context.Context, field domain.ContactField, value string, excludeID int64) (*domain.Contact, error) {
	column, ok := repository.UniqueColumn(field)
	if !ok {
		return nil, fmt.Errorf("lookup by %q: unsupported field", field)
	}
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + column + ` = $1 AND id <> $2 ORDER BY id LIMIT 1`
	contact, err := scanContact(r.pool.QueryRow(ctx, query, value, excludeID))
	if err != nil {
		return nil, fmt.Errorf("query contact by %s: %w", column, err)
	}
	return contact, nil
}

// GetContact retrieves a contact by ID
func (r *ContactRepository) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	contact, err := scanContact(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("query contact: %w", err)
	}
	return contact, nil
}

// ListContacts returns a page of contacts in id order
func (r *ContactRepository) ListContacts(ctx context.Context, skip, limit int) ([]domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// CreateContact inserts a contact and returns its new id
func (r *ContactRepository) CreateContact(ctx context.Context, contact *domain.Contact) (int64, error) {
	query := `INSERT INTO contacts (first_name, last_name, phone, email, address) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		contact.FirstName, contact.LastName, contact.Phone, contact.Email, contact.Address,
	).Scan(&id)
	if err != nil {
		return 0, mapError("insert contact", err)
	}
	return id, nil
}

// UpdateContact writes the present fields of update
// Returns true if updated, false if not found
func (r *ContactRepository) UpdateContact(ctx context.Context, id int64, update domain.ContactUpdate) (bool, error) {
	query, args := buildUpdate(id, update)
	if query == "" {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, fmt.Errorf("check contact exists: %w", err)
		}
		return exists, nil
	}
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, mapError("update contact", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteContact removes a contact
// Returns true if deleted, false if not found
func (r *ContactRepository) DeleteContact(ctx context.Context, id int64) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Ping checks the pool can reach the database
func (r *ContactRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases all pooled connections
func (r *ContactRepository) Close() {
	r.pool.Close()
}

// buildUpdate renders an UPDATE statement for the present fields of update.
// It returns an empty query when nothing is present.
func buildUpdate(id int64, update domain.ContactUpdate) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.FirstName.Set {
		add("first_name", update.FirstName.Value)
	}
	if update.LastName.Set {
		add("last_name", update.LastName.Value)
	}
	if update.Phone.Set {
		add("phone", update.Phone.Value)
	}
	if update.Email.Set {
		add("email", update.Email.Value)
	}
	if update.Address.Set {
		add("address", update.Address.Value)
	}
	if len(sets) == 0 {
		return "", nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE contacts SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil if not found, let service handle it
		}
		return nil, err
	}
	return &c, nil
}

// mapError turns unique violations into domain conflicts and wraps the rest.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if conflict := repository.ConflictFromConstraint(pgErr.ConstraintName); conflict != nil {
			return fmt.Errorf("%s: %w", op, conflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
