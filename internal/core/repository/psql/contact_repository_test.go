package psql

import (
	"errors"
	"testing"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestBuildUpdate(t *testing.T) {
	query, args := buildUpdate(17, domain.ContactUpdate{
		Phone: domain.Some("+12345678901"),
		Email: domain.Null[string](),
	})
	assert.Equal(t, "UPDATE contacts SET phone = $1, email = $2 WHERE id = $3", query)
	assert.Len(t, args, 3)
	assert.Equal(t, "+12345678901", *args[0].(*string))
	assert.Nil(t, args[1].(*string))
	assert.Equal(t, int64(17), args[2])
}

func TestBuildUpdateEmpty(t *testing.T) {
	query, args := buildUpdate(17, domain.ContactUpdate{})
	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestMapError(t *testing.T) {
	phone := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "uq_contacts_phone"}
	assert.ErrorIs(t, mapError("insert contact", phone), domain.ErrDuplicatePhone)

	email := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "uq_contacts_email"}
	assert.ErrorIs(t, mapError("insert contact", email), domain.ErrDuplicateEmail)

	other := errors.New("connection reset")
	err := mapError("insert contact", other)
	assert.ErrorIs(t, err, other)
	assert.False(t, errors.Is(err, domain.ErrDuplicatePhone))
	assert.Equal(t, "insert contact: connection reset", err.Error())
}
