package memory

import (
	"context"
	"testing"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seed(t *testing.T, repo *ContactRepository, phone string, email *string) int64 {
	t.Helper()
	id, err := repo.CreateContact(context.Background(), &domain.Contact{
		FirstName: "Erika",
		LastName:  "Mustermann",
		Phone:     phone,
		Email:     email,
	})
	require.NoError(t, err)
	return id
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	repo := NewContactRepository()
	assert.Equal(t, int64(1), seed(t, repo, "+490815471100", nil))
	assert.Equal(t, int64(2), seed(t, repo, "+490815471101", nil))
}

// TestCreateEnforcesUniqueness mirrors the unique constraints of the SQL schema.
func TestCreateEnforcesUniqueness(t *testing.T) {
	repo := NewContactRepository()
	ctx := context.Background()
	seed(t, repo, "+490815471100", strPtr("erika@example.com"))

	_, err := repo.CreateContact(ctx, &domain.Contact{FirstName: "A", LastName: "B", Phone: "+490815471100"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePhone)

	_, err = repo.CreateContact(ctx, &domain.Contact{FirstName: "A", LastName: "B", Phone: "+490815471199", Email: strPtr("erika@example.com")})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// null emails never conflict
	seed(t, repo, "+490815471102", nil)
	seed(t, repo, "+490815471103", nil)
}

func TestFindContactByFieldExcludesID(t *testing.T) {
	repo := NewContactRepository()
	ctx := context.Background()
	id := seed(t, repo, "+490815471100", strPtr("erika@example.com"))

	found, err := repo.FindContactByField(ctx, domain.FieldPhone, "+490815471100", 0)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)

	found, err = repo.FindContactByField(ctx, domain.FieldPhone, "+490815471100", id)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindContactByField(ctx, domain.FieldEmail, "erika@example.com", 0)
	require.NoError(t, err)
	require.NotNil(t, found)

	found, err = repo.FindContactByField(ctx, domain.FieldEmail, "nobody@example.com", 0)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGetContactReturnsCopy(t *testing.T) {
	repo := NewContactRepository()
	ctx := context.Background()
	id := seed(t, repo, "+490815471100", strPtr("erika@example.com"))

	got, err := repo.GetContact(ctx, id)
	require.NoError(t, err)
	*got.Email = "changed@example.com"

	again, err := repo.GetContact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "erika@example.com", *again.Email)

	missing, err := repo.GetContact(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListContactsSkipAndLimit(t *testing.T) {
	repo := NewContactRepository()
	ctx := context.Background()
	for _, phone := range []string{"+490000000001", "+490000000002", "+490000000003", "+490000000004"} {
		seed(t, repo, phone, nil)
	}

	all, err := repo.ListContacts(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, int64(1), all[0].ID)

	page, err := repo.ListContacts(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)
	assert.Equal(t, int64(3), page[1].ID)

	empty, err := repo.ListContacts(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := repo.ListContacts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateContact(t *testing.T) {
	repo := NewContactRepository()
	ctx := context.Background()
	id := seed(t, repo, "+490815471100", strPtr("erika@example.com"))
	other := seed(t, repo, "+490815471101", strPtr("max@example.com"))

	ok, err := repo.UpdateContact(ctx, id, domain.ContactUpdate{Address: domain.Some("Hauptstraße 1")})
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := repo.GetContact(ctx, id)
	assert.Equal(t, "Hauptstraße 1", *got.Address)
	assert.Equal(t, "+490815471100", got.Phone)

	_, err = repo.UpdateContact(ctx, other, domain.ContactUpdate{Email: domain.Some("erika@example.com")})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	ok, err = repo.UpdateContact(ctx, 99, domain.ContactUpdate{Address: domain.Some("x")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteContact(t *testing.T) {
	repo := NewContactRepository()
	ctx := context.Background()
	id := seed(t, repo, "+490815471100", nil)

	ok, err := repo.DeleteContact(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeleteContact(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
