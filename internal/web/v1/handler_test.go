package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/duynhne/contact-service/internal/core/repository/memory"
	logicv1 "github.com/duynhne/contact-service/internal/logic/v1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupRouter wires the contact and health routes on a fresh in-memory store.
func setupRouter(t *testing.T) (*gin.Engine, *atomic.Bool) {
	t.Helper()
	repo := memory.NewContactRepository()
	service := logicv1.NewContactService(repo)

	var shuttingDown atomic.Bool
	r := gin.New()
	NewHealthHandler(repo, "test", &shuttingDown).RegisterRoutes(r)
	NewContactHandler(service, 100).RegisterRoutes(r.Group("/api/v1"))
	return r, &shuttingDown
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeContact(t *testing.T, w *httptest.ResponseRecorder) domain.Contact {
	t.Helper()
	var c domain.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	return c
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestContactLifecycle(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"Anna","last_name":"Ivanova","phone":"+12345678901","email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeContact(t, w)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Anna", created.FirstName)
	require.NotNil(t, created.Email)
	assert.Equal(t, "a@x.com", *created.Email)
	assert.Nil(t, created.Address)

	w = do(r, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"Anna","last_name":"Ivanova","phone":"+12345678901","email":"other@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "contact with this phone already exists", errorMessage(t, w))

	w = do(r, http.MethodPut, "/api/v1/contacts/1", `{"email":"b@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeContact(t, w)
	require.NotNil(t, updated.Email)
	assert.Equal(t, "b@x.com", *updated.Email)
	assert.Equal(t, "+12345678901", updated.Phone)

	w = do(r, http.MethodDelete, "/api/v1/contacts/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/contacts/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Contact not found", errorMessage(t, w))
}

func TestCreateContactValidation(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing phone", `{"first_name":"Anna","last_name":"Ivanova"}`, "phone is required"},
		{"short phone", `{"first_name":"Anna","last_name":"Ivanova","phone":"123"}`, "phone must be at least 10 characters"},
		{"bad email", `{"first_name":"Anna","last_name":"Ivanova","phone":"+12345678901","email":"nope"}`, "email must be a valid email address"},
		{"long name", `{"first_name":"` + strings.Repeat("a", 101) + `","last_name":"Ivanova","phone":"+12345678901"}`, "first_name must be at most 100 characters"},
		{"wrong type", `{"first_name":"Anna","last_name":"Ivanova","phone":12345678901}`, "phone must be a string"},
		{"empty body", "", "Request body is required"},
		{"malformed", `{"first_name":`, "Invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/contacts", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, errorMessage(t, w), tt.want)
		})
	}
}

func TestCreateContactDuplicateEmail(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/contacts", `{"first_name":"Anna","last_name":"Ivanova","phone":"+12345678901","email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/v1/contacts", `{"first_name":"Ivan","last_name":"Petrov","phone":"+19999999999","email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "contact with this email already exists", errorMessage(t, w))
}

func TestCreateContactNullEmailsCoexist(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/v1/contacts", `{"first_name":"Anna","last_name":"Ivanova","phone":"+12345678901","email":null}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(r, http.MethodPost, "/api/v1/contacts", `{"first_name":"Ivan","last_name":"Petrov","phone":"+19999999999"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(2), decodeContact(t, w).ID)
}

func TestUpdateContact(t *testing.T) {
	r, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"Anna","last_name":"Ivanova","phone":"+12345678901","email":"a@x.com"}`).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"Ivan","last_name":"Petrov","phone":"+19999999999"}`).Code)

	t.Run("own phone", func(t *testing.T) {
		w := do(r, http.MethodPut, "/api/v1/contacts/1", `{"phone":"+12345678901"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("phone held by another contact", func(t *testing.T) {
		w := do(r, http.MethodPut, "/api/v1/contacts/2", `{"phone":"+12345678901"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "contact with this phone already exists", errorMessage(t, w))
	})

	t.Run("email held by another contact", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/api/v1/contacts/2", `{"email":"a@x.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "contact with this email already exists", errorMessage(t, w))
	})

	t.Run("address only", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/api/v1/contacts/1", `{"address":"221B Baker Street"}`)
		require.Equal(t, http.StatusOK, w.Code)
		c := decodeContact(t, w)
		require.NotNil(t, c.Address)
		assert.Equal(t, "221B Baker Street", *c.Address)
		assert.Equal(t, "Anna", c.FirstName)
		require.NotNil(t, c.Email)
		assert.Equal(t, "a@x.com", *c.Email)
	})

	t.Run("null email clears it", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/api/v1/contacts/1", `{"email":null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decodeContact(t, w).Email)
	})

	t.Run("null phone rejected", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/api/v1/contacts/1", `{"phone":null}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "phone must not be null", errorMessage(t, w))
	})

	t.Run("invalid email", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/api/v1/contacts/1", `{"email":"nope"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "email must be a valid email address", errorMessage(t, w))
	})

	t.Run("empty body is a no-op", func(t *testing.T) {
		w := do(r, http.MethodPut, "/api/v1/contacts/2", `{}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ivan", decodeContact(t, w).FirstName)
	})

	t.Run("missing contact", func(t *testing.T) {
		w := do(r, http.MethodPut, "/api/v1/contacts/99", `{"address":"x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvalidID(t *testing.T) {
	r, _ := setupRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := do(r, method, "/api/v1/contacts/abc", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, method)
		assert.Equal(t, "id must be an integer", errorMessage(t, w))
	}
	w := do(r, http.MethodPut, "/api/v1/contacts/abc", `{"address":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteMissingContact(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodDelete, "/api/v1/contacts/7", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListContacts(t *testing.T) {
	r, _ := setupRouter(t)
	phones := []string{"+10000000001", "+10000000002", "+10000000003"}
	for _, p := range phones {
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/contacts",
			`{"first_name":"N","last_name":"L","phone":"`+p+`"}`).Code)
	}

	list := func(query string) (int, []domain.Contact) {
		w := do(r, http.MethodGet, "/api/v1/contacts"+query, "")
		var contacts []domain.Contact
		if w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contacts))
		}
		return w.Code, contacts
	}

	code, contacts := list("")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, contacts, 3)

	_, contacts = list("?skip=1&limit=1")
	require.Len(t, contacts, 1)
	assert.Equal(t, phones[1], contacts[0].Phone)

	code, contacts = list("?skip=5")
	assert.Equal(t, http.StatusOK, code)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)

	code, _ = list("?skip=-1")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = list("?limit=ten")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestListContactsEmptyStoreReturnsArray(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodGet, "/api/v1/contacts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	r, shuttingDown := setupRouter(t)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Contact Management API","version":"test"}`, w.Body.String())

	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	shuttingDown.Store(true)
	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyFailsWhenStoreIsDown(t *testing.T) {
	var shuttingDown atomic.Bool
	r := gin.New()
	NewHealthHandler(downStore{}, "test", &shuttingDown).RegisterRoutes(r)

	w := do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"store_unavailable"}`, w.Body.String())
}

func TestSanitizeValidationError(t *testing.T) {
	assert.Equal(t, "", sanitizeValidationError(nil))
	assert.Equal(t, "Invalid request", sanitizeValidationError(errors.New("Key: 'X' Error:Field validation")))
	assert.Equal(t, "phone must not be null",
		sanitizeValidationError(fmt.Errorf("update contact 1: %w: phone must not be null", domain.ErrValidation)))
	assert.Equal(t, "invalid contact data", sanitizeValidationError(domain.ErrValidation))
}
