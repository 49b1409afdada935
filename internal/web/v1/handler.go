package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/contact-service/internal/core/domain"
	logicv1 "github.com/duynhne/contact-service/internal/logic/v1"
	"github.com/duynhne/contact-service/middleware"
)

// ContactHandler handles HTTP requests for contact operations
type ContactHandler struct {
	service      *logicv1.ContactService
	defaultLimit int
}

// NewContactHandler creates a new contact handler.
// defaultLimit is the page size used when ?limit is omitted.
func NewContactHandler(service *logicv1.ContactService, defaultLimit int) *ContactHandler {
	useJSONFieldNames()
	return &ContactHandler{
		service:      service,
		defaultLimit: defaultLimit,
	}
}

// RegisterRoutes mounts the contact endpoints on rg (e.g. /api/v1)
func (h *ContactHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contacts := rg.Group("/contacts")
	{
		contacts.POST("", h.CreateContact)
		contacts.GET("", h.ListContacts)
		contacts.GET("/:id", h.GetContact)
		contacts.PUT("/:id", h.UpdateContact)
		contacts.PATCH("/:id", h.UpdateContact)
		contacts.DELETE("/:id", h.DeleteContact)
	}
}

type contactURI struct {
	ID int64 `uri:"id"`
}

type listQuery struct {
	Skip  *int `form:"skip" binding:"omitempty,min=0"`
	Limit *int `form:"limit" binding:"omitempty,min=0"`
}

// CreateContact handles POST /api/v1/contacts
func (h *ContactHandler) CreateContact(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	var req domain.ContactCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		rejectInput(c, span, logger, err)
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	contact, err := h.service.CreateContact(ctx, req)
	if err != nil {
		h.writeError(c, span, logger, "Failed to create contact", err)
		return
	}

	logger.Info("Contact created", zap.Int64("contact_id", contact.ID))
	c.JSON(http.StatusCreated, contact)
}

// ListContacts handles GET /api/v1/contacts?skip=&limit=
func (h *ContactHandler) ListContacts(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			err = errInvalidPage
		}
		rejectInput(c, span, logger, err)
		return
	}
	skip, limit := 0, h.defaultLimit
	if q.Skip != nil {
		skip = *q.Skip
	}
	if q.Limit != nil {
		limit = *q.Limit
	}

	contacts, err := h.service.ListContacts(ctx, skip, limit)
	if err != nil {
		h.writeError(c, span, logger, "Failed to list contacts", err)
		return
	}

	logger.Debug("Contacts listed", zap.Int("skip", skip), zap.Int("limit", limit), zap.Int("count", len(contacts)))
	c.JSON(http.StatusOK, contacts)
}

// GetContact handles GET /api/v1/contacts/:id
func (h *ContactHandler) GetContact(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := bindID(c, span, logger)
	if !ok {
		return
	}

	contact, err := h.service.GetContact(ctx, id)
	if err != nil {
		h.writeError(c, span, logger, "Failed to get contact", err)
		return
	}

	logger.Debug("Contact retrieved", zap.Int64("contact_id", id))
	c.JSON(http.StatusOK, contact)
}

// UpdateContact handles PUT and PATCH /api/v1/contacts/:id.
// Only fields present in the body are changed; null clears email or address.
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := bindID(c, span, logger)
	if !ok {
		return
	}

	var req domain.ContactUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		rejectInput(c, span, logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		rejectInput(c, span, logger, err)
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	contact, err := h.service.UpdateContact(ctx, id, req)
	if err != nil {
		h.writeError(c, span, logger, "Failed to update contact", err)
		return
	}

	logger.Info("Contact updated", zap.Int64("contact_id", id))
	c.JSON(http.StatusOK, contact)
}

// DeleteContact handles DELETE /api/v1/contacts/:id
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := bindID(c, span, logger)
	if !ok {
		return
	}

	if err := h.service.DeleteContact(ctx, id); err != nil {
		h.writeError(c, span, logger, "Failed to delete contact", err)
		return
	}

	logger.Info("Contact deleted", zap.Int64("contact_id", id))
	c.Status(http.StatusNoContent)
}

var (
	errInvalidID   = errors.New("id must be an integer")
	errInvalidPage = errors.New("skip and limit must be non-negative integers")
)

func startRequestSpan(c *gin.Context) (context.Context, trace.Span) {
	return middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("route", c.FullPath()),
	))
}

func bindID(c *gin.Context, span trace.Span, logger *zap.Logger) (int64, bool) {
	var uri contactURI
	if err := c.ShouldBindUri(&uri); err != nil {
		rejectInput(c, span, logger, errInvalidID)
		return 0, false
	}
	span.SetAttributes(attribute.Int64("contact.id", uri.ID))
	return uri.ID, true
}

// rejectInput answers 422 for input that never reached the service
func rejectInput(c *gin.Context, span trace.Span, logger *zap.Logger, err error) {
	span.SetAttributes(attribute.Bool("request.valid", false))
	span.RecordError(err)
	logger.Warn("Invalid request", zap.Error(err))

	msg := err.Error()
	if !errors.Is(err, errInvalidID) && !errors.Is(err, errInvalidPage) {
		msg = sanitizeValidationError(err)
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
}

// writeError maps service errors to HTTP status codes
func (h *ContactHandler) writeError(c *gin.Context, span trace.Span, logger *zap.Logger, msg string, err error) {
	span.RecordError(err)

	switch {
	case errors.Is(err, domain.ErrContactNotFound):
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
	case errors.Is(err, domain.ErrDuplicatePhone):
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrDuplicatePhone.Error()})
	case errors.Is(err, domain.ErrDuplicateEmail):
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrDuplicateEmail.Error()})
	case errors.Is(err, domain.ErrValidation):
		logger.Warn(msg, zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": sanitizeValidationError(err)})
	default:
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
