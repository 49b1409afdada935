package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/duynhne/contact-service/internal/core/domain"
)

var registerFieldNames sync.Once

// useJSONFieldNames makes gin's validator report fields by their json/form names
// so messages read "phone is required" rather than "Phone".
func useJSONFieldNames() {
	registerFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// sanitizeValidationError returns a client-safe message for validation/binding errors.
// Never expose raw gin/go validation errors to clients (security + UX).
func sanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldErrorMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be a %s", typeErr.Field, jsonTypeName(typeErr.Type))
	}

	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}

	// Update validation builds its own field messages behind the sentinel
	if errors.Is(err, domain.ErrValidation) {
		if _, detail, ok := strings.Cut(err.Error(), domain.ErrValidation.Error()+": "); ok {
			return detail
		}
		return domain.ErrValidation.Error()
	}

	return "Invalid request"
}

func fieldErrorMessage(fe validator.FieldError) string {
	if fe.Tag() == "min" && isNumeric(fe.Kind()) {
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	}
	return domain.FieldMessage(fe.Field(), fe.Tag(), fe.Param())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "valid value"
	}
	switch {
	case t.Kind() == reflect.String:
		return "string"
	case isNumeric(t.Kind()):
		return "number"
	case t.Kind() == reflect.Bool:
		return "boolean"
	}
	return "valid value"
}
