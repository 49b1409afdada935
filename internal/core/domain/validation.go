package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field rules for contact updates. They mirror the binding tags on ContactCreate.
const (
	nameRule  = "min=1,max=100"
	phoneRule = "min=10,max=20"
	emailRule = "email"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the present fields of an update against the create-time
// constraints. first_name, last_name and phone may not be cleared.
func (u ContactUpdate) Validate() error {
	var problems []string
	check := func(field string, o Optional[string], rule string, nullable bool) {
		if !o.Set {
			return
		}
		if o.Value == nil {
			if !nullable {
				problems = append(problems, field+" must not be null")
			}
			return
		}
		if err := validate.Var(*o.Value, rule); err != nil {
			problems = append(problems, describe(field, err)...)
		}
	}
	check("first_name", u.FirstName, nameRule, false)
	check("last_name", u.LastName, nameRule, false)
	check("phone", u.Phone, phoneRule, false)
	check("email", u.Email, emailRule, true)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// FieldMessage renders one failed validation rule for a client.
func FieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " is invalid"
	}
}

func describe(field string, err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{field + " is invalid"}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldMessage(field, fe.Tag(), fe.Param()))
	}
	return out
}
