package validate

import (
	"github.com/go-playground/validator/v10"
)

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

var validate = validator.New()

func init() {
	// Payment methods accepted at checkout.
	_ = validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "cash", "card", "digital":
			return true
		}
		return false
	})
}

// Struct validates a struct against its `validate` tags and returns one
// FieldError per failed rule, or nil when the value is valid.
func Struct(data interface{}) []FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var errors []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		errors = append(errors, FieldError{
			Field: fe.StructNamespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return errors
}
