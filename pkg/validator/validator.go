package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/makhanda-smiles/portal-api/internal/model"
)

// Rules are the domain validation tags shared by request binding and services.
var Rules = map[string]validator.Func{
	"timeslot": func(fl validator.FieldLevel) bool {
		return model.IsTimeSlot(fl.Field().String())
	},
	"catalog_service": func(fl validator.FieldLevel) bool {
		_, ok := model.LookupService(fl.Field().String())
		return ok
	},
	"document_type": func(fl validator.FieldLevel) bool {
		return model.DocumentType(fl.Field().String()).Valid()
	},
	"appointment_status": func(fl validator.FieldLevel) bool {
		return model.AppointmentStatus(fl.Field().String()).Valid()
	},
}

var messages = map[string]string{
	"required":           "is required",
	"email":              "must be a valid email address",
	"min":                "is too short",
	"max":                "is too long",
	"oneof":              "is not an allowed value",
	"timeslot":           "must be one of the clinic's time slots",
	"catalog_service":    "must be a service from the catalog",
	"document_type":      "must be one of xray, scan, report, insurance, other",
	"appointment_status": "must be one of pending, confirmed, completed, cancelled",
}

// Register installs the domain rules and json field naming on v.
func Register(v *validator.Validate) error {
	for tag, fn := range Rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

// New returns a validator with the domain rules registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Describe flattens validator errors into readable field errors.
func Describe(err error) []FieldError {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = "failed " + e.Tag() + " validation"
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

// Summary renders Describe output as one line.
func Summary(err error) string {
	fields := Describe(err)
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + " " + f.Message
	}
	return strings.Join(parts, "; ")
}
