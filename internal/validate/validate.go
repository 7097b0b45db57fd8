// Package validate wraps go-playground/validator with the shop's field rules
// and a JSON-friendly issue list.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	phoneRe = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
	zipRe   = regexp.MustCompile(`^\d{5}$`)
)

// Issue describes one failed rule.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is a validation failure carrying every issue found.
type Error struct {
	Issues []Issue `json:"issues"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Field + " " + is.Message
	}
	return "validate: " + strings.Join(parts, "; ")
}

// Add appends an issue.
func (e *Error) Add(field, rule, message string) {
	e.Issues = append(e.Issues, Issue{Field: field, Rule: rule, Message: message})
}

// Err returns e when it holds issues, nil otherwise.
func (e *Error) Err() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

// As extracts a *Error from err.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns the shared validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterValidation("naphone", func(fl validator.FieldLevel) bool {
			return IsPhone(fl.Field().String())
		})
		v.RegisterValidation("zip5", func(fl validator.FieldLevel) bool {
			return IsZip(fl.Field().String())
		})
		v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
	})
	return v
}

// IsPhone reports whether s is a North American 10-digit number with
// optional separators, e.g. "(555) 123-4567".
func IsPhone(s string) bool { return phoneRe.MatchString(s) }

// IsZip reports whether s is exactly five digits.
func IsZip(s string) bool { return zipRe.MatchString(s) }

// Struct validates s and converts failures into *Error.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &Error{}
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe), fe.Tag(), message(fe))
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read as "vehicle.make".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "eq":
		if fe.Kind() == reflect.Bool {
			return "must be accepted"
		}
		return "must equal " + fe.Param()
	case "numeric":
		return "must be a number"
	case "naphone":
		return "must be a valid 10-digit phone number"
	case "zip5":
		return "must be a 5-digit ZIP code"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}
