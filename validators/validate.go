package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is shared by every request validator; it caches struct metadata
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("lessonkey", func(fl validator.FieldLevel) bool {
		parts := strings.Split(fl.Field().String(), "-")
		if len(parts) != 2 {
			return false
		}
		for _, p := range parts {
			if n, err := strconv.Atoi(p); err != nil || n < 0 {
				return false
			}
		}
		return true
	})
	return v
}

// Struct validates req and returns a field -> message map, empty when valid
func Struct(req interface{}) map[string]string {
	out := make(map[string]string)
	err := Validate.Struct(req)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["request"] = "Invalid request!"
		return out
	}
	for _, fe := range verrs {
		key := fe.Field()
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", field)
	case "email":
		return "Invalid email!"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long!", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", field, fe.Param())
	case "gte", "gt", "lte", "lt":
		return fmt.Sprintf("%s is out of range!", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "lessonkey":
		return "Lesson key must look like <module>-<lesson>!"
	case "hexadecimal", "len":
		return fmt.Sprintf("%s is malformed!", field)
	default:
		return fmt.Sprintf("%s is invalid!", field)
	}
}

// ParseID parses a positive integer path or body id
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
