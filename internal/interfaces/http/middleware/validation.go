package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/pos"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// SetupValidator configures gin's validator: JSON field names in errors plus
// the delivery_type tag. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		binding.EnableDecoderUseNumber = true

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("delivery_type", func(fl validator.FieldLevel) bool {
			return pos.DeliveryType(fl.Field().String()).IsValid()
		})
	})
}

// ValidationMessage flattens binding errors into one readable message
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Malformed request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Field()+": "+fieldMessage(e))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "delivery_type":
		return "Must be one of: dine_in delivery takeout counter"
	default:
		return "Invalid value"
	}
}
