package router

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/validation"
)

// useJSONFieldNames makes binding failures name fields the way the client
// sent them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
}

// bindingErrors converts request binding failures into localized field
// errors. ok is false when err is not a validation failure.
func bindingErrors(err error, locale string) (errs validation.Errors, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	for _, fe := range verrs {
		field := fe.Field()
		numeric := fe.Kind() >= reflect.Int && fe.Kind() <= reflect.Float64
		switch {
		case fe.Tag() == "min" || fe.Tag() == "max" || (fe.Tag() == "required" && numeric):
			// quantities are the only ranged fields in request bodies
			errs = append(errs, validation.FieldError(locale, field, validation.CodeOutOfRange, field, models.MinItemQuantity, models.MaxItemQuantity))
		case fe.Tag() == "required":
			errs = append(errs, validation.FieldError(locale, field, validation.CodeRequired, field))
		default:
			errs = append(errs, validation.FieldError(locale, field, validation.CodeInvalidValue, field))
		}
	}
	return errs, true
}
