package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UseFormFieldNames makes gin's validator report fields by their form tag
// instead of the Go field name.
func UseFormFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// FromBinding maps a gin bind error to field errors under scope.
func FromBinding(scope string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(Errors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{
				Loc:  []string{scope, fe.Field()},
				Msg:  bindingMessage(fe),
				Type: "value_error." + fe.Tag(),
			})
		}
		return out
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return Errors{{
			Loc:  []string{scope},
			Msg:  fmt.Sprintf("value %q is not a valid integer", numErr.Num),
			Type: "type_error.integer",
		}}
	}

	return Errors{{Loc: []string{scope}, Msg: err.Error(), Type: "value_error"}}
}

func bindingMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "field required"
	case "max":
		if isString {
			return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
