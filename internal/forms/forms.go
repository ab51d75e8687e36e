// Package forms binds and validates the HTML form submissions.
package forms

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"socialblog/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Errors maps a form field name to its message. The key "__all__" holds form-wide errors.
type Errors map[string]string

// NonField is the key for errors not tied to one input.
const NonField = "__all__"

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Add records msg for field unless one is already present.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Merge copies other's errors into e.
func (e Errors) Merge(other Errors) {
	for k, v := range other {
		e.Add(k, v)
	}
}

// Valid reports whether no errors were recorded.
func (e Errors) Valid() bool {
	return len(e) == 0
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return validation.ValidateUsername(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return validation.ValidatePassword(fl.Field().String()) == nil
		})
		validate = v
	})
	return validate
}

// Bind parses the request body into form and trims every string field.
func Bind(c *fiber.Ctx, form any) error {
	if err := c.BodyParser(form); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	trimStrings(form)
	return nil
}

// Validate runs the struct tags on form and returns per-field messages.
func Validate(form any) Errors {
	errs := Errors{}
	err := instance().Struct(form)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonField, err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	value, _ := fe.Value().(string)
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(value)))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), len([]rune(value)))
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		if err := validation.ValidateUsername(value); err != nil {
			return capitalize(err.Error()) + "."
		}
	case "password":
		if err := validation.ValidatePassword(value); err != nil {
			return capitalize(err.Error()) + "."
		}
	}
	return "Enter a valid value."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// trimStrings strips surrounding whitespace from exported string fields,
// except those tagged `trim:"false"`.
func trimStrings(form any) {
	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() || t.Field(i).Tag.Get("trim") == "false" {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}
