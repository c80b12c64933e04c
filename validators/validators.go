// Package validators adapts go-playground/validator to Echo's Validator
// interface and registers the custom rules request DTOs rely on.
package validators

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var usernamePattern = regexp.MustCompile(`^\w+$`)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// username: letters, digits and underscore only (length is checked
	// by the min/max tags alongside it).
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	// post_content: at most two consecutive newlines.
	_ = v.RegisterValidation("post_content", func(fl validator.FieldLevel) bool {
		return !strings.Contains(fl.Field().String(), "\n\n\n")
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
