package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"beacon-tracker/internal/domain/device"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	err := validate.RegisterValidation("icon_token", validateIconToken)
	if err != nil {
		return
	}
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateIconToken accepts any known icon token. Unknown tokens are still
// accepted at render time (they fall back to the default glyph), so this tag is
// only applied where strictness is wanted.
func validateIconToken(fl validator.FieldLevel) bool {
	return device.KnownIcon(fl.Field().String())
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	re := regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	return re.MatchString(email)
}
