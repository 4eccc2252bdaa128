package rate

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// codeRules mirror the CharCode rules of the feed client, so every stored code is reachable.
const codeRules = "required,len=3,alpha,uppercase"

var (
	ErrCodeRequired = errors.New("currency code is required")
	ErrCodeFormat   = errors.New("currency code must consist of 3 latin letters")
)

type CodeValidator struct {
	validate *validator.Validate
}

// ValidateCode checks the shape of an already normalized (trimmed, upper-cased) code.
func (v *CodeValidator) ValidateCode(code string) error {
	err := v.validate.Var(code, codeRules)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" {
		return ErrCodeRequired
	}
	return ErrCodeFormat
}

func NewValidator() *CodeValidator {
	return &CodeValidator{validate: validator.New()}
}
