package validation

import (
	"github.com/go-playground/validator/v10"

	"townbook/util/schedule"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	// "hhmm" checks zero-padded 24-hour clock times.
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return schedule.ValidClock(fl.Field().String())
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// Raw exposes the underlying validator so controllers share the custom rules.
func (v *Validator) Raw() *validator.Validate { return v.v }
