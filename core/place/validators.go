package place

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/medatlas/medatlas/core"
)

var (
	placeTypeTag  = "placetype"
	placeTypeText = "invalid place type"
)

// InitValidators registers the place validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(placeTypeTag, placeTypeValidation)
	core.RegisterCustomTranslation(validate, translator, placeTypeTag, placeTypeText)
}

func placeTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, typ := range Types {
		if val == typ {
			return true
		}
	}
	return false
}
