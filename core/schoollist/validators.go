package schoollist

import (
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/medatlas/medatlas/core"
)

var (
	categoryTag  = "category"
	categoryText = "category must be one of reach, target or safety"

	appStatusTag  = "appstatus"
	appStatusText = "invalid application status"
)

// InitValidators registers the school list validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(appStatusTag, appStatusValidation)
	core.RegisterCustomTranslation(validate, translator, appStatusTag, appStatusText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	fld := fl.Field()
	return fld.Kind() == reflect.String && Category(fld.String()).IsValid()
}

func appStatusValidation(fl validator.FieldLevel) bool {
	fld := fl.Field()
	return fld.Kind() == reflect.String && Status(fld.String()).IsValid()
}
