package document

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fypdesk/core"
)

var (
	docTypeTag  = "doctype"
	docTypeText = "{0} must be one of PROPOSAL, PROGRESS_REPORT, FINAL_REPORT or PRESENTATION"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(docTypeTag, docTypeValidation)
	core.RegisterCustomTranslation(validate, translator, docTypeTag, docTypeText)
}

// Custom Validators

// docTypeValidation checks that the value is one of Types.
func docTypeValidation(fl validator.FieldLevel) bool {
	return IsType(fl.Field().String())
}
