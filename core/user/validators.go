package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fypdesk/core"
)

var (
	roleIDTag  = "roleid"
	roleIDText = "invalid role"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleIDTag, roleIDValidation)
	core.RegisterCustomTranslation(validate, translator, roleIDTag, roleIDText)
}

// Custom Validators

// roleIDValidation checks that the role id is one of AllRoleIDs.
func roleIDValidation(fl validator.FieldLevel) bool {
	id := RoleID(fl.Field().Int())
	_, ok := RoleByID(id)
	return ok
}
