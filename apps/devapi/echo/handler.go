package echoapi

import (
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	devstore "github.com/trezcool/fypdesk/apps/devapi/store"
	"github.com/trezcool/fypdesk/core"
)

type cleaner interface {
	Clean()
}

// handler carries what every API group needs.
type handler struct {
	store      *devstore.Store
	validate   *validator.Validate
	translator ut.Translator
}

// bindForm binds the request body into form, cleans it and validates it.
func (h handler) bindForm(ctx echo.Context, form interface{}) error {
	if err := ctx.Bind(form); err != nil {
		return errors.Wrap(err, "binding request body")
	}
	if c, ok := form.(cleaner); ok {
		c.Clean()
	}
	return core.ValidateStruct(h.validate, h.translator, form)
}

func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}
