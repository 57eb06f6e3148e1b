package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fypdesk/core/user"
)

type authAPI struct {
	handler
	auth *authenticator
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, api authAPI) {
	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)
	ag.GET("/me", api.me, jwt)

	ug := g.Group("/users", jwt)
	ug.GET("/supervisors", api.supervisors)
	ug.GET("/students/available", api.availableStudents)
}

func (api authAPI) login(ctx echo.Context) error {
	var form user.LoginForm
	if err := api.bindForm(ctx, &form); err != nil {
		return err
	}
	prof, err := api.store.Authenticate(form.Email, form.Password)
	if err != nil {
		return err
	}
	token, err := api.auth.GenerateToken(prof)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user.LoginResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       prof.ID,
		Email:    prof.Email,
		FullName: prof.FullName,
		Role:     prof.RoleName,
		GroupID:  prof.GroupID,
	})
}

func (api authAPI) register(ctx echo.Context) error {
	var form user.RegisterForm
	if err := api.bindForm(ctx, &form); err != nil {
		return err
	}
	if _, err := api.store.Register(form); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "User registered successfully!", Success: true})
}

func (api authAPI) me(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	prof, err := api.store.Profile(uid)
	if err != nil {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api authAPI) supervisors(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.Supervisors())
}

func (api authAPI) availableStudents(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.AvailableStudents())
}
