package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/grade"
)

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, api handler) {
	gg := g.Group("/grades", jwt)
	gg.GET("/group/:id", api.groupGrades)
	gg.POST("", api.createGrade)
	gg.PUT("/:id/finalize", api.finalizeGrade)

	dg := g.Group("/deadlines", jwt)
	dg.GET("", api.deadlines)
	dg.POST("", api.createDeadline)
	dg.DELETE("/:id", api.deleteDeadline)
}

func (api handler) groupGrades(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	gid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	grades, err := api.store.GroupGrades(uid, gid)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api handler) createGrade(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var form grade.Form
	if err = api.bindForm(ctx, &form); err != nil {
		return err
	}
	g, err := api.store.CreateGrade(uid, form)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api handler) finalizeGrade(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	g, err := api.store.FinalizeGrade(uid, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api handler) deadlines(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.Deadlines())
}

func (api handler) createDeadline(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var form deadline.Form
	if err = api.bindForm(ctx, &form); err != nil {
		return err
	}
	d, err := api.store.CreateDeadline(uid, form)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api handler) deleteDeadline(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.store.DeleteDeadline(uid, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
