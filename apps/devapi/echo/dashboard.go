package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, api handler) {
	dg := g.Group("/dashboard", jwt)
	dg.GET("/student", api.dashboard(func(uid int64) (interface{}, error) { return api.store.StudentDashboard(uid) }))
	dg.GET("/supervisor", api.dashboard(func(uid int64) (interface{}, error) { return api.store.SupervisorDashboard(uid) }))
	dg.GET("/committee", api.dashboard(func(uid int64) (interface{}, error) { return api.store.CommitteeDashboard(uid) }))
	dg.GET("/fyp-committee", api.dashboard(func(uid int64) (interface{}, error) { return api.store.FYPCommitteeDashboard(uid) }))
}

func (api handler) dashboard(load func(uid int64) (interface{}, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		uid, err := contextUserID(ctx)
		if err != nil {
			return err
		}
		payload, err := load(uid)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, payload)
	}
}
