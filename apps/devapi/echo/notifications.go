package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, api handler) {
	ng := g.Group("/notifications", jwt)
	ng.GET("", api.notifications)
	ng.GET("/unread", api.unreadNotifications)
	ng.GET("/unread/count", api.unreadCount)
	ng.PUT("/read-all", api.markAllRead)
	ng.PUT("/:id/read", api.markRead)
	ng.DELETE("/:id", api.deleteNotification)
	ng.DELETE("", api.deleteAllNotifications)
}

func (api handler) notifications(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.store.Notifications(uid, false))
}

func (api handler) unreadNotifications(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.store.Notifications(uid, true))
}

// unreadCount answers with a bare number.
func (api handler) unreadCount(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.store.UnreadCount(uid))
}

func (api handler) markRead(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	n, err := api.store.MarkRead(uid, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api handler) markAllRead(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	api.store.MarkAllRead(uid)
	return ctx.JSON(http.StatusOK, messageResponse{Message: "All notifications marked as read", Success: true})
}

func (api handler) deleteNotification(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.store.DeleteNotification(uid, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api handler) deleteAllNotifications(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	api.store.DeleteAllNotifications(uid)
	return ctx.NoContent(http.StatusNoContent)
}
