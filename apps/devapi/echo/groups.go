package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fypdesk/core/group"
)

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, api handler) {
	gg := g.Group("/groups", jwt)
	gg.GET("/details", api.groupDetails)
	gg.POST("", api.createGroup)
	gg.PUT("/:id", api.updateGroup)
	gg.DELETE("/:id", api.deleteGroup)
	gg.POST("/:id/members", api.addGroupMember)
	gg.DELETE("/:id/members/:uid", api.removeGroupMember)
}

func (api handler) groupDetails(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	groups, err := api.store.GroupDetails(uid)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api handler) createGroup(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var form group.Form
	if err = api.bindForm(ctx, &form); err != nil {
		return err
	}
	grp, err := api.store.CreateGroup(uid, form)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api handler) updateGroup(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	gid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var form group.Form
	if err = api.bindForm(ctx, &form); err != nil {
		return err
	}
	grp, err := api.store.UpdateGroup(uid, gid, form)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api handler) deleteGroup(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	gid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.store.DeleteGroup(uid, gid); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api handler) addGroupMember(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	gid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var form group.MemberForm
	if err = api.bindForm(ctx, &form); err != nil {
		return err
	}
	grp, err := api.store.AddGroupMember(uid, gid, form.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api handler) removeGroupMember(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	gid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	memberID, err := paramID(ctx, "uid")
	if err != nil {
		return err
	}
	grp, err := api.store.RemoveGroupMember(uid, gid, memberID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}
