package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	devstore "github.com/trezcool/fypdesk/apps/devapi/store"
	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
)

type documentAPI struct {
	handler
	uploadDir string
}

func registerDocumentAPI(g *echo.Group, jwt echo.MiddlewareFunc, api documentAPI) {
	dg := g.Group("/documents", jwt)
	dg.GET("/group/:id", api.groupDocuments)
	dg.GET("/supervisor/:id", api.supervisorDocuments)
	dg.GET("/status/:status", api.byStatus)
	dg.GET("/committee/gradable", api.gradable)
	dg.POST("/upload", api.upload)
	dg.PUT("/:id/submit", api.submit)
	dg.PUT("/:id/review", api.review)
	dg.GET("/:id/reviews", api.reviews)
}

func (api documentAPI) groupDocuments(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	gid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	docs, err := api.store.GroupDocuments(uid, gid)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api documentAPI) supervisorDocuments(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	sid, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	docs, err := api.store.SupervisorDocuments(uid, sid)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api documentAPI) byStatus(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	status := document.Status(strings.ToUpper(ctx.Param("status")))
	docs, err := api.store.DocumentsByStatus(uid, status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api documentAPI) gradable(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	docs, err := api.store.GradableDocuments(uid)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api documentAPI) upload(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is required"})
	}
	gid, err := strconv.ParseInt(ctx.FormValue("groupId"), 10, 64)
	if err != nil || gid <= 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "groupId", Error: "groupId is required"})
	}
	form := document.UploadForm{
		Title:    ctx.FormValue("title"),
		Type:     document.Type(strings.ToUpper(ctx.FormValue("type"))),
		FileName: fh.Filename,
		GroupID:  gid,
	}
	form.Clean()
	if err = core.ValidateStruct(api.validate, api.translator, &form); err != nil {
		return err
	}

	name, err := api.save(fh)
	if err != nil {
		return err
	}
	doc, err := api.store.Upload(uid, devstore.Upload{
		GroupID:  gid,
		Title:    form.Title,
		Type:     form.Type,
		FilePath: "uploads/" + name,
	})
	if err != nil {
		_ = os.Remove(filepath.Join(api.uploadDir, name))
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

// save stores the upload under a unique, URL-safe name and returns that name.
func (api documentAPI) save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	base := slug.Make(strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)))
	if base == "" {
		base = "document"
	}
	name := uuid.New().String() + "_" + base + ext

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	if err = os.MkdirAll(api.uploadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}
	dst, err := os.Create(filepath.Join(api.uploadDir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return name, nil
}

func (api documentAPI) submit(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	doc, err := api.store.Submit(uid, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api documentAPI) review(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var form document.ReviewForm
	if err = api.bindForm(ctx, &form); err != nil {
		return err
	}
	doc, err := api.store.Review(uid, id, form.Decision, core.CleanString(form.Comments))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api documentAPI) reviews(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	reviews, err := api.store.Reviews(uid, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reviews)
}
