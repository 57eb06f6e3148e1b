package restapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core/document"
)

var _ document.Repository = (*Client)(nil)

func (c *Client) GroupDocuments(ctx context.Context, groupID int64) ([]document.Document, error) {
	var docs []document.Document
	err := c.get(ctx, fmt.Sprintf("/documents/group/%d", groupID), &docs)
	return docs, err
}

func (c *Client) SupervisorDocuments(ctx context.Context, supervisorID int64) ([]document.Document, error) {
	var docs []document.Document
	err := c.get(ctx, fmt.Sprintf("/documents/supervisor/%d", supervisorID), &docs)
	return docs, err
}

func (c *Client) DocumentsByStatus(ctx context.Context, status document.Status) ([]document.Document, error) {
	var docs []document.Document
	err := c.get(ctx, "/documents/status/"+string(status), &docs)
	return docs, err
}

func (c *Client) GradableDocuments(ctx context.Context) ([]document.Document, error) {
	var docs []document.Document
	err := c.get(ctx, "/documents/committee/gradable", &docs)
	return docs, err
}

func (c *Client) SubmitDocument(ctx context.Context, docID int64) (document.Document, error) {
	var doc document.Document
	err := c.put(ctx, fmt.Sprintf("/documents/%d/submit", docID), nil, &doc)
	return doc, err
}

func (c *Client) ReviewDocument(ctx context.Context, docID int64, form document.ReviewForm) (document.Document, error) {
	var doc document.Document
	err := c.put(ctx, fmt.Sprintf("/documents/%d/review", docID), form, &doc)
	return doc, err
}

func (c *Client) DocumentReviews(ctx context.Context, docID int64) ([]document.Review, error) {
	var reviews []document.Review
	err := c.get(ctx, fmt.Sprintf("/documents/%d/reviews", docID), &reviews)
	return reviews, err
}

// UploadDocument sends the file as multipart form data with the `file`, `groupId`, `title`
// and `type` fields. The body is streamed.
func (c *Client) UploadDocument(ctx context.Context, form document.UploadForm) (document.Document, error) {
	if form.File == nil {
		return document.Document{}, errors.New("upload: no file content")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUpload(mw, form))
	}()

	var doc document.Document
	err := c.send(ctx, http.MethodPost, "/documents/upload", pr, mw.FormDataContentType(), &doc)
	_ = pr.Close()
	return doc, err
}

func writeUpload(mw *multipart.Writer, form document.UploadForm) error {
	fw, err := mw.CreateFormFile("file", form.FileName)
	if err != nil {
		return errors.Wrap(err, "creating form file")
	}
	if _, err = io.Copy(fw, form.File); err != nil {
		return errors.Wrap(err, "copying file content")
	}
	fields := [][2]string{
		{"groupId", strconv.FormatInt(form.GroupID, 10)},
		{"title", form.Title},
		{"type", string(form.Type)},
	}
	for _, f := range fields {
		if err = mw.WriteField(f[0], f[1]); err != nil {
			return errors.Wrapf(err, "writing %s field", f[0])
		}
	}
	return mw.Close()
}
