package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
)

const maxErrorBody = 64 << 10

// Client talks to the FYP REST API. The bearer token is read from the token slot on every request.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  core.KeyValueStore
	logger  core.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens core.KeyValueStore, logger core.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// NewClientFromConfig builds the client configured under `api.*`.
func NewClientFromConfig(conf *core.Config, tokens core.KeyValueStore, logger core.Logger) *Client {
	return NewClient(conf.API.BaseURL, conf.API.Timeout, tokens, logger)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, dst interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dst)
}

func (c *Client) post(ctx context.Context, path string, body, dst interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, dst)
}

func (c *Client) put(ctx context.Context, path string, body, dst interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, dst)
}

func (c *Client) delete(ctx context.Context, path string, dst interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, dst)
}

// do sends a JSON request and decodes the JSON response into dst (when not nil).
func (c *Client) do(ctx context.Context, method, path string, body, dst interface{}) error {
	var (
		rdr         io.Reader
		contentType string
	)
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s", method, path)
		}
		rdr = bytes.NewReader(js)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, rdr, contentType, dst)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, dst interface{}) error {
	resp, err := c.request(ctx, method, c.baseURL+path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dst == nil {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		return nil
	}
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s", method, path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// request performs an authenticated request and turns non-2xx answers into errors.
// The caller closes the body of a successful response.
func (c *Client) request(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", method, rawURL)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token, err := c.tokens.Get(core.TokenKey)
	if err != nil {
		c.logger.Warn("reading stored token", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// decodeError reads an error response: `{"message": "..."}`, a field map, or plain text.
// 401 and 403 become *core.AuthError, anything else *core.APIError.
func decodeError(resp *http.Response) error {
	data, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg, fields := parseErrorBody(data)

	if core.IsAuthStatus(resp.StatusCode) {
		return &core.AuthError{Status: resp.StatusCode, Message: msg}
	}
	return &core.APIError{Status: resp.StatusCode, Message: msg, Fields: fields}
}

func parseErrorBody(data []byte) (string, map[string]string) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		var s string
		if json.Unmarshal(data, &s) == nil {
			return s, nil
		}
		if data[0] == '<' { // html error pages
			return "", nil
		}
		return string(data), nil
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s, nil
		}
	}
	fields := make(map[string]string)
	for k, v := range obj {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	if len(fields) == 0 {
		return "", nil
	}
	return "", fields
}

// FileURL returns the download URL of a stored file: the `/uploads`-rooted path on the API host.
func FileURL(baseURL, filePath string) string {
	p := document.NormalizeFilePath(filePath)
	if p == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return p
	}
	u.Path = p
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (c *Client) FileURL(filePath string) string {
	return FileURL(c.baseURL, filePath)
}

// Download streams a stored file into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, filePath string, w io.Writer) (int64, error) {
	fileURL := c.FileURL(filePath)
	if fileURL == "" {
		return 0, errors.New("document has no file")
	}
	resp, err := c.request(ctx, http.MethodGet, fileURL, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.Wrapf(err, "downloading %s", fileURL)
	}
	return n, nil
}
