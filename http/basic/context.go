package basic

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"

	"gocrud/errors"
	httpx "gocrud/http"
)

// HttpContext 基于 net/http 的 IHttpContext 实现
type HttpContext struct {
	request *http.Request
	writer  http.ResponseWriter
	params  map[string]string
	ctx     context.Context
	status  int
	written bool
	aborted bool
	values  map[string]any
}

func NewBaseHttpContext(w http.ResponseWriter, r *http.Request) *HttpContext {
	return &HttpContext{
		request: r,
		writer:  w,
		params:  make(map[string]string),
		ctx:     r.Context(),
		status:  http.StatusOK,
		values:  make(map[string]any),
	}
}

func (c *HttpContext) GetMethod() string           { return c.request.Method }
func (c *HttpContext) GetPath() string             { return c.request.URL.Path }
func (c *HttpContext) GetQuery(key string) string  { return c.request.URL.Query().Get(key) }
func (c *HttpContext) GetParam(key string) string  { return c.params[key] }
func (c *HttpContext) GetHeader(key string) string { return c.request.Header.Get(key) }
func (c *HttpContext) GetQueryParams() url.Values  { return c.request.URL.Query() }
func (c *HttpContext) GetRequest() *http.Request   { return c.request }

func (c *HttpContext) GetBody() ([]byte, error) {
	if c.request.Body == nil {
		return nil, nil
	}
	defer c.request.Body.Close()
	body, err := io.ReadAll(c.request.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInvalidInput, "failed to read request body")
	}
	return body, nil
}

func (c *HttpContext) BindJSON(obj any) error {
	body, err := c.GetBody()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.NewError(errors.ErrCodeInvalidInput, "request body is empty")
	}
	if err := json.Unmarshal(body, obj); err != nil {
		return errors.WrapError(err, errors.ErrCodeInvalidInput, "failed to parse JSON")
	}
	return nil
}

func (c *HttpContext) ClientIP() string {
	host, _, err := net.SplitHostPort(c.request.RemoteAddr)
	if err != nil {
		return c.request.RemoteAddr
	}
	return host
}

func (c *HttpContext) SetStatus(code int)          { c.status = code }
func (c *HttpContext) SetHeader(key, value string) { c.writer.Header().Set(key, value) }
func (c *HttpContext) Written() bool               { return c.written }

func (c *HttpContext) JSON(code int, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return errors.WrapError(err, errors.ErrCodeInternal, "failed to serialize JSON")
	}
	return c.Data(code, "application/json", data)
}

func (c *HttpContext) String(code int, text string) error {
	return c.Data(code, "text/plain; charset=utf-8", []byte(text))
}

func (c *HttpContext) Data(code int, contentType string, data []byte) error {
	c.SetHeader("Content-Type", contentType)
	c.SetStatus(code)
	c.writer.WriteHeader(c.status)
	c.written = true
	_, err := c.writer.Write(data)
	return err
}

func (c *HttpContext) GetContext() context.Context    { return c.ctx }
func (c *HttpContext) SetContext(ctx context.Context) { c.ctx = ctx }

func (c *HttpContext) Set(key string, value any)  { c.values[key] = value }
func (c *HttpContext) Get(key string) (any, bool) { v, ok := c.values[key]; return v, ok }

func (c *HttpContext) Abort()          { c.aborted = true }
func (c *HttpContext) IsAborted() bool { return c.aborted }

func (c *HttpContext) SetParam(key, value string) { c.params[key] = value }

var _ httpx.IHttpContext = (*HttpContext)(nil)
