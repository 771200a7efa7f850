package basic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/errors"
	httpx "gocrud/http"
	"gocrud/logging"
)

func newTestServer() *HttpServer {
	return NewHTTPServer(httpx.WebConfig{}, logging.NewNoopLogger())
}

func serve(srv *HttpServer, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// 全局中间件先于路由组中间件执行
func TestHttpServer_MiddlewareOrder(t *testing.T) {
	srv := newTestServer()
	order := make([]string, 0)

	srv.Use(func(ctx httpx.IHttpContext, next func() error) error {
		order = append(order, "global-before")
		err := next()
		order = append(order, "global-after")
		return err
	})
	group := srv.Group("/api")
	group.Use(func(ctx httpx.IHttpContext, next func() error) error {
		order = append(order, "group-before")
		err := next()
		order = append(order, "group-after")
		return err
	})
	group.GET("/test", func(ctx httpx.IHttpContext) error {
		order = append(order, "handler")
		return ctx.JSON(http.StatusOK, map[string]string{"ok": "1"})
	})

	rec := serve(srv, http.MethodGet, "/api/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"global-before", "group-before", "handler", "group-after", "global-after"}, order)
}

func TestHttpServer_MethodsShareParamPath(t *testing.T) {
	srv := newTestServer()
	group := srv.Group("/users")
	group.GET("/:id", func(ctx httpx.IHttpContext) error {
		return ctx.String(http.StatusOK, "get "+ctx.GetParam("id"))
	})
	group.PUT("/:id", func(ctx httpx.IHttpContext) error {
		return ctx.String(http.StatusOK, "put "+ctx.GetParam("id"))
	})
	group.GET("/archived", func(ctx httpx.IHttpContext) error {
		return ctx.String(http.StatusOK, "archived")
	})

	assert.Equal(t, "get 42", serve(srv, http.MethodGet, "/users/42", "").Body.String())
	assert.Equal(t, "put 7", serve(srv, http.MethodPut, "/users/7", "").Body.String())
	assert.Equal(t, "archived", serve(srv, http.MethodGet, "/users/archived", "").Body.String())
	assert.Equal(t, http.StatusMethodNotAllowed, serve(srv, http.MethodDelete, "/users/7", "").Code)
}

func TestHttpServer_ErrorMapping(t *testing.T) {
	srv := newTestServer()
	srv.Use(Recovery(logging.NewNoopLogger()))
	srv.GET("/missing", func(httpx.IHttpContext) error {
		return errors.NewNotFoundError("post 9 not found")
	})
	srv.GET("/invalid", func(httpx.IHttpContext) error {
		return errors.NewValidationError("bad operator").WithContext("field", "views")
	})
	srv.GET("/boom", func(httpx.IHttpContext) error {
		panic("kaboom")
	})

	rec := serve(srv, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(srv, http.MethodGet, "/invalid", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var msg struct {
		Code int            `json:"code"`
		Msg  string         `json:"msg"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "bad operator", msg.Msg)
	assert.Equal(t, "views", msg.Data["field"])
	assert.Equal(t, string(errors.ErrCodeValidation), msg.Data["error_code"])

	rec = serve(srv, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := newTestServer()
	srv.Use(RequestID())
	var seen string
	srv.GET("/ping", func(ctx httpx.IHttpContext) error {
		seen = httpx.GetRequestID(ctx.GetContext())
		return ctx.String(http.StatusOK, "pong")
	})

	rec := serve(srv, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(httpx.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(httpx.HeaderRequestID, "req-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(httpx.HeaderRequestID))
}

func TestBindJSON(t *testing.T) {
	srv := newTestServer()
	srv.POST("/echo", func(ctx httpx.IHttpContext) error {
		var payload map[string]any
		if err := ctx.BindJSON(&payload); err != nil {
			return err
		}
		return WriteSuccessResponse(ctx, payload)
	})

	rec := serve(srv, http.MethodPost, "/echo", `{"title":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"hi"`)

	assert.Equal(t, http.StatusBadRequest, serve(srv, http.MethodPost, "/echo", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(srv, http.MethodPost, "/echo", "").Code)
}

func TestParseID(t *testing.T) {
	ctx := NewBaseHttpContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/123", nil))
	ctx.SetParam("id", "123")
	id, err := ParseID(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	for _, raw := range []string{"", "abc", "0", "-5"} {
		ctx.SetParam("id", raw)
		_, err := ParseID(ctx, "id")
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetErrorCode(err), raw)
	}
}

func TestConvertPathPattern(t *testing.T) {
	assert.Equal(t, "/posts/{id}/restore", convertPathPattern("/posts/:id/restore"))
	assert.Equal(t, "/", convertPathPattern(""))
}
