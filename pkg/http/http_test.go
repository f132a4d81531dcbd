package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ideaQuery struct {
	Open float64 `query:"open" validate:"gt=0"`
	ATR  float64 `query:"atr" default:"100" validate:"gt=0"`
	Mode string  `query:"mode" validate:"omitempty,oneof=fast slow"`
}

func newCtx(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequest(t *testing.T) {
	c, _ := newCtx("/?open=100")
	var q ideaQuery
	require.Nil(t, ReadAndValidateRequest(c, &q))
	assert.Equal(t, 100.0, q.Open)
	assert.Equal(t, 100.0, q.ATR)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	c, _ := newCtx("/?open=0&mode=warp")
	var q ideaQuery
	errs := ReadAndValidateRequest(c, &q)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_GT", errs[0].Code)
	assert.Equal(t, "open", errs[0].Field)
	assert.Equal(t, "ERR_ONEOF", errs[1].Code)
	assert.Equal(t, []string{"fast", "slow"}, errs[1].Params["options"])
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	c, _ := newCtx("/?open=abc")
	var q ideaQuery
	errs := ReadAndValidateRequest(c, &q)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newCtx("/")
	err := NotFoundErrorf("run %s not found", "abc").WithError(errors.New("miss"))
	require.NoError(t, AppErrorResponse(c, err))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_NOT_FOUND"`)
	assert.Contains(t, rec.Body.String(), "run abc not found")
}

func TestServerRoutesAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := HandlerGroup{
		HandlerFunc(func(e *echo.Echo) {
			e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
			e.GET("/busy", func(c echo.Context) error { return ConflictError("busy") })
		}),
	}
	s := NewServer(h, nil, WithMetrics("/metrics", "t", reg))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/busy", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_CONFLICT")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `t_http_requests_total{method="GET",route="/ping",status="200"} 1`))
}
