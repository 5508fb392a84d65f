package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_RecordsStatusAndRequestID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestID(), Logging(zap.New(core)))
	e.GET("/x", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	check := func(cond bool, msg string, args ...any) {
		t.Helper()
		if !cond {
			t.Fatalf(msg, args...)
		}
	}
	check(rec.Code == http.StatusTeapot, "code=%d", rec.Code)
	check(rec.Header().Get(HeaderRequestID) == "abc-123", "incoming request id must be echoed")

	entries := logs.FilterMessage("http").All()
	check(len(entries) == 1, "want one access log line, got %d", len(entries))
	fields := entries[0].ContextMap()
	check(fields["status"] == int64(http.StatusTeapot), "status field: %v", fields["status"])
	check(fields["request_id"] == "abc-123", "request_id field: %v", fields["request_id"])
	check(fields["path"] == "/x", "path field: %v", fields["path"])
}

func TestRecover_ReturnsError(t *testing.T) {
	t.Parallel()

	mw := Recover()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := mw(func(echo.Context) error { panic("oh no") })(c)
	var pe *panicError
	if !errors.As(err, &pe) || len(pe.stack) == 0 || err.Error() != "panic: oh no" {
		t.Fatalf("want panicError with stack, got %v", err)
	}

	want := errors.New("plain")
	if got := mw(func(echo.Context) error { return want })(c); !errors.Is(got, want) {
		t.Fatalf("want original error, got %v", got)
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var hasDeadline bool
	h := func(c echo.Context) error {
		_, hasDeadline = c.Request().Context().Deadline()
		return nil
	}
	_ = Timeout(time.Second)(h)(c)
	if !hasDeadline {
		t.Fatalf("request context must carry a deadline")
	}
	_ = Timeout(0)(h)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	if hasDeadline {
		t.Fatalf("zero timeout must leave the context alone")
	}
}
