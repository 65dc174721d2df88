package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newMiddlewareRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("allows exact origin", func(t *testing.T) {
		router := newMiddlewareRouter(CORSMiddleware([]string{"http://localhost:3000"}))

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
	})

	t.Run("allows wildcard origin", func(t *testing.T) {
		router := newMiddlewareRouter(CORSMiddleware([]string{"http://localhost:*"}))

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
	})

	t.Run("ignores unknown origin", func(t *testing.T) {
		router := newMiddlewareRouter(CORSMiddleware([]string{"http://localhost:3000"}))

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("handles preflight", func(t *testing.T) {
		router := newMiddlewareRouter(CORSMiddleware([]string{"http://localhost:3000"}))

		req, _ := http.NewRequest("OPTIONS", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Status = %d, want 204", w.Code)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("limits after burst is spent", func(t *testing.T) {
		// 1 request per minute: burst of 1, then 429.
		router := newMiddlewareRouter(RateLimitMiddleware(1))

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("first request Status = %d, want 200", w.Code)
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("second request Status = %d, want 429", w.Code)
		}
	})

	t.Run("bucket map stays bounded", func(t *testing.T) {
		limiters := newIPLimiters(60)

		for i := 0; i < maxTrackedClients*2+5; i++ {
			limiters.get(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		}
		if size := limiters.size(); size > maxTrackedClients {
			t.Errorf("tracked clients = %d, want <= %d", size, maxTrackedClients)
		}

		// A client seen before an eviction is still limited afterwards.
		if limiters.get("10.0.0.1") == nil {
			t.Error("get() returned nil bucket")
		}
	})

	t.Run("disabled when non-positive", func(t *testing.T) {
		router := newMiddlewareRouter(RateLimitMiddleware(0))

		for i := 0; i < 5; i++ {
			req, _ := http.NewRequest("GET", "/ping", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("request %d Status = %d, want 200", i, w.Code)
			}
		}
	})
}
