package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"contentfp/resilience"

	"github.com/gin-gonic/gin"
)

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	registry := resilience.NewRegistry(5, 0, 1.0, 2)
	router := gin.New()
	router.Use(TenantID("default"))
	router.Use(RateLimit(registry))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	registry := resilience.NewRegistry(5, 0, 0.0001, 1)
	router := gin.New()
	router.Use(TenantID("default"))
	router.Use(RateLimit(registry))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", second.Code)
	}
}
