package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTenantIDDefaultsWhenHeaderAbsent(t *testing.T) {
	router := gin.New()
	router.Use(TenantID("default"))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Tenant(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Body.String() != "default" {
		t.Fatalf("expected default tenant, got %q", rec.Body.String())
	}
}

func TestTenantIDUsesHeader(t *testing.T) {
	router := gin.New()
	router.Use(TenantID("default"))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Tenant(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Body.String() != "acme" {
		t.Fatalf("expected acme tenant, got %q", rec.Body.String())
	}
}
