package v1

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(allowedOrigins string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(allowedOrigins))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	router := corsRouter("https://app.example.com, https://staging.example.com")

	w := performRequest(router, http.MethodGet, "/ping", nil, map[string]string{
		"Origin": "https://app.example.com",
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the request origin", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
}

func TestCORSWildcardEchoesOriginNotStar(t *testing.T) {
	router := corsRouter("*")

	w := performRequest(router, http.MethodGet, "/ping", nil, map[string]string{
		"Origin": "https://anywhere.example.com",
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the request origin, never *", got)
	}
}

func TestCORSSkipsDisallowedOrigin(t *testing.T) {
	router := corsRouter("https://app.example.com")

	w := performRequest(router, http.MethodGet, "/ping", nil, map[string]string{
		"Origin": "https://evil.example.com",
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for a disallowed origin, want unset", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("request itself should still be served, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := corsRouter("https://app.example.com")

	w := performRequest(router, http.MethodOptions, "/ping", nil, map[string]string{
		"Origin": "https://app.example.com",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected Access-Control-Allow-Methods on preflight")
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := performRequest(router, http.MethodGet, "/ping", nil, nil)
	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}
