package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestLogger_RequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestLogger(), recovery())
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"erro interno do servidor"}`, w.Body.String())

	// the server keeps serving
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := newMemStore()
	u := st.addUser(user{Username: "ana", Email: "ana@example.com"})
	m := newMetrics()
	h := newHandler(testConfig(), st, devAuth{userID: u.ID}, m)
	env := &testEnv{store: st, h: h, router: h.newRouter(), user: u}

	// the catalog points at a closed port, so this search degrades
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/foods/search?query=arroz", "").Code)
	require.Equal(t, http.StatusBadGateway, env.do(http.MethodPost, "/api/ai/chat", `{"message":"oi"}`).Code)

	w := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, want := range []string{
		`nutria_http_requests_total{method="GET",route="/api/foods/search",status="200"} 1`,
		`nutria_catalog_fallback_total 1`,
		`nutria_llm_requests_total{kind="chat",outcome="error"} 1`,
		"go_goroutines",
	} {
		assert.True(t, strings.Contains(body, want), "missing %q", want)
	}
}
