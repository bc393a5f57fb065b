package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/shuddy05/compliancehub-backendd/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:             "test",
			Port:            "8080",
			FrontendBaseURL: "http://localhost:5173",
		},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "compliancehub-test",
			ExpirationMinutes: 10,
		},
		Paystack: config.PaystackConfig{SecretKey: "sk_test"},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(testConfig(), nil, nil, nil, nil, nil, prometheus.NewRegistry())
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-ComplianceHub-Env"))
}

func TestMetricsRouteExposed(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/subscriptions/current"},
		{http.MethodGet, "/api/v1/subscriptions/history"},
		{http.MethodGet, "/api/v1/subscriptions/billing"},
		{http.MethodGet, "/api/v1/subscriptions/usage"},
		{http.MethodPost, "/api/v1/subscriptions"},
		{http.MethodPost, "/api/v1/subscriptions/initiate-payment"},
		{http.MethodPost, "/api/v1/subscriptions/cancel"},
		{http.MethodPost, "/api/v1/subscriptions/downgrade"},
		{http.MethodPost, "/api/v1/subscriptions/upgrade"},
	}
	for _, tc := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestWebhookRouteIsPublicAndAlwaysAcks(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/webhook", strings.NewReader(`{"event":"charge.success"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":false`)
}
