package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeIdempotencyStore struct {
	entries map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{entries: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.entries[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.entries[key]; ok {
		return false, nil
	}
	s.entries[key] = value.(string)
	return true, nil
}

func (s *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "ch:idempotency:" + scope + ":" + id
}

func idempotentEndpoint(t *testing.T, store *fakeIdempotencyStore) (http.Handler, *int) {
	t.Helper()

	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"payment_reference":"CH-PAY-fixed"}}`))
	})
	return Idempotency(store, nil)(handler), &calls
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler, calls := idempotentEndpoint(t, store)

	body := `{"plan_name":"pro","billing_cycle":"monthly"}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/initiate-payment", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, 1, *calls)

	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, *calls, "handler must not run twice for the same key")
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler, _ := idempotentEndpoint(t, store)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/initiate-payment", strings.NewReader(`{"plan_name":"pro"}`))
	first.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/initiate-payment", strings.NewReader(`{"plan_name":"enterprise"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
}

func TestIdempotencyRequiresHeaderOnCoveredRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler, calls := idempotentEndpoint(t, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/initiate-payment", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, *calls)
}

func TestIdempotencySkipsUncoveredRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler, calls := idempotentEndpoint(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/current", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 1, *calls, "uncovered routes pass straight through")
	require.Empty(t, store.entries)
}
