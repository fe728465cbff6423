package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryIdempotencyStore struct {
	records map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{records: make(map[string]string)}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.records[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = value.(string)
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *memoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

func chargeEcho(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"debited_seconds":10}}`))
	})
}

func postCharge(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/a1/charges", strings.NewReader(body))
	req = req.WithContext(WithAccountID(req.Context(), "a1"))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	var calls int32
	handler := Idempotency(newMemoryIdempotencyStore(), nil)(chargeEcho(&calls))

	first := postCharge(handler, "key-1", `{"seconds":10}`)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", first.Code)
	}

	second := postCharge(handler, "key-1", `{"seconds":10}`)
	if second.Code != http.StatusOK {
		t.Fatalf("expected replayed 200 got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical replayed body got %q vs %q", second.Body.String(), first.Body.String())
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected the handler to run once got %d", got)
	}
}

func TestIdempotencyRejectsReusedKeyWithNewBody(t *testing.T) {
	var calls int32
	handler := Idempotency(newMemoryIdempotencyStore(), nil)(chargeEcho(&calls))

	if rec := postCharge(handler, "key-1", `{"seconds":10}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec := postCharge(handler, "key-1", `{"seconds":999}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected the handler to run once got %d", got)
	}
}

func TestIdempotencyRequiresKey(t *testing.T) {
	var calls int32
	handler := Idempotency(newMemoryIdempotencyStore(), nil)(chargeEcho(&calls))

	rec := postCharge(handler, "", `{"seconds":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected the handler to be skipped got %d calls", got)
	}
}

func TestIdempotencyIgnoresNonPost(t *testing.T) {
	var calls int32
	handler := Idempotency(newMemoryIdempotencyStore(), nil)(chargeEcho(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/a1/quota", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected passthrough got %d calls", got)
	}
}
