package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/luxury-haiti/backend-payments/internal/common"
)

func TestIdempotencyMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	var handled int
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handled++
		w.WriteHeader(http.StatusOK)
	})
	mw := common.Idem{R: client, TTL: time.Minute}.Middleware(next)

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/session", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do("abc").Code)
	require.Equal(t, 1, handled)

	rec := do("abc")
	require.Equal(t, http.StatusConflict, rec.Code, "replayed key must be rejected")
	require.Equal(t, 1, handled)
	require.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")

	require.Equal(t, http.StatusOK, do("def").Code)
	require.Equal(t, 2, handled)

	// requests without a key bypass the guard entirely
	require.Equal(t, http.StatusOK, do("").Code)
	require.Equal(t, http.StatusOK, do("").Code)
	require.Equal(t, 4, handled)
}
