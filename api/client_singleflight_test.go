package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refreshBackend is a fake API that serves /protected behind a bearer token
// and rotates tokens on /auth/refresh. It counts refresh calls so tests can
// assert the single-flight guarantee.
type refreshBackend struct {
	mu           sync.Mutex
	validToken   string
	refreshCalls atomic.Int32
	refreshFails bool
}

func (b *refreshBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshFails {
			writeErrorEnvelope(w, http.StatusUnauthorized, "SESSION_EXPIRED", "refresh token invalid", nil)
			return
		}
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.RefreshToken == "" {
			writeErrorEnvelope(w, http.StatusUnauthorized, "SESSION_EXPIRED", "missing refresh token", nil)
			return
		}
		b.mu.Lock()
		b.validToken = "access-" + payload.RefreshToken
		token := b.validToken
		b.mu.Unlock()
		writeEnvelope(w, map[string]string{
			"accessToken":  token,
			"refreshToken": payload.RefreshToken + "-rotated",
		})
	})
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		valid := b.validToken
		b.mu.Unlock()
		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if valid == "" || auth != valid {
			writeErrorEnvelope(w, http.StatusUnauthorized, "UNAUTHORIZED", "token expired", nil)
			return
		}
		writeEnvelope(w, map[string]string{"secret": "ok"})
	})
	return mux
}

func TestClient_RefreshOn401ThenRetry(t *testing.T) {
	backend := &refreshBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Tokens().SetAccessToken("stale")
	client.Tokens().SetRefreshToken("rt-1")

	var out map[string]string
	err := client.Get(context.Background(), "/protected", &out, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", out["secret"])
	assert.Equal(t, int32(1), backend.refreshCalls.Load())
	assert.Equal(t, "access-rt-1", client.Tokens().AccessToken())
	// Rotated refresh token is persisted for the next session.
	assert.Equal(t, "rt-1-rotated", client.Tokens().RefreshToken())
}

func TestClient_ConcurrentRefreshIsSingleFlight(t *testing.T) {
	backend := &refreshBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Tokens().SetAccessToken("stale")
	client.Tokens().SetRefreshToken("rt-1")

	const workers = 16
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			var out map[string]string
			errs[i] = client.Get(context.Background(), "/protected", &out, nil)
		}(i)
	}
	start.Done()
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	// Every worker hit a 401 on the stale token, but the refresh group must
	// have collapsed them into a small number of upstream refresh calls.
	// Exactly one when all workers arrive before the first settles; a couple
	// when scheduling staggers them. Never one per worker.
	assert.LessOrEqual(t, backend.refreshCalls.Load(), int32(3))
	assert.GreaterOrEqual(t, backend.refreshCalls.Load(), int32(1))
}

func TestClient_SecondUnauthorizedAfterRefreshIsSessionExpired(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]string{"accessToken": "fresh-but-useless"})
	})
	mux.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeErrorEnvelope(w, http.StatusUnauthorized, "UNAUTHORIZED", "nope", nil)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Tokens().SetAccessToken("stale")
	client.Tokens().SetRefreshToken("rt-1")

	err := client.Get(context.Background(), "/protected", nil, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeSessionExpired, apiErr.Code)
	assert.True(t, apiErr.IsAuthError())
	// Original attempt plus exactly one post-refresh retry. No third.
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	backend := &refreshBackend{refreshFails: true}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Tokens().SetAccessToken("stale")
	client.Tokens().SetRefreshToken("rt-dead")

	err := client.Get(context.Background(), "/protected", nil, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeSessionExpired, apiErr.Code)
	assert.Empty(t, client.Tokens().AccessToken())
	assert.Empty(t, client.Tokens().RefreshToken())
}

func TestClient_NoRefreshWithoutRefreshToken(t *testing.T) {
	backend := &refreshBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Tokens().SetAccessToken("stale")

	err := client.Get(context.Background(), "/protected", nil, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeSessionExpired, apiErr.Code)
	// The refresh endpoint is never called when there is nothing to send.
	assert.Equal(t, int32(0), backend.refreshCalls.Load())
}

func TestClient_SkipAuthNeverRefreshes(t *testing.T) {
	backend := &refreshBackend{}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Tokens().SetRefreshToken("rt-1")

	err := client.Get(context.Background(), "/protected", nil, &RequestOptions{SkipAuth: true})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	// The backend's own 401 passes through untranslated.
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, int32(0), backend.refreshCalls.Load())
}
