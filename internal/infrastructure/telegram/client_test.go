package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiStub struct {
	mu       sync.Mutex
	requests []sendRequest
	failures int
}

func (s *apiStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		s.mu.Lock()
		s.requests = append(s.requests, req)
		fail := s.failures > 0
		if fail {
			s.failures--
		}
		s.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(sendResponse{OK: false, Description: "Bad Request: chat not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(sendResponse{OK: true})
	}
}

func newTestClient(baseURL string) (*Client, *[]time.Duration) {
	slept := new([]time.Duration)
	retry := RetryConfig{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		Sleep:       func(d time.Duration) { *slept = append(*slept, d) },
	}
	client := NewClientWithOptions("test-token", baseURL, http.DefaultClient, retry, zerolog.Nop())
	return client, slept
}

func TestSendSuccess(t *testing.T) {
	stub := &apiStub{}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client, slept := newTestClient(server.URL)
	client.httpClient = server.Client()

	require.NoError(t, client.SendFormatted(context.Background(), "555", "hello"))

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "555", stub.requests[0].ChatID)
	assert.Equal(t, "hello", stub.requests[0].Text)
	assert.Equal(t, "Markdown", stub.requests[0].ParseMode)
	assert.Empty(t, *slept)
}

func TestSendPlainOmitsParseMode(t *testing.T) {
	stub := &apiStub{}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client, _ := newTestClient(server.URL)
	client.httpClient = server.Client()

	require.NoError(t, client.Send(context.Background(), "555", "hello"))
	require.Len(t, stub.requests, 1)
	assert.Empty(t, stub.requests[0].ParseMode)
}

func TestSendRetriesWithLinearBackoff(t *testing.T) {
	stub := &apiStub{failures: 2}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client, slept := newTestClient(server.URL)
	client.httpClient = server.Client()

	require.NoError(t, client.Send(context.Background(), "555", "hello"))

	assert.Len(t, stub.requests, 3)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestSendExhaustsRetryBudget(t *testing.T) {
	stub := &apiStub{failures: 10}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client, slept := newTestClient(server.URL)
	client.httpClient = server.Client()

	err := client.Send(context.Background(), "555", "hello")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "555", transportErr.ChatID)
	assert.Equal(t, 3, transportErr.Attempts)
	assert.Equal(t, CauseRemoteRejected, transportErr.Cause)
	assert.Contains(t, transportErr.Error(), "chat not found")

	// No sleep after the final attempt.
	assert.Len(t, stub.requests, 3)
	assert.Len(t, *slept, 2)
}

func TestSendClassifiesUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, _ := newTestClient(server.URL)

	err := client.Send(context.Background(), "555", "hello")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, CauseUnreachable, transportErr.Cause)
}
