package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchSuccess(t *testing.T) {
	var received Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/execute", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"result":{"messageId":"42"}}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(0, testLogger())

	output, err := dispatcher.Dispatch(context.Background(), server.URL, Request{
		Type:   "reaction",
		Name:   "send_message",
		UserID: 7,
		Config: map[string]any{"channel": "general"},
		Input:  map[string]any{"text": "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"messageId": "42"}, output)
	assert.Equal(t, "reaction", received.Type)
	assert.Equal(t, "send_message", received.Name)
	assert.Equal(t, int64(7), received.UserID)
	assert.Equal(t, map[string]any{"channel": "general"}, received.Config)
	assert.Equal(t, map[string]any{"text": "hello"}, received.Input)
}

func TestDispatchServiceReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid channel"}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(0, testLogger())

	_, err := dispatcher.Dispatch(context.Background(), server.URL, Request{Name: "send_message"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDispatchFailed)
	assert.Contains(t, err.Error(), "invalid channel")
}

func TestDispatchFailureWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(0, testLogger())

	_, err := dispatcher.Dispatch(context.Background(), server.URL, Request{})
	assert.ErrorIs(t, err, ErrDispatchFailed)
}

func TestDispatchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(0, testLogger())

	_, err := dispatcher.Dispatch(context.Background(), server.URL, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDispatchFailed)
	assert.Contains(t, err.Error(), "500")
}

func TestDispatchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(20*time.Millisecond, testLogger())

	_, err := dispatcher.Dispatch(context.Background(), server.URL, Request{})
	assert.ErrorIs(t, err, ErrDispatchFailed)
}

func TestDispatchUnreachableService(t *testing.T) {
	dispatcher := NewHTTPDispatcher(100*time.Millisecond, testLogger())

	_, err := dispatcher.Dispatch(context.Background(), "http://127.0.0.1:1", Request{})
	assert.ErrorIs(t, err, ErrDispatchFailed)
}

func TestDispatchNormalizesScalarResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":"done"}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(0, testLogger())

	output, err := dispatcher.Dispatch(context.Background(), server.URL, Request{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "done"}, output)
}

func TestDispatchEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(0, testLogger())

	output, err := dispatcher.Dispatch(context.Background(), server.URL, Request{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, output)
}
