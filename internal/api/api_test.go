package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorMapsCodes(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    apperror.Code
		message string
	}{
		{apperror.Unauthorized("Invalid session"), http.StatusUnauthorized, apperror.CodeUnauthorized, "Invalid session"},
		{apperror.NotFound("Conversation not found"), http.StatusNotFound, apperror.CodeNotFound, "Conversation not found"},
		{apperror.BadRequest("Conversation resolved"), http.StatusBadRequest, apperror.CodeBadRequest, "Conversation resolved"},
		{apperror.Internal("failed to write", errors.New("dynamo down")), http.StatusInternalServerError, apperror.CodeInternal, internalServerError},
		{errors.New("plain"), http.StatusInternalServerError, apperror.CodeInternal, internalServerError},
		{&HTTPError{StatusCode: http.StatusMethodNotAllowed, Message: "Method not allowed."}, http.StatusMethodNotAllowed, apperror.CodeBadRequest, "Method not allowed."},
	}

	for _, tc := range cases {
		got := FromError(tc.err)
		assert.Equal(t, tc.status, got.StatusCode, tc.err.Error())
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
		assert.Equal(t, tc.message, got.Message, tc.err.Error())
	}
}

func TestFromErrorUnwrapsWrappedAppErrors(t *testing.T) {
	err := errors.Join(errors.New("context"), apperror.NotFound("Plugin not found"))

	got := FromError(err)
	assert.Equal(t, http.StatusNotFound, got.StatusCode)
	assert.Equal(t, "Plugin not found", got.Message)
}

func newTestServer(t *testing.T, registrars ...RouteRegistrar) *httptest.Server {
	t.Helper()
	rqm := queue.NewRequestQueueManager(4, 2)
	t.Cleanup(rqm.Shutdown)

	s := NewAPIServerWithRegistry(prometheus.NewRegistry(), ":0", rqm, registrars...)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestMakeHTTPHandleFuncRendersErrors(t *testing.T) {
	srv := newTestServer(t, func(mux *http.ServeMux, s *APIServer) {
		mux.HandleFunc("/ok", s.MakeHTTPHandleFunc(func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, map[string]string{"message": "fine"})
		}))
		mux.HandleFunc("/missing", s.MakeHTTPHandleFunc(func(w http.ResponseWriter, r *http.Request) error {
			return apperror.NotFound("Conversation not found")
		}))
		mux.HandleFunc("/broken", s.MakeHTTPHandleFunc(func(w http.ResponseWriter, r *http.Request) error {
			return apperror.Internal("secret detail", errors.New("table missing"))
		}))
	})

	resp, err := http.Get(srv.URL + "/ok")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	var body ApiError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ApiError{Code: apperror.CodeNotFound, Message: "Conversation not found"}, body)

	resp, err = http.Get(srv.URL + "/broken")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(raw), "secret detail")
	assert.NotContains(t, string(raw), "table missing")
}

func TestRoutesExposeMetrics(t *testing.T) {
	srv := newTestServer(t, func(mux *http.ServeMux, s *APIServer) {
		mux.HandleFunc("/things/{id}", s.MakeHTTPHandleFunc(func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, struct{}{})
		}))
	})

	resp, err := http.Get(srv.URL + "/things/abc")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	out := string(raw)
	assert.True(t, strings.Contains(out, "support_http_requests_total"), out)
	assert.Contains(t, out, `path="/things/{id}"`)
	assert.Contains(t, out, "support_request_queue_depth")
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/", sanitizePath(""))
	assert.Equal(t, "/api/public/v1", sanitizePath("/api/public/v1/"))
	assert.Equal(t, "/api/public/v1/...", sanitizePath("/api/public/v1/threads/t1/messages"))
}
