package apiclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []notify.Event
}

func (p *recordingPublisher) Publish(e notify.Event) {
	p.events = append(p.events, e)
}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RateLimitBroadcastsOnceAndRejects(t *testing.T) {
	for _, path := range []string{"/auth/login", "/user/generate-edit", "/forms/subscribe"} {
		t.Run(path, func(t *testing.T) {
			srv := newServer(t, http.StatusTooManyRequests, `{"msg":"Daily API limit exceeded"}`)
			pub := &recordingPublisher{}
			c := apiclient.New(srv.URL, pub)

			resp, err := c.PostJSON(context.Background(), path, map[string]string{"a": "b"}, "")
			require.Nil(t, resp)
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrRateLimited))
			require.Equal(t, http.StatusTooManyRequests, apiclient.StatusCode(err))

			require.Len(t, pub.events, 1)
			require.Equal(t, notify.RateLimitExceeded, pub.events[0].Kind)
			require.Equal(t, "Daily API limit exceeded", pub.events[0].Message)
		})
	}
}

func TestClient_RateLimitWithoutBodyUsesDefaultMessage(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, ``)
	pub := &recordingPublisher{}
	c := apiclient.New(srv.URL, pub)

	_, err := c.Get(context.Background(), "/user/credits", "tok")
	require.Error(t, err)
	require.Equal(t, apiclient.DefaultRateLimitMessage, err.Error())
	require.Len(t, pub.events, 1)
}

func TestClient_OtherStatusesPassThrough(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv := newServer(t, status, `{"message":"hello"}`)
		pub := &recordingPublisher{}
		c := apiclient.New(srv.URL, pub)

		resp, err := c.Get(context.Background(), "/auth/user", "tok")
		require.NoError(t, err)
		require.Equal(t, status, resp.StatusCode)
		resp.Body.Close()
		require.Empty(t, pub.events)
	}
}

func TestClient_SendsAccessTokenHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("x-auth-token")
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, nil)
	resp, err := c.Get(context.Background(), "/auth/user", "access-123")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "access-123", got)
}

func TestClient_TransportErrorIsReturned(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{}`)
	srv.Close()

	c := apiclient.New(srv.URL, nil)
	_, err := c.Get(context.Background(), "/auth/user", "")
	require.Error(t, err)
	require.Zero(t, apiclient.StatusCode(err))
}

func TestClient_PostMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"filename":    hdr.Filename,
			"contentType": hdr.Header.Get("Content-Type"),
			"content":     string(content),
			"gender":      r.FormValue("gender"),
		})
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, nil)
	resp, err := c.PostMultipart(context.Background(), "/admin/assets",
		apiclient.FilePart{Field: "image", Filename: "pose.jpg", ContentType: "image/jpeg", Content: bytes.NewBufferString("jpegdata")},
		map[string]string{"gender": "FEMALE"}, "tok")
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, apiclient.DecodeResponse(resp, &out))
	require.Equal(t, "pose.jpg", out["filename"])
	require.Equal(t, "image/jpeg", out["contentType"])
	require.Equal(t, "jpegdata", out["content"])
	require.Equal(t, "FEMALE", out["gender"])
}

func TestDecodeResponse_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		sentinel error
	}{
		{"message key", http.StatusBadRequest, `{"message":"Invalid credentials"}`, "Invalid credentials", errors.ErrRequestFailed},
		{"msg key", http.StatusBadRequest, `{"msg":"User exists"}`, "User exists", errors.ErrRequestFailed},
		{"error key", http.StatusNotFound, `{"error":"missing"}`, "missing", errors.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, `not json`, "request failed with status 401", errors.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Body: io.NopCloser(strings.NewReader(tt.body))}
			err := apiclient.DecodeResponse(resp, nil)
			require.Error(t, err)
			require.Equal(t, tt.wantMsg, err.Error())
			require.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestMetrics_CountsRequestsAndRateLimits(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := apiclient.NewMetrics(reg)

	limited := newServer(t, http.StatusTooManyRequests, `{}`)
	ok := newServer(t, http.StatusOK, `{}`)

	_, _ = apiclient.New(limited.URL, nil, apiclient.WithMetrics(m)).Get(context.Background(), "/x", "")
	resp, err := apiclient.New(ok.URL, nil, apiclient.WithMetrics(m)).Get(context.Background(), "/x", "")
	require.NoError(t, err)
	resp.Body.Close()

	count, err := testutil.GatherAndCount(reg, "studio_api_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	expected := `
# HELP studio_api_rate_limited_total Responses rejected with HTTP 429.
# TYPE studio_api_rate_limited_total counter
studio_api_rate_limited_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "studio_api_rate_limited_total"))
}
