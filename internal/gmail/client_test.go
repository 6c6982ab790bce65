package gmail

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/monitoring"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.GmailConfig{
		APIBase:   server.URL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}, nil, zap.NewNop())
	return client, server
}

func TestClientListMessages(t *testing.T) {
	t.Run("透传查询参数并解析响应", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotQuery map[string][]string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"messages": [{"id": "m1", "threadId": "t1"}, {"id": "m2", "threadId": "t2"}],
				"nextPageToken": "token-next",
				"resultSizeEstimate": 2
			}`))
		}))

		resp, err := client.ListMessages(context.Background(), "access-token", 25, "is:unread", "page-1")
		require.NoError(t, err)

		assert.Equal(t, "/users/me/messages", gotPath)
		assert.Equal(t, "Bearer access-token", gotAuth)
		assert.Equal(t, []string{"25"}, gotQuery["maxResults"])
		assert.Equal(t, []string{"is:unread"}, gotQuery["q"])
		assert.Equal(t, []string{"page-1"}, gotQuery["pageToken"])

		require.Len(t, resp.Messages, 2)
		assert.Equal(t, "m1", resp.Messages[0].ID)
		assert.Equal(t, "token-next", resp.NextPageToken)
	})

	t.Run("空query与pageToken不出现在URL中", func(t *testing.T) {
		var gotQuery map[string][]string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Write([]byte(`{}`))
		}))

		_, err := client.ListMessages(context.Background(), "tok", 50, "", "")
		require.NoError(t, err)
		assert.NotContains(t, gotQuery, "q")
		assert.NotContains(t, gotQuery, "pageToken")
	})

	t.Run("非2xx返回UpstreamError并保留上游原文", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": {"code": 403, "message": "Insufficient Permission"}}`))
		}))

		_, err := client.ListMessages(context.Background(), "tok", 10, "", "")
		require.Error(t, err)

		var upstream *UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
		assert.Contains(t, upstream.Body, "Insufficient Permission")
	})
}

func TestClientGetMessage(t *testing.T) {
	t.Run("请求format=full并解析MIME树", func(t *testing.T) {
		var gotPath, gotFormat string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotFormat = r.URL.Query().Get("format")
			w.Write([]byte(`{
				"id": "m1",
				"threadId": "t1",
				"snippet": "hello",
				"internalDate": "1700000000000",
				"labelIds": ["INBOX"],
				"payload": {
					"mimeType": "text/plain",
					"headers": [{"name": "Subject", "value": "Hi"}],
					"body": {"data": "aGVsbG8", "size": 5}
				}
			}`))
		}))

		msg, err := client.GetMessage(context.Background(), "tok", "m1")
		require.NoError(t, err)

		assert.Equal(t, "/users/me/messages/m1", gotPath)
		assert.Equal(t, "full", gotFormat)
		assert.Equal(t, "m1", msg.ID)
		assert.Equal(t, "1700000000000", msg.InternalDate)
		require.NotNil(t, msg.Payload)
		assert.Equal(t, "aGVsbG8", msg.Payload.Body.Data)
	})

	t.Run("404返回UpstreamError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"code": 404}}`))
		}))

		_, err := client.GetMessage(context.Background(), "tok", "missing")
		var upstream *UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	})

	t.Run("上下文取消时中止请求", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.GetMessage(ctx, "tok", "m1")
		require.Error(t, err)
	})
}

func TestClientMetrics(t *testing.T) {
	t.Run("记录上游延迟直方图与错误计数", func(t *testing.T) {
		metrics := monitoring.NewMetrics()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"code": 503}}`))
		}))
		t.Cleanup(server.Close)

		client := NewClient(&config.GmailConfig{
			APIBase:   server.URL,
			Timeout:   5 * time.Second,
			RateLimit: 100,
		}, metrics, zap.NewNop())

		_, err := client.ListMessages(context.Background(), "tok", 10, "", "")
		require.Error(t, err)

		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.GmailUpstreamErrors.WithLabelValues("503")))
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.GmailUpstreamLatency))
	})
}
