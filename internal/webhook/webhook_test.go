package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelane/aicore/internal/models"
)

func event() models.EscalationEvent {
	return models.EscalationEvent{
		Requester: "user-1",
		Query:     "why does saving a candidate fail",
		Category:  models.IntentDataQuery,
		Timestamp: time.Date(2026, 3, 17, 15, 0, 0, 0, time.UTC),
	}
}

func TestNotifyEscalationPostsPayload(t *testing.T) {
	var got escalationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "https://crm.example.com", nil)
	require.NoError(t, c.NotifyEscalation(context.Background(), event(), strings.Repeat("x", 500)))

	assert.Equal(t, "user-1", got.Requester)
	assert.Equal(t, models.IntentDataQuery, got.Category)
	assert.Len(t, got.Response, responsePreview, "response is truncated for the channel")
	assert.Equal(t, "https://crm.example.com/escalations?requester=user-1", got.ActionLink)
}

func TestNotifyEscalationUnsetURLIsNoOp(t *testing.T) {
	c := New("", "", nil)
	assert.False(t, c.Enabled())
	assert.NoError(t, c.NotifyEscalation(context.Background(), event(), "resp"))
}

func TestNotifyEscalationSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	err := c.NotifyEscalation(context.Background(), event(), "resp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifyEscalationEscapesRequesterInLink(t *testing.T) {
	var got escalationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	ev := event()
	ev.Requester = "user one@example"
	c := New(srv.URL, "", nil)
	require.NoError(t, c.NotifyEscalation(context.Background(), ev, "resp"))
	assert.Equal(t, "/escalations?requester=user+one%40example", got.ActionLink)
}
